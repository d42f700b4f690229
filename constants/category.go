package constants

import (
	"fmt"
	"strings"
)

type Category string

const (
	AgriculturalInputs     Category = "INSUMOS AGRÍCOLAS"
	MaintenanceOperation   Category = "MANUTENÇÃO E OPERAÇÃO"
	HumanResources         Category = "RECURSOS HUMANOS"
	OperationalServices    Category = "SERVIÇOS OPERACIONAIS"
	InfrastructureUtility  Category = "INFRAESTRUTURA E UTILIDADES"
	Administrative         Category = "ADMINISTRATIVAS"
	InsuranceProtection    Category = "SEGUROS E PROTEÇÃO"
	TaxesFees              Category = "IMPOSTOS E TAXAS"
	Investments            Category = "INVESTIMENTOS"
	DefaultExpenseCategory          = Administrative
)

// CategoryDef is one taxonomy entry: a category name and illustrative items.
type CategoryDef struct {
	Name  Category
	Items []string
}

// Description is the text stored on seeded category rows.
func (d CategoryDef) Description() string {
	return fmt.Sprintf("Categoria: %s. Inclui: %s", d.Name, strings.Join(d.Items, ", "))
}

// Taxonomy is an ordered, immutable set of categories with a designated default.
type Taxonomy struct {
	defs  []CategoryDef
	index map[Category]int
	def   Category
}

// NewTaxonomy validates name uniqueness and that the default is a member.
func NewTaxonomy(defs []CategoryDef, defaultName Category) (*Taxonomy, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("taxonomy: at least one category is required")
	}
	t := &Taxonomy{
		defs:  make([]CategoryDef, 0, len(defs)),
		index: make(map[Category]int, len(defs)),
		def:   defaultName,
	}
	for _, d := range defs {
		name := Category(strings.TrimSpace(string(d.Name)))
		if name == "" {
			return nil, fmt.Errorf("taxonomy: empty category name")
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate category %q", name)
		}
		t.index[name] = len(t.defs)
		t.defs = append(t.defs, CategoryDef{Name: name, Items: append([]string(nil), d.Items...)})
	}
	if _, ok := t.index[defaultName]; !ok {
		return nil, fmt.Errorf("taxonomy: default category %q is not defined", defaultName)
	}
	return t, nil
}

// Default returns the category used when nothing else matches.
func (t *Taxonomy) Default() Category { return t.def }

// Categories returns a copy of the entries in declaration order.
func (t *Taxonomy) Categories() []CategoryDef {
	out := make([]CategoryDef, len(t.defs))
	for i, d := range t.defs {
		out[i] = CategoryDef{Name: d.Name, Items: append([]string(nil), d.Items...)}
	}
	return out
}

// Lookup finds a category by exact name.
func (t *Taxonomy) Lookup(name Category) (CategoryDef, bool) {
	i, ok := t.index[name]
	if !ok {
		return CategoryDef{}, false
	}
	return t.defs[i], true
}

func (t *Taxonomy) AsStringSlice() []string {
	result := make([]string, len(t.defs))
	for i, d := range t.defs {
		result[i] = string(d.Name)
	}
	return result
}

// Canonicalize maps a stored or user-supplied label onto the taxonomy:
// exact match first, then case-insensitive equality. Unknown labels resolve to
// the default and report false.
func (t *Taxonomy) Canonicalize(input string) (Category, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return t.def, false
	}
	if _, ok := t.index[Category(s)]; ok {
		return Category(s), true
	}
	for _, d := range t.defs {
		if strings.EqualFold(s, string(d.Name)) {
			return d.Name, true
		}
	}
	return t.def, false
}

var defaultCategories = []CategoryDef{
	{Name: AgriculturalInputs, Items: []string{"Sementes", "Fertilizantes", "Defensivos Agrícolas", "Corretivos"}},
	{Name: MaintenanceOperation, Items: []string{
		"Combustíveis e Lubrificantes",
		"Peças, Parafusos, Componentes Mecânicos",
		"Manutenção de Máquinas e Equipamentos",
		"Pneus, Filtros, Correias",
		"Ferramentas e Utensílios",
	}},
	{Name: HumanResources, Items: []string{"Mão de Obra Temporária", "Salários e Encargos"}},
	{Name: OperationalServices, Items: []string{
		"Frete e Transporte",
		"Colheita Terceirizada",
		"Secagem e Armazenagem",
		"Pulverização e Aplicação",
	}},
	{Name: InfrastructureUtility, Items: []string{
		"Energia Elétrica",
		"Arrendamento de Terras",
		"Construções e Reformas",
		"Materiais de Construção",
	}},
	{Name: Administrative, Items: []string{
		"Honorários (Contábeis, Advocatícios, Agronômicos)",
		"Despesas Bancárias e Financeiras",
	}},
	{Name: InsuranceProtection, Items: []string{
		"Seguro Agrícola",
		"Seguro de Ativos (Máquinas/Veículos)",
		"Seguro Prestamista",
	}},
	{Name: TaxesFees, Items: []string{"ITR", "IPTU", "IPVA", "INCRA-CCIR"}},
	{Name: Investments, Items: []string{
		"Aquisição de Máquinas e Implementos",
		"Aquisição de Veículos",
		"Aquisição de Imóveis",
		"Infraestrutura Rural",
	}},
}

// DefaultTaxonomy returns the agricultural expense taxonomy.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(defaultCategories, DefaultExpenseCategory)
	if err != nil {
		panic(err)
	}
	return t
}
