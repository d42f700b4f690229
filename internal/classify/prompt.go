package classify

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/payables-tracker/constants"
)

func (c *Classifier) prompt(description string) string {
	var b strings.Builder
	b.WriteString("Você é um especialista em classificação de despesas agrícolas.\n\n")
	b.WriteString("Baseado na descrição dos produtos abaixo, classifique a despesa em UMA das seguintes categorias:\n\n")
	for _, def := range c.taxonomy.Categories() {
		fmt.Fprintf(&b, "%s: %s\n", def.Name, strings.Join(def.Items, ", "))
	}
	fmt.Fprintf(&b, "\nDescrição dos produtos: %s\n\n", strings.TrimSpace(description))
	fmt.Fprintf(&b, "Responda APENAS com o nome da categoria (ex: %q).\n\n", constants.MaintenanceOperation)
	b.WriteString("Exemplos:\n")
	b.WriteString("- \"Óleo Diesel\" → \"MANUTENÇÃO E OPERAÇÃO\"\n")
	b.WriteString("- \"Material Hidráulico\" → \"INFRAESTRUTURA E UTILIDADES\"\n")
	b.WriteString("- \"Sementes de Soja\" → \"INSUMOS AGRÍCOLAS\"\n")
	return b.String()
}
