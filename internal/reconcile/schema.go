package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
)

// buildInvoiceSchema returns the JSON Schema for the invoice wire form with
// every field reconciliation depends on marked required.
func buildInvoiceSchema() map[string]any {
	nonEmpty := map[string]any{"type": "string", "minLength": 1}
	date := map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}

	supplier := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"razao_social": nonEmpty,
			"fantasia":     map[string]any{"type": "string"},
			"cnpj":         nonEmpty,
		},
		"required": []string{"razao_social", "cnpj"},
	}
	billed := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nome_completo": nonEmpty,
			"cpf":           nonEmpty,
		},
		"required": []string{"nome_completo", "cpf"},
	}

	props := map[string]any{
		"fornecedor":            supplier,
		"faturado":              billed,
		"numero_nota_fiscal":    nonEmpty,
		"data_emissao":          date,
		"data_vencimento":       date,
		"descricao_produtos":    map[string]any{"type": "string"},
		"valor_total":           map[string]any{"type": "string", "pattern": `^\d+(\.\d{1,2})?$`},
		"quantidade_parcelas":   map[string]any{"type": "integer", "minimum": 0},
		"classificacao_despesa": map[string]any{"type": "string"},
		"classificacoes":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"processed_at":          map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required": []string{"fornecedor", "faturado", "numero_nota_fiscal", "data_emissao",
			"data_vencimento", "valor_total"},
	}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(buildInvoiceSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("invoice.json")
})

// validateInvoice checks inv's wire form against the invoice schema and
// returns *ValidationError listing every violation.
func validateInvoice(inv *invoice.Invoice) error {
	if inv == nil {
		return &ValidationError{Problems: []string{"invoice is required"}}
	}
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}

	var problems []string
	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return &ValidationError{Problems: []string{err.Error()}}
		}
		problems = leafProblems(ve)
	}
	if inv.Total != nil && inv.Total.IsNegative() {
		problems = append(problems, "valor_total: must not be negative")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func leafProblems(ve *jsonschema.ValidationError) []string {
	seen := map[string]struct{}{}
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		loc := strings.TrimPrefix(e.InstanceLocation, "/")
		if loc == "" {
			loc = "invoice"
		}
		seen[strings.ReplaceAll(loc, "/", ".")+": "+e.Error] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
