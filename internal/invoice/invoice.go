// Package invoice turns extracted PDF text into a structured invoice record
// by prompting a generative model and repairing its answer.
package invoice

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Supplier is the issuing company (fornecedor).
type Supplier struct {
	LegalName string  `json:"razao_social,omitempty"`
	TradeName *string `json:"fantasia,omitempty"`
	TaxID     string  `json:"cnpj,omitempty"`
}

// BilledParty is the invoiced person (faturado).
type BilledParty struct {
	FullName string `json:"nome_completo,omitempty"`
	TaxID    string `json:"cpf,omitempty"`
}

// Invoice is the sanitized extraction result. Wire keys follow the invoice
// vocabulary the model is prompted with. Missing values stay nil or empty;
// mandatory fields are enforced at reconciliation.
type Invoice struct {
	Supplier     Supplier         `json:"fornecedor"`
	BilledParty  BilledParty      `json:"faturado"`
	Number       string           `json:"numero_nota_fiscal,omitempty"`
	IssueDate    *civil.Date      `json:"data_emissao,omitempty"`
	Description  string           `json:"descricao_produtos,omitempty"`
	Total        *decimal.Decimal `json:"valor_total,omitempty"`
	DueDate      *civil.Date      `json:"data_vencimento,omitempty"`
	Installments int              `json:"quantidade_parcelas"`
	Category     string           `json:"classificacao_despesa,omitempty"`
	Categories   []string         `json:"classificacoes,omitempty"`
	ProcessedAt  *time.Time       `json:"processed_at,omitempty"`
}

// MalformedResponseError is returned when the model answer is not JSON even
// after stripping markdown fences.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response (%d bytes): %v", len(e.Raw), e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
