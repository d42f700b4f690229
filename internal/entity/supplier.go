package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/constants"
)

// Supplier represents a supplier (fornecedor) keyed by CNPJ.
type Supplier struct {
	ID        uuid.UUID           `json:"id"`
	LegalName string              `json:"legal_name"`
	TradeName *string             `json:"trade_name,omitempty"`
	TaxID     string              `json:"tax_id"`
	Status    constants.Lifecycle `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// BilledParty represents the invoiced person (faturado) keyed by CPF.
type BilledParty struct {
	ID        uuid.UUID           `json:"id"`
	FullName  string              `json:"full_name"`
	TaxID     string              `json:"tax_id"`
	Status    constants.Lifecycle `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Customer represents a receivables counterparty keyed by CPF or CNPJ.
type Customer struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	TaxID     string              `json:"tax_id"`
	Status    constants.Lifecycle `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
