package entity

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payables-tracker/constants"
)

// Payable represents an accounts-payable transaction (conta a pagar).
type Payable struct {
	ID             uuid.UUID           `json:"id"`
	SupplierID     uuid.UUID           `json:"supplier_id"`
	BilledPartyID  uuid.UUID           `json:"billed_party_id"`
	DocumentNumber string              `json:"document_number"`
	IssueDate      civil.Date          `json:"issue_date"`
	Description    string              `json:"description"`
	Total          decimal.Decimal     `json:"total"`
	Status         constants.Lifecycle `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Installment is one scheduled payment slice of a payable.
type Installment struct {
	ID         uuid.UUID           `json:"id"`
	PayableID  uuid.UUID           `json:"payable_id"`
	Seq        int                 `json:"seq"`
	DueDate    civil.Date          `json:"due_date"`
	Amount     decimal.Decimal     `json:"amount"`
	PaidDate   *civil.Date         `json:"paid_date,omitempty"`
	PaidAmount *decimal.Decimal    `json:"paid_amount,omitempty"`
	Status     constants.Lifecycle `json:"status"`
}

// PayableSummary is the flattened row used for listings and exports.
type PayableSummary struct {
	Payable
	SupplierName    string          `json:"supplier_name"`
	SupplierTaxID   string          `json:"supplier_tax_id"`
	BilledPartyName string          `json:"billed_party_name"`
	Categories      []string        `json:"categories"`
	Installments    int             `json:"installments"`
	NextDueDate     *civil.Date     `json:"next_due_date,omitempty"`
	Outstanding     decimal.Decimal `json:"outstanding"`
}
