package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/constants"
)

// Category represents an expense type row, keyed by name.
type Category struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      constants.Lifecycle `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
