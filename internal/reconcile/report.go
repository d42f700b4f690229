package reconcile

import (
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/constants"
)

type report struct {
	lines []string
}

// section appends a header, the display name, an optional key line and the
// existence status.
func (r *report) section(header, name, keyLine string, existed bool, id uuid.UUID, status constants.Lifecycle) {
	r.lines = append(r.lines, header, name)
	if keyLine != "" {
		r.lines = append(r.lines, keyLine)
	}
	r.lines = append(r.lines, statusLine(existed, id, status))
}

func statusLine(existed bool, id uuid.UUID, status constants.Lifecycle) string {
	if !existed {
		return "NÃO EXISTE"
	}
	line := "EXISTE – ID: " + id.String()
	if status == constants.LifecycleInactive {
		line += " (inativo)"
	}
	return line
}

func (r *report) String() string { return strings.Join(r.lines, "\n") }
