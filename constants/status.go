package constants

import "fmt"

// Lifecycle is the soft-delete state shared by master and transaction rows.
// Rows are never physically deleted.
type Lifecycle string

// Stable values (store these exact strings in DB).
const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
)

var Lifecycles = []string{string(LifecycleActive), string(LifecycleInactive)}

func ParseLifecycle(s string) (Lifecycle, error) {
	switch Lifecycle(s) {
	case LifecycleActive, LifecycleInactive:
		return Lifecycle(s), nil
	}
	return "", fmt.Errorf("unknown lifecycle %q", s)
}
