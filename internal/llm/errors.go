package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provider failure. Every kind triggers failover; the
// distinction is kept for logging and for callers reporting the cause.
type Kind int

const (
	KindOther Kind = iota
	KindQuota
	KindRateLimited
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindRateLimited:
		return "rate_limited"
	case KindAuth:
		return "auth"
	default:
		return "other"
	}
}

// ErrEmptyCompletion is returned when a provider answers with blank text.
var ErrEmptyCompletion = errors.New("empty completion")

// ProviderError is the typed failure adapters return.
type ProviderError struct {
	Provider string
	Model    string
	Kind     Kind
	Status   int // HTTP status when known
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s/%s: %s (status %d): %v", e.Provider, e.Model, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s/%s: %s: %v", e.Provider, e.Model, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf reports the kind of err. Untyped errors count as KindOther.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}

// Attempt records one failed link.
type Attempt struct {
	Provider string
	Model    string
	Kind     Kind
	Err      error
}

// ExhaustedError is returned when every link failed.
type ExhaustedError struct {
	Attempts []Attempt
	Last     error
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s/%s=%s", a.Provider, a.Model, a.Kind))
	}
	return fmt.Sprintf("all providers failed [%s]: %v", strings.Join(parts, ", "), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }
