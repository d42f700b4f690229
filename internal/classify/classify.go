// Package classify maps product descriptions onto the expense taxonomy.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/llm"
)

// ClassificationError records why a description fell back to the default
// category. It is never fatal.
type ClassificationError struct {
	Description string
	Err         error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify %q: %v", truncate(e.Description, 60), e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

var errNoMatch = errors.New("response matches no category")

// Detail is the outcome of one classification.
type Detail struct {
	Category constants.Category
	Raw      string // model response, trimmed
	Matched  bool   // false when the default was used
}

type Classifier struct {
	completer llm.Completer
	taxonomy  *constants.Taxonomy
	logger    *slog.Logger
}

func New(completer llm.Completer, taxonomy *constants.Taxonomy, logger *slog.Logger) *Classifier {
	if taxonomy == nil {
		taxonomy = constants.DefaultTaxonomy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{completer: completer, taxonomy: taxonomy, logger: logger}
}

// Classify always returns a taxonomy category name.
func (c *Classifier) Classify(ctx context.Context, description string) string {
	d, _ := c.ClassifyDetailed(ctx, description)
	return string(d.Category)
}

// ClassifyDetailed is Classify plus the reason a default was used, if any.
func (c *Classifier) ClassifyDetailed(ctx context.Context, description string) (Detail, error) {
	logger := common.LoggerFrom(ctx, c.logger)
	start := time.Now()
	fallback := Detail{Category: c.taxonomy.Default()}

	raw, err := c.completer.Complete(ctx, c.prompt(description))
	if err != nil {
		cerr := &ClassificationError{Description: description, Err: err}
		logger.Warn("classify.fallback", "reason", "completion", "err", cerr)
		return fallback, cerr
	}

	raw = strings.TrimSpace(raw)
	fallback.Raw = raw
	category, ok := c.match(raw)
	if !ok {
		cerr := &ClassificationError{Description: description, Err: errNoMatch}
		logger.Info("classify.fallback", "reason", "no_match", "response", truncate(raw, 80))
		return fallback, cerr
	}

	logger.Debug("classify.ok", "category", category, "elapsed_ms", time.Since(start).Milliseconds())
	return Detail{Category: category, Raw: raw, Matched: true}, nil
}

// Categories returns the taxonomy for display.
func (c *Classifier) Categories() []constants.CategoryDef {
	return c.taxonomy.Categories()
}

func (c *Classifier) match(resp string) (constants.Category, bool) {
	resp = strings.Trim(resp, "\"'. \n")
	if resp == "" {
		return "", false
	}
	if def, ok := c.taxonomy.Lookup(constants.Category(resp)); ok {
		return def.Name, true
	}
	lower := strings.ToLower(resp)
	for _, def := range c.taxonomy.Categories() {
		name := strings.ToLower(string(def.Name))
		if strings.Contains(lower, name) || strings.Contains(name, lower) {
			return def.Name, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
