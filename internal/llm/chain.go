package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
)

// Chain tries each link in order and returns the first non-empty completion.
// There are no retries within a link.
type Chain struct {
	links      []Link
	maxLatency time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	probed map[int]string
}

type ChainOption func(*Chain)

// WithMaxLatency bounds the whole call, all attempts included.
func WithMaxLatency(d time.Duration) ChainOption { return func(c *Chain) { c.maxLatency = d } }

func WithLogger(l *slog.Logger) ChainOption { return func(c *Chain) { c.logger = l } }

func NewChain(links []Link, opts ...ChainOption) (*Chain, error) {
	if len(links) == 0 {
		return nil, errors.New("llm chain: at least one provider link is required")
	}
	for i, l := range links {
		if l.Provider == nil {
			return nil, fmt.Errorf("llm chain: link %d has no provider", i)
		}
	}
	c := &Chain{links: links, probed: make(map[int]string)}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

func (c *Chain) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	if c.maxLatency > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.maxLatency)
		defer cancel()
	}
	log := common.LoggerFrom(ctx, c.logger)

	var attempts []Attempt
	var last error
	for i, link := range c.links {
		if err := ctx.Err(); err != nil {
			last = err
			break
		}
		name := link.Provider.Name()
		model := c.modelFor(ctx, i, link)

		out, err := c.attempt(ctx, link, model, prompt)
		if err == nil {
			log.Info("llm.chain.ok",
				"provider", name,
				"model", model,
				"position", i,
				"chars", len(out),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return out, nil
		}

		kind := KindOf(err)
		attempts = append(attempts, Attempt{Provider: name, Model: model, Kind: kind, Err: err})
		last = err
		if i < len(c.links)-1 {
			log.Warn("llm.chain.failover",
				"provider", name,
				"model", model,
				"kind", kind.String(),
				"next", c.links[i+1].Provider.Name(),
				"error", err,
			)
		}
	}

	log.Error("llm.chain.exhausted",
		"attempts", len(attempts),
		"error", last,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return "", &ExhaustedError{Attempts: attempts, Last: last}
}

func (c *Chain) attempt(ctx context.Context, link Link, model, prompt string) (string, error) {
	if link.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, link.Timeout)
		defer cancel()
	}
	out, err := link.Provider.Complete(ctx, model, prompt)
	if err != nil {
		var pe *ProviderError
		if !errors.As(err, &pe) {
			err = &ProviderError{Provider: link.Provider.Name(), Model: model, Kind: KindOther, Err: err}
		}
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &ProviderError{Provider: link.Provider.Name(), Model: model, Kind: KindOther, Err: ErrEmptyCompletion}
	}
	return out, nil
}

// modelFor resolves the model for link i. The primary link uses its explicit
// or default model; fallbacks without an explicit model are probed once and
// the successful result is cached.
func (c *Chain) modelFor(ctx context.Context, i int, link Link) string {
	if link.Model != "" {
		return link.Model
	}
	if i == 0 || link.Probe == nil {
		return link.DefaultModel
	}

	c.mu.Lock()
	cached, ok := c.probed[i]
	c.mu.Unlock()
	if ok {
		return cached
	}

	model, probed := c.probe(ctx, link)
	if probed {
		c.mu.Lock()
		c.probed[i] = model
		c.mu.Unlock()
	}
	return model
}

func (c *Chain) probe(ctx context.Context, link Link) (string, bool) {
	log := common.LoggerFrom(ctx, c.logger)
	fallback := link.Probe.Stable
	if fallback == "" {
		fallback = link.DefaultModel
	}
	lister, ok := link.Provider.(ModelLister)
	if !ok {
		return fallback, false
	}
	if link.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, link.Timeout)
		defer cancel()
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		log.Warn("llm.probe.list_failed", "provider", link.Provider.Name(), "fallback", fallback, "error", err)
		return fallback, false
	}
	model, found := SelectModel(models, *link.Probe)
	if !found {
		log.Warn("llm.probe.no_candidate", "provider", link.Provider.Name(), "listed", len(models), "fallback", fallback)
		return fallback, false
	}
	log.Info("llm.probe.selected", "provider", link.Provider.Name(), "model", model, "listed", len(models))
	return model, true
}

// LinkModel describes the model each link would use.
type LinkModel struct {
	Provider string
	Model    string
}

// Models resolves (probing where needed) the model of every link.
func (c *Chain) Models(ctx context.Context) []LinkModel {
	out := make([]LinkModel, len(c.links))
	for i, l := range c.links {
		out[i] = LinkModel{Provider: l.Provider.Name(), Model: c.modelFor(ctx, i, l)}
	}
	return out
}
