// Package llm runs prompts through an ordered chain of generative-text
// providers, failing over on any typed provider error.
package llm

import (
	"context"
	"time"
)

// CapabilityGenerate is the capability a model must advertise to be picked
// by a probe for text completion.
const CapabilityGenerate = "generateContent"

// Provider completes a prompt with a named model.
type Provider interface {
	Name() string
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

type ModelInfo struct {
	Name         string
	Capabilities []string
}

// Completer is what the extraction and classification stages depend on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProbeOptions steer model discovery for a link without an explicit model.
type ProbeOptions struct {
	Capability string
	Preferred  []string
	Stable     string // used when listing fails or yields nothing
}

// Link is one provider position in the chain.
type Link struct {
	Provider     Provider
	Model        string // explicit model; skips probing
	DefaultModel string // used by the primary link when Model is empty
	Probe        *ProbeOptions
	Timeout      time.Duration // per attempt; zero means bounded only by the chain
}
