// Package gemini adapts the Google Gen AI SDK to the llm provider contracts.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/payables-tracker/internal/llm"
)

type Config struct {
	APIKey      string
	BaseURL     string // override for tests and proxies
	Model       string // explicit model, e.g. from GEMINI_MODEL_NAME
	Temperature float32
	Timeout     time.Duration
}

type Provider struct {
	cfg    Config
	client *genai.Client
	logger *slog.Logger
}

func NewProvider(ctx context.Context, cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Provider{cfg: cfg, client: client, logger: logger}, nil
}

func (p *Provider) Name() string { return "gemini" }

// Model is the explicitly configured model, empty when it should be probed.
func (p *Provider) Model() string { return p.cfg.Model }

func (p *Provider) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = p.cfg.Model
	}
	if model == "" {
		return "", &llm.ProviderError{Provider: p.Name(), Kind: llm.KindOther, Err: errors.New("no model selected")}
	}
	start := time.Now()
	temp := p.cfg.Temperature
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: &temp,
	})
	if err != nil {
		pe := classify(model, err)
		p.logger.Warn("llm.gemini.error",
			"model", model,
			"kind", pe.Kind.String(),
			"status", pe.Status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", pe
	}
	text := resp.Text()
	p.logger.Debug("llm.gemini.ok", "model", model, "chars", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

// ListModels walks every page of the model listing.
func (p *Provider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	page, err := p.client.Models.List(ctx, &genai.ListModelsConfig{})
	var out []llm.ModelInfo
	for err == nil {
		for _, m := range page.Items {
			if m == nil {
				continue
			}
			out = append(out, llm.ModelInfo{Name: m.Name, Capabilities: m.SupportedActions})
		}
		page, err = page.Next(ctx)
	}
	if !errors.Is(err, genai.ErrPageDone) {
		return nil, classify("", err)
	}
	return out, nil
}

// classify maps genai API errors onto llm kinds from the status code, the
// canonical status and structured error details.
func classify(model string, err error) *llm.ProviderError {
	pe := &llm.ProviderError{Provider: "gemini", Model: model, Kind: llm.KindOther, Err: err}

	apiErr, ok := asAPIError(err)
	if !ok {
		return pe
	}
	pe.Status = apiErr.Code
	switch {
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		if dailyQuota(apiErr.Details) {
			pe.Kind = llm.KindQuota
		} else {
			pe.Kind = llm.KindRateLimited
		}
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden,
		apiErr.Status == "UNAUTHENTICATED" || apiErr.Status == "PERMISSION_DENIED":
		pe.Kind = llm.KindAuth
	case apiErr.Code == http.StatusBadRequest && hasReason(apiErr.Details, "API_KEY_INVALID"):
		pe.Kind = llm.KindAuth
	}
	return pe
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

// dailyQuota reports a QuotaFailure violation against a per-day quota.
func dailyQuota(details []map[string]any) bool {
	for _, d := range details {
		if t, _ := d["@type"].(string); !strings.HasSuffix(t, "google.rpc.QuotaFailure") {
			continue
		}
		violations, _ := d["violations"].([]any)
		for _, v := range violations {
			vm, _ := v.(map[string]any)
			if id, _ := vm["quotaId"].(string); strings.Contains(id, "PerDay") {
				return true
			}
		}
	}
	return false
}

func hasReason(details []map[string]any, reason string) bool {
	for _, d := range details {
		if t, _ := d["@type"].(string); !strings.HasSuffix(t, "google.rpc.ErrorInfo") {
			continue
		}
		if r, _ := d["reason"].(string); r == reason {
			return true
		}
	}
	return false
}
