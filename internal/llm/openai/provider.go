package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/payables-tracker/internal/llm"
)

// Complete sends the prompt as a legacy completion for instruct models and
// as a single user chat message for everything else.
func (p *Provider) Complete(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = p.cfg.Model
	}
	start := time.Now()

	var (
		text string
		err  error
	)
	if isInstruct(model) {
		text, err = p.completion(ctx, model, prompt)
	} else {
		text, err = p.chat(ctx, model, prompt)
	}
	if err != nil {
		pe := classify(model, err)
		p.logger.Warn("llm.openai.error",
			"model", model,
			"kind", pe.Kind.String(),
			"status", pe.Status,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", pe
	}
	p.logger.Debug("llm.openai.ok", "model", model, "chars", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

func (p *Provider) completion(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.CreateCompletion(ctx, goopenai.CompletionRequest{
		Model:       model,
		Prompt:      prompt,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Text, nil
}

func (p *Provider) chat(ctx context.Context, model, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels reports text-generation models. OpenAI does not publish
// capabilities, so they are inferred from the model family.
func (p *Provider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, classify("", err)
	}
	out := make([]llm.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		info := llm.ModelInfo{Name: m.ID}
		if generative(m.ID) {
			info.Capabilities = []string{llm.CapabilityGenerate}
		}
		out = append(out, info)
	}
	return out, nil
}

func isInstruct(model string) bool {
	return strings.HasSuffix(model, "-instruct") || model == "davinci-002" || model == "babbage-002"
}

func generative(id string) bool {
	for _, marker := range []string{"embedding", "whisper", "tts", "dall-e", "moderation", "image", "audio", "realtime", "transcribe"} {
		if strings.Contains(id, marker) {
			return false
		}
	}
	return strings.HasPrefix(id, "gpt-") || strings.HasPrefix(id, "o1") || strings.HasPrefix(id, "o3") || strings.HasPrefix(id, "o4")
}

// classify maps go-openai errors onto llm kinds using the HTTP status and
// the structured error code or type.
func classify(model string, err error) *llm.ProviderError {
	pe := &llm.ProviderError{Provider: "openai", Model: model, Kind: llm.KindOther, Err: err}

	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.Status = apiErr.HTTPStatusCode
		code, _ := apiErr.Code.(string)
		switch {
		case code == "insufficient_quota" || apiErr.Type == "insufficient_quota":
			pe.Kind = llm.KindQuota
		case code == "invalid_api_key" || apiErr.Type == "authentication_error":
			pe.Kind = llm.KindAuth
		default:
			pe.Kind = kindForStatus(apiErr.HTTPStatusCode)
		}
	case errors.As(err, &reqErr):
		pe.Status = reqErr.HTTPStatusCode
		pe.Kind = kindForStatus(reqErr.HTTPStatusCode)
	}
	return pe
}

func kindForStatus(status int) llm.Kind {
	switch status {
	case http.StatusTooManyRequests:
		return llm.KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.KindAuth
	case http.StatusPaymentRequired:
		return llm.KindQuota
	default:
		return llm.KindOther
	}
}
