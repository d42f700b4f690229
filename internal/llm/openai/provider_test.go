package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payables-tracker/internal/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProvider(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, nil)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestCompleteUsesCompletionsForInstructModels(t *testing.T) {
	t.Parallel()
	var gotModel string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "cmpl-1", "object": "text_completion", "model": gotModel,
			"choices": []map[string]any{{"text": "  MANUTENÇÃO E OPERAÇÃO\n", "index": 0}},
		})
	})

	out, err := p.Complete(context.Background(), "", "classifique")
	require.NoError(t, err)
	require.Equal(t, "  MANUTENÇÃO E OPERAÇÃO\n", out)
	require.Equal(t, "gpt-3.5-turbo-instruct", gotModel)
}

func TestCompleteUsesChatForChatModels(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "chat-1", "object": "chat.completion", "model": "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "{}"}}},
		})
	})

	out, err := p.Complete(context.Background(), "gpt-4o-mini", "extraia")
	require.NoError(t, err)
	require.Equal(t, "{}", out)
}

func TestCompleteClassifiesFailures(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		status int
		body   any
		kind   llm.Kind
	}{
		{
			name:   "insufficient quota",
			status: http.StatusTooManyRequests,
			body:   map[string]any{"error": map[string]any{"message": "You exceeded your current quota", "type": "insufficient_quota", "code": "insufficient_quota"}},
			kind:   llm.KindQuota,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   map[string]any{"error": map[string]any{"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}},
			kind:   llm.KindRateLimited,
		},
		{
			name:   "bad key",
			status: http.StatusUnauthorized,
			body:   map[string]any{"error": map[string]any{"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}},
			kind:   llm.KindAuth,
		},
		{
			name:   "server error without envelope",
			status: http.StatusBadGateway,
			body:   "upstream unavailable",
			kind:   llm.KindOther,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})

			_, err := p.Complete(context.Background(), "", "prompt")
			var pe *llm.ProviderError
			require.True(t, errors.As(err, &pe), "got %T", err)
			require.Equal(t, tc.kind, pe.Kind)
			require.Equal(t, tc.status, pe.Status)
			require.Equal(t, "openai", pe.Provider)
		})
	}
}

func TestListModelsInfersCapabilities(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "text-embedding-3-small", "object": "model"},
				{"id": "gpt-4o-mini", "object": "model"},
				{"id": "whisper-1", "object": "model"},
			},
		})
	})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)

	name, ok := llm.SelectModel(models, llm.ProbeOptions{Capability: llm.CapabilityGenerate})
	require.True(t, ok)
	require.Equal(t, "gpt-4o-mini", name)
}
