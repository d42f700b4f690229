package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/payables-tracker/internal/llm"
)

func newTestProvider(t *testing.T, model string, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := NewProvider(context.Background(), Config{APIKey: "k", BaseURL: srv.URL + "/", Model: model}, nil)
	require.NoError(t, err)
	return p
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestCompleteReturnsCandidateText(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, "gemini-1.5-pro", func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent"), r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": "INSUMOS AGRÍCOLAS"}}},
			}},
		})
	})

	out, err := p.Complete(context.Background(), "gemini-2.0-flash", "classifique")
	require.NoError(t, err)
	require.Equal(t, "INSUMOS AGRÍCOLAS", out)
}

func TestListModelsFollowsPages(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	p := newTestProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			require.Empty(t, r.URL.Query().Get("pageToken"))
			writeJSON(w, http.StatusOK, map[string]any{
				"models": []map[string]any{
					{"name": "models/embedding-001", "supportedGenerationMethods": []string{"embedContent"}},
					{"name": "models/gemini-2.5-flash-preview-05-20", "supportedGenerationMethods": []string{"generateContent"}},
				},
				"nextPageToken": "p2",
			})
			return
		}
		require.Equal(t, "p2", r.URL.Query().Get("pageToken"))
		writeJSON(w, http.StatusOK, map[string]any{
			"models": []map[string]any{
				{"name": "models/gemini-1.5-flash", "supportedGenerationMethods": []string{"generateContent", "countTokens"}},
			},
		})
	})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)
	require.EqualValues(t, 2, calls.Load())

	name, ok := llm.SelectModel(models, llm.ProbeOptions{Capability: llm.CapabilityGenerate, Preferred: []string{"gemini-2.5-flash", "gemini-1.5-flash"}})
	require.True(t, ok)
	require.Equal(t, "gemini-1.5-flash", name)
}

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		kind llm.Kind
	}{
		{"daily quota", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Details: []map[string]any{{
			"@type":      "type.googleapis.com/google.rpc.QuotaFailure",
			"violations": []any{map[string]any{"quotaId": "GenerateRequestsPerDayPerProjectPerModel-FreeTier"}},
		}}}, llm.KindQuota},
		{"per minute limit", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Details: []map[string]any{{
			"@type":      "type.googleapis.com/google.rpc.QuotaFailure",
			"violations": []any{map[string]any{"quotaId": "GenerateRequestsPerMinutePerProjectPerModel"}},
		}}}, llm.KindRateLimited},
		{"permission denied", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, llm.KindAuth},
		{"invalid key", &genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Details: []map[string]any{{
			"@type": "type.googleapis.com/google.rpc.ErrorInfo", "reason": "API_KEY_INVALID",
		}}}, llm.KindAuth},
		{"not found", genai.APIError{Code: 404, Status: "NOT_FOUND"}, llm.KindOther},
		{"transport", errors.New("connection reset by peer"), llm.KindOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.kind, classify("m", tc.err).Kind)
		})
	}
}

func TestCompleteMapsHTTPErrors(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, "gemini-1.5-pro", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"},
		})
	})

	_, err := p.Complete(context.Background(), "", "x")
	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, llm.KindRateLimited, pe.Kind)
	require.Equal(t, 429, pe.Status)
	require.Equal(t, "gemini-1.5-pro", pe.Model)
}
