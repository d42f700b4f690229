package common

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("payable x: %w", ErrNotFound), codes.NotFound},
		{NewAppError("ALREADY_EXISTS", "dup", ErrConflict), codes.AlreadyExists},
		{fmt.Errorf("bad: %w", ErrValidation), codes.InvalidArgument},
		{fmt.Errorf("paid: %w", ErrPrecondition), codes.FailedPrecondition},
		{fmt.Errorf("boom"), codes.Internal},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, status.Code(ToStatus(tc.err, "op")), tc.err.Error())
	}
	require.NoError(t, ToStatus(nil, "op"))
}

func TestTaxIDRule(t *testing.T) {
	for _, ok := range []string{"12.345.678/0001-90", "12345678000190", "123.456.789-00", "123 456 789 00"} {
		require.Nil(t, TaxID("tax_id", ok), ok)
	}
	for _, bad := range []string{"", "123", "12.345.678/0001-9X", "123456789012"} {
		require.NotNil(t, TaxID("tax_id", bad), bad)
	}
	require.NotNil(t, TaxID("tax_id", 42))
}

func TestEnsureRequestID(t *testing.T) {
	ctx, rid := EnsureRequestID(context.Background())
	require.NotEmpty(t, rid)
	require.Equal(t, rid, RequestIDFromContext(ctx))

	again, same := EnsureRequestID(ctx)
	require.Equal(t, rid, same)
	require.Equal(t, ctx, again)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "./payables.db")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GEMINI_PREFERRED_MODELS", "gemini-2.0-flash, ,gemini-1.5-pro")
	t.Setenv("PIPELINE_TIMEOUT", "90s")
	t.Setenv("TEXT_EXTRACTOR", "ocr")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-pro"}, cfg.LLM.Gemini.PreferredModel)
	require.Equal(t, "90s", cfg.Pipeline.InvocationTimeout.String())
	require.Equal(t, "por", cfg.TextExtract.OCRLang)

	cfg.TextExtract.Backend = "tesseract"
	require.Error(t, cfg.Validate())

	t.Setenv("GEMINI_API_KEY", "")
	require.Error(t, LoadConfig().Validate())
}
