package classify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/llm"
)

type replyCompleter struct {
	reply  string
	err    error
	prompt string
}

func (r *replyCompleter) Complete(_ context.Context, prompt string) (string, error) {
	r.prompt = prompt
	return r.reply, r.err
}

func newClassifier(c llm.Completer) *Classifier {
	return New(c, constants.DefaultTaxonomy(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExactMatchForEveryCategory(t *testing.T) {
	for _, def := range constants.DefaultTaxonomy().Categories() {
		t.Run(string(def.Name), func(t *testing.T) {
			got, err := newClassifier(&replyCompleter{reply: "  " + string(def.Name) + "\n"}).ClassifyDetailed(context.Background(), "x")
			require.NoError(t, err)
			require.True(t, got.Matched)
			require.Equal(t, def.Name, got.Category)
		})
	}
}

func TestSubstringMatchEitherDirection(t *testing.T) {
	cases := map[string]constants.Category{
		`A categoria é "MANUTENÇÃO E OPERAÇÃO".`: constants.MaintenanceOperation,
		"insumos agrícolas":                      constants.AgriculturalInputs,
		"INFRAESTRUTURA":                         constants.InfrastructureUtility,
	}
	for reply, want := range cases {
		got := newClassifier(&replyCompleter{reply: reply}).Classify(context.Background(), "Óleo Diesel")
		require.Equal(t, string(want), got, reply)
	}
}

func TestUnmatchedResponseFallsBackToDefault(t *testing.T) {
	for _, reply := range []string{"xyz-unmatched", "", "   "} {
		d, err := newClassifier(&replyCompleter{reply: reply}).ClassifyDetailed(context.Background(), "qualquer coisa")
		require.False(t, d.Matched)
		require.Equal(t, constants.Administrative, d.Category)

		var cerr *ClassificationError
		require.ErrorAs(t, err, &cerr)
		require.ErrorIs(t, err, errNoMatch)
	}
}

func TestExhaustedChainFallsBackToDefault(t *testing.T) {
	exhausted := &llm.ExhaustedError{Last: errors.New("gemini: quota")}
	c := newClassifier(&replyCompleter{err: exhausted})

	require.Equal(t, string(constants.Administrative), c.Classify(context.Background(), "Sementes de Soja"))

	_, err := c.ClassifyDetailed(context.Background(), "Sementes de Soja")
	var got *llm.ExhaustedError
	require.ErrorAs(t, err, &got)
}

func TestPromptListsTaxonomyAndDescription(t *testing.T) {
	rc := &replyCompleter{reply: "INSUMOS AGRÍCOLAS"}
	newClassifier(rc).Classify(context.Background(), "  Óleo Diesel S10  ")

	require.Contains(t, rc.prompt, "Descrição dos produtos: Óleo Diesel S10\n")
	require.Contains(t, rc.prompt, "IMPOSTOS E TAXAS: ITR, IPTU, IPVA, INCRA-CCIR")
	require.Contains(t, rc.prompt, `"Sementes de Soja" → "INSUMOS AGRÍCOLAS"`)
}

func TestCategoriesEnumeratesTaxonomy(t *testing.T) {
	defs := newClassifier(&replyCompleter{}).Categories()
	require.Len(t, defs, 9)
	require.Equal(t, constants.AgriculturalInputs, defs[0].Name)
}
