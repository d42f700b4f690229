// Package app wires configuration into the running components shared by the
// binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/classify"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/export"
	"github.com/joseph-ayodele/payables-tracker/internal/invoice"
	"github.com/joseph-ayodele/payables-tracker/internal/llm"
	"github.com/joseph-ayodele/payables-tracker/internal/llm/gemini"
	"github.com/joseph-ayodele/payables-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/payables-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payables-tracker/internal/reconcile"
	"github.com/joseph-ayodele/payables-tracker/internal/repository"
	"github.com/joseph-ayodele/payables-tracker/internal/server"
	"github.com/joseph-ayodele/payables-tracker/internal/services/masterdata"
	"github.com/joseph-ayodele/payables-tracker/internal/services/payables"
	"github.com/joseph-ayodele/payables-tracker/internal/textextract"
)

type App struct {
	Config     *common.Config
	Store      *repository.Store
	Chain      *llm.Chain
	Processor  *pipeline.Processor
	MasterData *masterdata.Service
	Payables   *payables.Service
	Export     *export.Service
	Logger     *slog.Logger
}

// BuildChain orders OpenAI first and Gemini second, skipping providers
// without an API key. The Gemini link probes for a model unless one is
// configured.
func BuildChain(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (*llm.Chain, error) {
	var links []llm.Link
	if cfg.OpenAI.APIKey != "" {
		p := openai.NewProvider(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     cfg.AttemptLimit,
		}, logger)
		links = append(links, llm.Link{Provider: p, DefaultModel: p.DefaultModel(), Timeout: cfg.AttemptLimit})
	}
	if cfg.Gemini.APIKey != "" {
		p, err := gemini.NewProvider(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Gemini.Temperature,
			Timeout:     cfg.AttemptLimit,
		}, logger)
		if err != nil {
			return nil, err
		}
		links = append(links, llm.Link{
			Provider:     p,
			Model:        p.Model(),
			DefaultModel: cfg.Gemini.StableModel,
			Probe: &llm.ProbeOptions{
				Capability: llm.CapabilityGenerate,
				Preferred:  cfg.Gemini.PreferredModel,
				Stable:     cfg.Gemini.StableModel,
			},
			Timeout: cfg.AttemptLimit,
		})
	}
	if len(links) == 0 {
		return nil, errors.New("no model provider configured")
	}
	return llm.NewChain(links, llm.WithMaxLatency(cfg.ChainBudget), llm.WithLogger(logger))
}

// New connects the store and builds every component from cfg.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	te := cfg.TextExtract
	text, err := textextract.New(textextract.Config{
		Backend:     te.Backend,
		Pdftotext:   te.Pdftotext,
		OCRFallback: te.OCRFallback,
		OCR: textextract.OCRConfig{
			Pdftoppm:    te.Pdftoppm,
			Tesseract:   te.Tesseract,
			Lang:        te.OCRLang,
			TessdataDir: te.TessdataDir,
			DPI:         te.OCRDPI,
			MaxPages:    te.OCRMaxPages,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	chain, err := BuildChain(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("build model chain: %w", err)
	}
	store, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	taxonomy := constants.DefaultTaxonomy()
	classifier := classify.New(chain, taxonomy, logger)
	extractor := invoice.NewExtractor(chain, logger, invoice.WithClassifier(classifier))
	engine := reconcile.NewEngine(store, taxonomy, logger)

	return &App{
		Config:     cfg,
		Store:      store,
		Chain:      chain,
		Processor:  pipeline.NewProcessor(logger, text, extractor, engine, cfg.Pipeline.InvocationTimeout),
		MasterData: masterdata.NewService(store.Repos(), logger),
		Payables:   payables.NewService(store, taxonomy, logger),
		Export:     export.NewService(store.Repos().Payables, logger),
		Logger:     logger,
	}, nil
}

// Service returns the gRPC service backed by the app's components. The
// server layer logs through zap.
func (a *App) Service(logger *zap.Logger) *server.PayablesService {
	return server.NewPayablesService(a.Processor, a.MasterData, a.Payables, a.Export, logger)
}

func (a *App) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}
