package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// Config for the OpenAI provider.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // default gpt-3.5-turbo-instruct
	Temperature float32       // 0..2
	MaxTokens   int           // completion budget
	Timeout     time.Duration // http client timeout
}

// Provider adapts go-openai to llm.Provider and llm.ModelLister.
type Provider struct {
	cfg    Config
	client *goopenai.Client
	logger *slog.Logger
}

func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT3Dot5TurboInstruct
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Provider{
		cfg:    cfg,
		client: goopenai.NewClientWithConfig(oc),
		logger: logger,
	}
}

func (p *Provider) Name() string { return "openai" }

// DefaultModel is the model used when the chain link does not name one.
func (p *Provider) DefaultModel() string { return p.cfg.Model }
