package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	TextExtract TextExtractConfig
	LLM         LLMConfig
	Pipeline    PipelineConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	// Driver is "postgres" (pgx pool) or "sqlite" (modernc, file path in DSN).
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	AutoMigrate      bool
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// TextExtractConfig selects how PDF text is pulled out.
type TextExtractConfig struct {
	Backend     string // "pdf" (in-process), "pdftotext" or "ocr"
	Pdftotext   string
	OCRFallback bool // OCR scanned PDFs whose text layer is empty
	Pdftoppm    string
	Tesseract   string
	OCRLang     string
	TessdataDir string
	OCRDPI      int
	OCRMaxPages int
}

// LLMConfig holds provider chain configuration
type LLMConfig struct {
	OpenAI       OpenAIConfig
	Gemini       GeminiConfig
	AttemptLimit time.Duration // per provider attempt
	ChainBudget  time.Duration // whole chain, all attempts
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	PreferredModel []string
	StableModel    string
	Temperature    float32
}

// PipelineConfig bounds a single invocation and the batch worker pool.
type PipelineConfig struct {
	InvocationTimeout time.Duration
	BatchWorkers      int
	BatchQueueSize    int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "postgres"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		TextExtract: TextExtractConfig{
			Backend:     getEnv("TEXT_EXTRACTOR", "pdf"),
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			OCRFallback: getEnvAsBool("OCR_FALLBACK", false),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			OCRLang:     getEnv("OCR_LANG", "por"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			OCRDPI:      getEnvAsInt("OCR_DPI", 300),
			OCRMaxPages: getEnvAsInt("OCR_MAX_PAGES", 10),
		},
		LLM: LLMConfig{
			OpenAI: OpenAIConfig{
				APIKey:      getEnv("OPENAI_API_KEY", ""),
				BaseURL:     getEnv("OPENAI_BASE_URL", ""),
				Model:       getEnv("OPENAI_MODEL", "gpt-3.5-turbo-instruct"),
				Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
				MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 1000),
			},
			Gemini: GeminiConfig{
				APIKey:         getEnv("GEMINI_API_KEY", ""),
				Model:          getEnv("GEMINI_MODEL_NAME", ""),
				PreferredModel: getEnvAsList("GEMINI_PREFERRED_MODELS", []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"}),
				StableModel:    getEnv("GEMINI_STABLE_MODEL", "gemini-1.5-pro"),
				Temperature:    getEnvAsFloat32("GEMINI_TEMPERATURE", 0.1),
			},
			AttemptLimit: getEnvAsDuration("LLM_ATTEMPT_TIMEOUT", 45*time.Second),
			ChainBudget:  getEnvAsDuration("LLM_CHAIN_TIMEOUT", 2*time.Minute),
		},
		Pipeline: PipelineConfig{
			InvocationTimeout: getEnvAsDuration("PIPELINE_TIMEOUT", 3*time.Minute),
			BatchWorkers:      getEnvAsInt("BATCH_WORKERS", 4),
			BatchQueueSize:    getEnvAsInt("BATCH_QUEUE_SIZE", 64),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.OpenAI.APIKey == "" && c.LLM.Gemini.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "at least one of OPENAI_API_KEY or GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.TextExtract.Backend {
	case "pdf", "pdftotext", "ocr":
	default:
		return NewAppError("CONFIG_ERROR", "TEXT_EXTRACTOR must be pdf, pdftotext or ocr", ErrInvalidInput)
	}
	return nil
}
