package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/payables-tracker/constants"
	"github.com/joseph-ayodele/payables-tracker/internal/app"
	"github.com/joseph-ayodele/payables-tracker/internal/classify"
	"github.com/joseph-ayodele/payables-tracker/internal/common"
)

// llm resolves the model of every configured provider and, optionally, runs
// a prompt or a classification through the chain.
func main() {
	var (
		prompt   = flag.String("prompt", "", "prompt to complete; '-' reads stdin")
		describe = flag.String("classify", "", "product description to classify")
		times    = flag.Int("times", 1, "number of runs")
	)
	flag.Parse()

	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := common.LoadConfig()
	chain, err := app.BuildChain(ctx, cfg.LLM, logger)
	if err != nil {
		logger.Error("build chain", "error", err)
		os.Exit(2)
	}

	for _, lm := range chain.Models(ctx) {
		fmt.Printf("%-8s %s\n", lm.Provider, lm.Model)
	}

	text := *prompt
	if text == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("read stdin", "error", err)
			os.Exit(1)
		}
		text = string(b)
	}

	for i := 1; i <= *times; i++ {
		start := time.Now()
		switch {
		case strings.TrimSpace(text) != "":
			out, err := chain.Complete(ctx, text)
			if err != nil {
				logger.Error("llm.run.error", "iter", i, "error", err)
				os.Exit(1)
			}
			fmt.Println(out)
		case strings.TrimSpace(*describe) != "":
			c := classify.New(chain, constants.DefaultTaxonomy(), logger)
			d, err := c.ClassifyDetailed(ctx, *describe)
			fmt.Printf("%s\t(raw=%q matched=%t)\n", d.Category, d.Raw, d.Matched)
			if err != nil {
				logger.Warn("classification fell back", "error", err)
			}
		default:
			return
		}
		logger.Info("llm.run.ok", "iter", i, "elapsed_ms", time.Since(start).Milliseconds())
	}
}
