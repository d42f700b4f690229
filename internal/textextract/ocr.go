package textextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

type OCRConfig struct {
	Pdftoppm    string // default "pdftoppm"
	Tesseract   string // default "tesseract"
	Lang        string // tesseract language, default "por"
	TessdataDir string
	DPI         int // rasterization DPI, default 300
	MaxPages    int // 0 = no limit
}

// OCR rasterizes every page with pdftoppm and reads it with tesseract. It is
// meant for scanned invoices that carry no text layer.
type OCR struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

// tesseract sometimes emits runs of box-drawing noise on table borders.
var reBoxNoise = regexp.MustCompile(`[|_]{3,}`)

func NewOCR(cfg OCRConfig, runner Runner, logger *slog.Logger) *OCR {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	return &OCR{cfg: cfg, runner: runner, logger: logger}
}

func (o *OCR) Extract(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	res := Result{Method: BackendOCR}
	if len(data) == 0 {
		return res, &ExtractionError{Method: BackendOCR, Err: errors.New("empty input")}
	}

	path, cleanup, err := writeTemp(data)
	if err != nil {
		return res, err
	}
	defer cleanup()

	tmpDir, err := os.MkdirTemp("", "pt-pages-*")
	if err != nil {
		return res, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	if _, errb, err := o.runner.Run(ctx, o.cfg.Pdftoppm, "-r", strconv.Itoa(o.cfg.DPI), "-png", path, prefix); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			res.Warnings = append(res.Warnings, msg)
		}
		return res, &ExtractionError{Method: BackendOCR, Err: err}
	}

	// pdftoppm zero-pads page numbers, so lexical order is page order
	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if o.cfg.MaxPages > 0 && len(images) > o.cfg.MaxPages {
		res.Warnings = append(res.Warnings, fmt.Sprintf("only the first %d of %d pages were read", o.cfg.MaxPages, len(images)))
		images = images[:o.cfg.MaxPages]
	}
	if len(images) == 0 {
		return res, &ExtractionError{Method: BackendOCR, Err: errors.New("pdftoppm produced no images")}
	}

	pages := make([]string, 0, len(images))
	for _, img := range images {
		txt, err := o.readImage(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", filepath.Base(img), err))
			continue
		}
		pages = append(pages, txt)
	}
	res.Pages = len(images)
	res.Text = Normalize(strings.Join(pages, "\n"))
	res.Duration = time.Since(start)
	o.logger.Debug("textextract.ocr.ok", "pages", res.Pages, "chars", len(res.Text), "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

func (o *OCR) readImage(ctx context.Context, img string) (string, error) {
	args := []string{img, "stdout", "-l", o.cfg.Lang}
	if o.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", o.cfg.TessdataDir)
	}
	// tesseract <file> stdout -l <lang>
	out, errb, err := o.runner.Run(ctx, o.cfg.Tesseract, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, truncate(msg, 200))
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(reBoxNoise.ReplaceAllString(string(out), "")), nil
}

// fallback reads the text layer first and runs OCR only when it is empty.
type fallback struct {
	primary Extractor
	ocr     Extractor
	logger  *slog.Logger
}

// WithOCRFallback wraps primary so that PDFs without a text layer are read
// by ocr. Unparsable PDFs are not retried. An OCR failure keeps the empty
// primary result and records a warning.
func WithOCRFallback(primary, ocr Extractor, logger *slog.Logger) Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &fallback{primary: primary, ocr: ocr, logger: logger}
}

func (f *fallback) Extract(ctx context.Context, data []byte) (Result, error) {
	res, err := f.primary.Extract(ctx, data)
	if err != nil || strings.TrimSpace(res.Text) != "" {
		return res, err
	}
	f.logger.Info("textextract.ocr.fallback", "method", res.Method, "pages", res.Pages)

	ocrRes, err := f.ocr.Extract(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		f.logger.Warn("textextract.ocr.failed", "err", err)
		res.Warnings = append(res.Warnings, "ocr: "+err.Error())
		return res, nil
	}
	ocrRes.Warnings = append(res.Warnings, ocrRes.Warnings...)
	return ocrRes, nil
}
