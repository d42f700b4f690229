// Package ingest discovers invoice PDFs on disk and feeds them through the
// processing pipeline.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/payables-tracker/constants"
)

// File is one discovered document.
type File struct {
	Path      string
	Size      int64
	HashHex   string
	Duplicate bool // same content as an earlier file in this scan
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned    uint32
	Matched    uint32
	Duplicates uint32
	Failed     uint32
}

type ScanOptions struct {
	Extensions []string // defaults to constants.AllowedExtensions
	SkipHidden bool
}

// Scan walks root and returns every file with an allowed extension, in walk
// order. Files whose content was already seen are flagged as duplicates.
// Unreadable entries are counted as failed and skipped.
func Scan(ctx context.Context, root string, opts ScanOptions) ([]File, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(opts.Extensions)

	var (
		files []File
		stats DirStats
		seen  = map[string]struct{}{}
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if opts.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path, exts) {
			return nil
		}
		stats.Matched++

		size, sum, err := hashFile(path)
		if err != nil {
			stats.Failed++
			return nil
		}
		f := File{Path: path, Size: size, HashHex: sum}
		if _, dup := seen[sum]; dup {
			f.Duplicate = true
			stats.Duplicates++
		}
		seen[sum] = struct{}{}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return files, stats, fmt.Errorf("walk: %w", err)
	}
	return files, stats, nil
}

func hashFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

func extSet(in []string) map[string]struct{} {
	if len(in) == 0 {
		return constants.AllowedExtensions
	}
	out := make(map[string]struct{}, len(in))
	for _, e := range in {
		if e = constants.NormalizeExt(e); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden reports whether the base name starts with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
