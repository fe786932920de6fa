package changelog

import (
	"context"
	"fmt"

	"github.com/bimmerbailey/chlog/internal/logging"
	"github.com/spf13/afero"
)

// DefaultPath is the changelog cleaned when no path is configured.
const DefaultPath = "CHANGELOG.md"

// Result describes a single Clean run.
type Result struct {
	Path    string `json:"path"`
	Stats   Stats  `json:"stats"`
	Changed bool   `json:"changed"`
	Written bool   `json:"written"`
	Content string `json:"-"`
}

// Cleaner applies a Rewriter to a file.
type Cleaner struct {
	fs       afero.Fs
	rewriter *Rewriter

	// DryRun computes the result without writing the file.
	DryRun bool
	// SkipUnchanged avoids rewriting a file that is already clean.
	SkipUnchanged bool
}

// NewCleaner creates a Cleaner operating on fs.
func NewCleaner(fs afero.Fs, rw *Rewriter) *Cleaner {
	return &Cleaner{fs: fs, rewriter: rw}
}

// Clean reads path, rewrites it and writes it back in place. The write
// truncates the existing file; it is not atomic.
func (c *Cleaner) Clean(ctx context.Context, path string) (Result, error) {
	log := logging.Get(ctx)

	raw, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	content, stats := c.rewriter.Rewrite(string(raw))
	res := Result{
		Path:    path,
		Stats:   stats,
		Changed: content != string(raw),
		Content: content,
	}

	log.Debug().
		Str("path", path).
		Int("versions", stats.Versions).
		Int("kept", stats.Kept).
		Int("dropped", stats.Dropped()).
		Bool("changed", res.Changed).
		Msg("rewrote changelog")

	if c.DryRun || (c.SkipUnchanged && !res.Changed) {
		return res, nil
	}

	if err := afero.WriteFile(c.fs, path, []byte(content), 0o644); err != nil {
		return res, fmt.Errorf("writing %s: %w", path, err)
	}
	res.Written = true

	return res, nil
}
