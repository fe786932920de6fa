// Package changelog rewrites a generated CHANGELOG.md so that only
// user-facing release notes remain.
//
// The document is split into version blocks around headers of the form
//
//	## [1.2.0] - 2024-01-01
//
// Bullet lines inside each block's "## Changes" section are filtered through
// a classify.Classifier. Blocks left without any user-facing line get a
// fallback line instead, so every version keeps a non-empty Changes section.
//
// Basic usage:
//
//	rw := changelog.NewRewriter(classify.Default())
//	out, stats := rw.Rewrite(content)
package changelog

import (
	"regexp"
	"strings"

	"github.com/bimmerbailey/chlog/internal/classify"
)

// DefaultFallback replaces the changes of versions with no user-facing lines.
const DefaultFallback = "- Internal improvements and bug fixes"

// Header is emitted at the top of every rewritten document.
var Header = []string{
	"# Changelog",
	"",
	"All notable changes to this project will be documented in this file.",
	"",
	"",
}

const changesHeading = "## Changes"

var versionPattern = regexp.MustCompile(`^## \[[\d.]+\] - \d{4}-\d{2}-\d{2}$`)

// IsVersionHeader reports whether line starts a new version block.
func IsVersionHeader(line string) bool {
	return versionPattern.MatchString(line)
}

func isChangesHeading(line string) bool {
	return line == "## Changes" || line == "### Changes"
}

// Version is a single version block of the document.
type Version struct {
	Header  string   `json:"header"`
	Changes []string `json:"changes"`
}

// Stats summarises a rewrite.
type Stats struct {
	Versions          int `json:"versions"`
	Kept              int `json:"kept"`
	DroppedInternal   int `json:"dropped_internal"`
	DroppedOther      int `json:"dropped_unclassified"`
	Fallbacks         int `json:"fallbacks"`
	PreambleDiscarded int `json:"preamble_discarded"`
}

// Dropped returns the total number of change lines removed.
func (s Stats) Dropped() int {
	return s.DroppedInternal + s.DroppedOther
}

// Rewriter turns a raw changelog into its user-facing form.
type Rewriter struct {
	classifier *classify.Classifier
	fallback   string
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithFallback sets the line used when a version has no user-facing changes.
func WithFallback(line string) Option {
	return func(r *Rewriter) {
		if line != "" {
			r.fallback = line
		}
	}
}

// NewRewriter creates a Rewriter using the given classifier.
func NewRewriter(c *classify.Classifier, opts ...Option) *Rewriter {
	r := &Rewriter{classifier: c, fallback: DefaultFallback}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Segment splits content into version blocks. Lines before the first version
// header are returned separately as the preamble. CRLF line endings are
// read as plain newlines.
func Segment(content string) (preamble []string, versions []Version) {
	var current *Version
	inChanges := false

	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, line := range strings.Split(content, "\n") {
		if IsVersionHeader(line) {
			versions = append(versions, Version{Header: line})
			current = &versions[len(versions)-1]
			inChanges = false
			continue
		}

		if current == nil {
			preamble = append(preamble, line)
			continue
		}

		switch {
		case isChangesHeading(line):
			inChanges = true
		case strings.TrimSpace(line) == "":
			inChanges = false
		case inChanges && strings.HasPrefix(line, "- "):
			current.Changes = append(current.Changes, line)
		}
	}

	return preamble, versions
}

// Rewrite returns the cleaned document and statistics about what was removed.
func (r *Rewriter) Rewrite(content string) (string, Stats) {
	preamble, versions := Segment(content)

	var stats Stats
	for _, line := range preamble {
		if strings.TrimSpace(line) != "" {
			stats.PreambleDiscarded++
		}
	}

	out := make([]string, 0, len(Header)+len(versions)*6)
	out = append(out, Header...)

	for i, v := range versions {
		stats.Versions++
		out = append(out, v.Header, "", changesHeading)

		kept := r.filter(v.Changes, &stats)
		if len(kept) == 0 {
			stats.Fallbacks++
			out = append(out, r.fallback)
		} else {
			out = append(out, kept...)
		}

		out = append(out, "")
		if i < len(versions)-1 {
			out = append(out, "")
		}
	}

	return strings.Join(out, "\n"), stats
}

func (r *Rewriter) filter(changes []string, stats *Stats) []string {
	var kept []string
	for _, line := range changes {
		switch r.classifier.Classify(line) {
		case classify.UserFacing:
			kept = append(kept, line)
			stats.Kept++
		case classify.Internal:
			stats.DroppedInternal++
		default:
			stats.DroppedOther++
		}
	}
	return kept
}
