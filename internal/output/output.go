// Package output renders run summaries for the chlog command. It supports
// text and JSON formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bimmerbailey/chlog/internal/changelog"
)

// Format represents an output format type.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w        io.Writer
	format   Format
	colorize bool
}

// New creates a new output Writer. Colour is applied to text output
// according to mode.
func New(w io.Writer, format Format, mode ColorMode) *Writer {
	return &Writer{w: w, format: format, colorize: shouldColorize(mode, w)}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteStart announces a run in text mode.
func (wr *Writer) WriteStart(path string) {
	if wr.format != FormatText {
		return
	}
	fmt.Fprintf(wr.w, "Cleaning up %s...\n\n", path)
}

// WriteResult outputs the summary of a clean run in the configured format.
func (wr *Writer) WriteResult(res changelog.Result) error {
	if wr.format == FormatJSON {
		return wr.WriteJSON(res)
	}
	return wr.writeText(res)
}

// WriteContent outputs the rewritten document verbatim.
func (wr *Writer) WriteContent(content string) error {
	_, err := io.WriteString(wr.w, content)
	return err
}

func (wr *Writer) writeText(res changelog.Result) error {
	s := res.Stats

	status := fmt.Sprintf("%s cleaned up!", res.Path)
	switch {
	case !res.Changed:
		status = fmt.Sprintf("%s already clean.", res.Path)
	case !res.Written:
		status = fmt.Sprintf("%s needs cleaning (not written).", res.Path)
	}
	fmt.Fprintln(wr.w, wr.paint(colorGreen, status))
	fmt.Fprintln(wr.w)

	fmt.Fprintln(wr.w, "Summary:")
	fmt.Fprintf(wr.w, "  - Versions processed: %d\n", s.Versions)
	fmt.Fprintf(wr.w, "  - User-facing changes kept: %s\n", wr.paint(colorGreen, fmt.Sprint(s.Kept)))
	fmt.Fprintf(wr.w, "  - Internal changes removed: %s\n", wr.paint(colorGray, fmt.Sprint(s.DroppedInternal)))
	fmt.Fprintf(wr.w, "  - Unclassified changes removed: %s\n", wr.paint(colorGray, fmt.Sprint(s.DroppedOther)))
	fmt.Fprintf(wr.w, "  - Versions using fallback message: %s\n", wr.paint(colorYellow, fmt.Sprint(s.Fallbacks)))
	if s.PreambleDiscarded > 0 {
		fmt.Fprintf(wr.w, "  - Header lines replaced: %d\n", s.PreambleDiscarded)
	}
	fmt.Fprintln(wr.w)

	return nil
}

func (wr *Writer) paint(color, text string) string {
	if !wr.colorize {
		return text
	}
	return Colorize(color, text)
}
