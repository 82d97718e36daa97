// Package debug renders internal structures as indented text for logs and
// debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxTextLen limits quoted values, inline image data easily runs into
// megabytes.
const MaxTextLen = 96

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes quoted (and possibly shortened) value under label.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// List writes label followed by items one level deeper, nothing for empty
// lists.
func (tw TreeWriter) List(depth int, label string, items []string) {
	if len(items) == 0 {
		return
	}
	tw.indent(depth)
	tw.w.WriteString(label)
	fmt.Fprintf(tw.w, " (%d):\n", len(items))
	for _, item := range items {
		tw.TextBlock(depth+1, "-", item)
	}
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	if len(raw) > MaxTextLen {
		return strconv.Quote(raw[:MaxTextLen]) + fmt.Sprintf("...(%d bytes)", len(raw))
	}
	return strconv.Quote(raw)
}
