// Package sentsplit implements a minimal punctuation-based sentence
// splitter.
//
// The fabric's real splitter is a hand-tuned, locale-aware state machine —
// out of scope here (spec Non-goals). sentsplit is a default good enough to
// exercise the core end to end: it treats '.', '!', and '?' followed by
// whitespace (or end of input) as sentence boundaries, never invents bytes,
// and returns only substrings of its input.
package sentsplit

import (
	"strings"

	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// Splitter implements textproc.Splitter.
type Splitter struct{}

// Sentences implements textproc.Splitter.
func (Splitter) Sentences(text string, mode textproc.SplitMode) []string {
	switch mode {
	case textproc.OneSentencePerLine:
		return lines(text)
	case textproc.OneParagraphPerLine:
		var out []string
		for _, p := range lines(text) {
			out = append(out, splitPunctuation(p)...)
		}
		return out
	default: // WrappedText
		return splitPunctuation(text)
	}
}

// lines returns each non-blank line of text, trimmed of surrounding
// whitespace.
func lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitPunctuation breaks s into sentences at '.', '!', or '?' followed by
// whitespace or end of string.
func splitPunctuation(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '!', '?':
			atBoundary := i+1 >= len(s) || s[i+1] == ' ' || s[i+1] == '\t' || s[i+1] == '\n'
			if atBoundary {
				if sent := strings.TrimSpace(s[start : i+1]); sent != "" {
					out = append(out, sent)
				}
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

var _ textproc.Splitter = Splitter{}
