package textproc

import (
	"fmt"
	"strings"

	"github.com/bergamot-go/bergamot/internal/translate/annotation"
)

// TextProcessor turns raw text into an [annotation.AnnotatedText] plus one
// [Segment] per (possibly wrapped) sentence, in matching order.
type TextProcessor struct {
	splitter Splitter
	vocab    Vocab

	// maxLengthBreak caps the number of subword tokens (excluding EOS) any
	// one segment may carry; longer sentences are hard-wrapped.
	maxLengthBreak int
}

// New constructs a TextProcessor. maxLengthBreak must not exceed
// miniBatchWords, otherwise a single sentence could alone exceed a full
// batch's token budget; that is a fatal configuration error, returned here
// rather than panicking so callers can fail construction cleanly.
func New(splitter Splitter, vocab Vocab, maxLengthBreak, miniBatchWords int) (*TextProcessor, error) {
	if maxLengthBreak <= 0 {
		return nil, fmt.Errorf("textproc: maxLengthBreak must be positive, got %d", maxLengthBreak)
	}
	if maxLengthBreak > miniBatchWords {
		return nil, fmt.Errorf("textproc: maxLengthBreak (%d) exceeds miniBatchWords (%d)", maxLengthBreak, miniBatchWords)
	}
	return &TextProcessor{splitter: splitter, vocab: vocab, maxLengthBreak: maxLengthBreak}, nil
}

// Vocab returns the source-language Vocab this processor tokenizes with, so
// an inference collaborator that needs the source sentence's text (rather
// than just its token ids — an LLM-backed collaborator, say) can decode a
// Segment back to a string.
func (p *TextProcessor) Vocab() Vocab { return p.vocab }

// Process splits text under mode, tokenizes each sentence, and wraps any
// sentence longer than maxLengthBreak tokens into multiple segments. It
// returns the built AnnotatedText and one Segment per emitted sentence, in
// document order.
func (p *TextProcessor) Process(text string, mode SplitMode) (*annotation.AnnotatedText, []Segment, error) {
	at := annotation.New()
	var segments []Segment

	sentences := p.splitter.Sentences(text, mode)
	cursor := 0

	for _, sent := range sentences {
		start := strings.Index(text[cursor:], sent)
		if start < 0 {
			return nil, nil, fmt.Errorf("textproc: splitter returned %q, not a substring of remaining text", sent)
		}
		prefix := text[cursor : cursor+start]
		cursor += start + len(sent)

		ids, ranges := p.vocab.EncodeWithByteRanges(sent, false)

		if len(ids) == 0 {
			at.AppendSentence(prefix, nil)
			segments = append(segments, Segment{p.vocab.EOSID()})
			continue
		}

		for windowStart := 0; windowStart < len(ids); windowStart += p.maxLengthBreak {
			windowEnd := windowStart + p.maxLengthBreak
			if windowEnd > len(ids) {
				windowEnd = len(ids)
			}

			tokens := make([]string, windowEnd-windowStart)
			for i := windowStart; i < windowEnd; i++ {
				// Extend this token's range up to the next token's start so
				// tokens stay the contiguous byte substrings AppendSentence
				// requires; the gap belongs to whichever token precedes it.
				tokEnd := ranges[i].End
				if i+1 < windowEnd {
					tokEnd = ranges[i+1].Begin
				}
				tokens[i-windowStart] = sent[ranges[i].Begin:tokEnd]
			}

			windowPrefix := ""
			if windowStart == 0 {
				windowPrefix = prefix
			} else {
				// The gap between the previous window's last token and this
				// window's first token was not absorbed above (it crosses a
				// window/sentence boundary), so it becomes this window's prefix.
				windowPrefix = sent[ranges[windowStart-1].End:ranges[windowStart].Begin]
			}
			at.AppendSentence(windowPrefix, tokens)

			seg := make(Segment, windowEnd-windowStart, windowEnd-windowStart+1)
			for i := windowStart; i < windowEnd; i++ {
				seg[i-windowStart] = ids[i]
			}
			seg = append(seg, p.vocab.EOSID())
			segments = append(segments, seg)
		}
	}

	at.AppendEndingWhitespace(text[cursor:])
	return at, segments, nil
}
