package annotation

import "strings"

// AnnotatedText pairs an owned text blob with an [Annotation] indexing its
// sentences and subword tokens. Construction is append-only; once handed to
// a response it should be treated as immutable by callers.
type AnnotatedText struct {
	// Text is the blob of string content the annotation indexes.
	Text string

	annotation Annotation
}

// New returns an empty AnnotatedText, ready to be populated via
// [AnnotatedText.AppendSentence], [AnnotatedText.AppendEndingWhitespace], or
// [AnnotatedText.RecordExistingSentence].
func New() *AnnotatedText {
	return &AnnotatedText{annotation: NewAnnotation()}
}

// FromExisting wraps a string the caller already tokenized, starting with a
// single gap covering the whole text. Call [AnnotatedText.RecordExistingSentence]
// to break it into sentences.
func FromExisting(text string) *AnnotatedText {
	a := &AnnotatedText{Text: text, annotation: NewAnnotation()}
	// Treat the entire text as one gap; RecordExistingSentence will split it.
	a.annotation.tokenBegin[len(a.annotation.tokenBegin)-1] = len(text)
	return a
}

// NumSentences returns the number of sentences recorded so far.
func (a *AnnotatedText) NumSentences() int { return a.annotation.NumSentences() }

// NumWords returns the number of subword tokens in sentence s.
func (a *AnnotatedText) NumWords(s int) int { return a.annotation.NumWords(s) }

// WordRange returns the byte range of word w within sentence s.
func (a *AnnotatedText) WordRange(s, w int) ByteRange { return a.annotation.Word(s, w) }

// SentenceRange returns the byte range of sentence s, excluding surrounding gaps.
func (a *AnnotatedText) SentenceRange(s int) ByteRange { return a.annotation.Sentence(s) }

// GapRange returns the byte range of gap g, g in [0, NumSentences()].
func (a *AnnotatedText) GapRange(g int) ByteRange { return a.annotation.Gap(g) }

// Word returns the substring of word w within sentence s.
func (a *AnnotatedText) Word(s, w int) string { return a.slice(a.WordRange(s, w)) }

// Sentence returns the substring spanning sentence s.
func (a *AnnotatedText) Sentence(s int) string { return a.slice(a.SentenceRange(s)) }

// Gap returns the substring of gap g.
func (a *AnnotatedText) Gap(g int) string { return a.slice(a.GapRange(g)) }

func (a *AnnotatedText) slice(r ByteRange) string { return a.Text[r.Begin:r.End] }

// AppendSentence extends the trailing gap with prefix, then appends tokens
// as the next sentence, then opens a fresh empty gap after it. Tokens must be
// contiguous byte substrings of the text being appended (i.e. each token's
// bytes are adjacent to the previous one's, in document order) — this is the
// same contract as the source builder feeding tokenizer output directly.
func (a *AnnotatedText) AppendSentence(prefix string, tokens []string) {
	a.AppendEndingWhitespace(prefix)

	offset := len(a.Text)
	for _, tok := range tokens {
		offset += len(tok)
		a.annotation.tokenBegin = append(a.annotation.tokenBegin, offset)
	}
	if len(tokens) > 0 {
		a.Text += strings.Join(tokens, "")
	}

	// Open the gap that follows this sentence; extended later.
	a.annotation.gap = append(a.annotation.gap, len(a.annotation.tokenBegin)-1)
	a.annotation.tokenBegin = append(a.annotation.tokenBegin, offset)
}

// AppendEndingWhitespace extends the trailing gap by s. Safe to call
// repeatedly; each call extends the gap further.
func (a *AnnotatedText) AppendEndingWhitespace(s string) {
	a.Text += s
	a.annotation.tokenBegin[len(a.annotation.tokenBegin)-1] = len(a.Text)
}

// RecordExistingSentence declares that the text (constructed via
// [FromExisting]) already contains the given token byte ranges, starting at
// sentenceBegin. Used when the caller tokenized the text itself (e.g. after
// HTML tag restoration). Sentences must be recorded in left-to-right order.
func (a *AnnotatedText) RecordExistingSentence(tokens []ByteRange, sentenceBegin int) {
	// Clip off the sentinel end-of-text entry; it's restored at the end.
	tb := a.annotation.tokenBegin
	tb = tb[:len(tb)-1]

	for _, t := range tokens {
		tb = append(tb, t.Begin)
	}

	a.annotation.gap = append(a.annotation.gap, len(tb))
	if len(tokens) > 0 {
		tb = append(tb, tokens[len(tokens)-1].End)
	} else {
		tb = append(tb, sentenceBegin)
	}

	// Restore the sentinel.
	tb = append(tb, len(a.Text))
	a.annotation.tokenBegin = tb
}

// TransformFunc is called by [AnnotatedText.Apply] on each gap and word of
// the document, in order. r is the byte range being transformed, s is its
// current substring, and isLast is true only for the final trailing gap. The
// returned string replaces the original substring in the rebuilt text.
type TransformFunc func(r ByteRange, s string, isLast bool) string

// Apply produces a new AnnotatedText by calling fn on every gap and every
// word in document order; fn's return value replaces the original substring,
// and the new annotation is rebased onto the newly built string. This is the
// mechanism used for HTML markup reinsertion.
func (a *AnnotatedText) Apply(fn TransformFunc) *AnnotatedText {
	out := New()

	for s := 0; s < a.NumSentences(); s++ {
		prefix := fn(a.GapRange(s), a.Gap(s), false)

		tokens := make([]string, a.NumWords(s))
		for w := range tokens {
			tokens[w] = fn(a.WordRange(s, w), a.Word(s, w), false)
		}
		out.AppendSentence(prefix, tokens)
	}

	trailingGap := a.NumSentences()
	out.AppendEndingWhitespace(fn(a.GapRange(trailingGap), a.Gap(trailingGap), true))

	return out
}
