// Package annotation implements byte-exact sentence and subword token
// boundary tracking over an owned text blob.
//
// Text is divided into alternating gaps and sentences:
//
//	gap sentence gap sentence gap
//
// There is always exactly one more gap than there are sentences. A gap is a
// single token spanning whatever whitespace sits between two sentences
// (including the leading and trailing whitespace of the whole document). A
// sentence is itself a sequence of subword tokens. See [AnnotatedText] for
// the string-owning wrapper built on top of [Annotation].
package annotation

// ByteRange is a half-open byte interval [Begin, End) into some text blob.
type ByteRange struct {
	Begin int
	End   int
}

// Size returns the number of bytes covered by r.
func (r ByteRange) Size() int { return r.End - r.Begin }

// Annotation expresses sentence and token boundary information as ranges of
// bytes in a string it does not itself own. See [AnnotatedText], which pairs
// an Annotation with the string it indexes.
type Annotation struct {
	// tokenBegin maps token index to the byte offset at which it begins.
	// Token i spans [tokenBegin[i], tokenBegin[i+1]). The slice is padded so
	// these indices are always valid, even past the last real token; its
	// length is therefore the token count plus one.
	tokenBegin []int

	// gap holds indices into tokenBegin identifying which tokens are gaps
	// (the whitespace between sentences). Gap g is the token at gap[g].
	// Sentence s spans tokens (gap[s], gap[s+1]), exclusive of both gap
	// tokens. len(gap) == numSentences + 1.
	gap []int
}

// NewAnnotation returns an Annotation for the empty string: one empty gap,
// zero sentences.
func NewAnnotation() Annotation {
	return Annotation{
		tokenBegin: []int{0, 0},
		gap:        []int{0},
	}
}

// NumSentences returns the number of sentences recorded so far.
func (a *Annotation) NumSentences() int { return len(a.gap) - 1 }

// NumWords returns the number of subword tokens in sentence s.
func (a *Annotation) NumWords(s int) int {
	return a.gap[s+1] - a.gap[s] - 1 // minus the gap token itself
}

// Word returns the byte range of word w (0-based) within sentence s.
func (a *Annotation) Word(s, w int) ByteRange {
	tokenIdx := a.gap[s] + 1 + w
	return ByteRange{a.tokenBegin[tokenIdx], a.tokenBegin[tokenIdx+1]}
}

// Sentence returns the byte range spanning every word of sentence s,
// excluding the surrounding gaps.
func (a *Annotation) Sentence(s int) ByteRange {
	return ByteRange{
		a.tokenBegin[a.gap[s]+1],
		a.tokenBegin[a.gap[s+1]],
	}
}

// Gap returns the byte range of gap g. g ranges over [0, NumSentences()].
func (a *Annotation) Gap(g int) ByteRange {
	tokenIdx := a.gap[g]
	return ByteRange{a.tokenBegin[tokenIdx], a.tokenBegin[tokenIdx+1]}
}
