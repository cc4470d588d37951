// Package textproc splits raw text into sentences and subword token
// segments, wrapping over-long sentences so no segment alone can exceed a
// batch's token budget.
package textproc

import "github.com/bergamot-go/bergamot/internal/translate/annotation"

// TokenID identifies one subword vocabulary entry.
type TokenID uint32

// Segment is the ordered token-id sequence for one (possibly wrapped)
// sentence, ending in an EOS token unless the caller explicitly suppressed
// it.
type Segment []TokenID

// SplitMode selects how the sentence splitter collaborator breaks a text
// blob into sentences.
type SplitMode int

const (
	// OneSentencePerLine treats each input line as exactly one sentence.
	OneSentencePerLine SplitMode = iota
	// OneParagraphPerLine treats each input line as one paragraph, itself
	// split into sentences by the splitter's own heuristic.
	OneParagraphPerLine
	// WrappedText runs the splitter's general-purpose heuristic over the
	// whole blob, ignoring line breaks as sentence boundaries.
	WrappedText
)

// Splitter is the required sentence-splitter collaborator (§6.2). Sentences
// returned must be substrings of text; the fabric never invents bytes.
type Splitter interface {
	// Sentences yields the sentence substrings of text in document order,
	// honoring mode. Implementations own the heuristic; the fabric only
	// consumes boundaries.
	Sentences(text string, mode SplitMode) []string
}

// Vocab is the required subword tokenizer/vocabulary collaborator (§6.3).
type Vocab interface {
	// EncodeWithByteRanges tokenizes s into subword ids, returning each
	// token's byte range within s. If addEOS, an EOS id is appended to ids;
	// no byte range is added for it.
	EncodeWithByteRanges(s string, addEOS bool) (ids []TokenID, ranges []annotation.ByteRange)

	// DecodeWithByteRanges renders ids back to text, returning the byte
	// range of each decoded token within the returned string.
	DecodeWithByteRanges(ids []TokenID) (text string, ranges []annotation.ByteRange)

	// EOSID returns the sentinel token id appended to every segment unless
	// the caller explicitly suppresses it.
	EOSID() TokenID
}
