// Package wordvocab provides a minimal, dynamic word-level Vocab.
//
// The fabric's real subword vocabulary is a trained artifact loaded by the
// native inference kernel — out of scope here (see internal/backend/llmengine's
// doc comment). wordvocab exists for deployments that drive translation
// through an LLM chat-completion backend instead: there, the "vocabulary"
// only has to carry text losslessly between textproc and the collaborator,
// never reproduce a trained model's token boundaries. It assigns each
// distinct whitespace-delimited word a TokenID the first time it is seen and
// remembers the mapping for the lifetime of the process.
package wordvocab

import (
	"strings"
	"sync"

	"github.com/bergamot-go/bergamot/internal/translate/annotation"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// eosID is the sentinel appended to every segment unless suppressed. It is
// reserved and never assigned to a real word.
const eosID textproc.TokenID = 1<<32 - 1

// Vocab is a process-lifetime, concurrency-safe word <-> TokenID dictionary.
// The zero value is not usable; construct with New.
type Vocab struct {
	mu    sync.RWMutex
	ids   map[string]textproc.TokenID
	words []string
}

// New returns an empty, ready-to-use Vocab.
func New() *Vocab {
	return &Vocab{ids: make(map[string]textproc.TokenID)}
}

// intern returns word's TokenID, assigning the next sequential id the first
// time word is seen.
func (v *Vocab) intern(word string) textproc.TokenID {
	v.mu.RLock()
	if id, ok := v.ids[word]; ok {
		v.mu.RUnlock()
		return id
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()
	if id, ok := v.ids[word]; ok {
		return id
	}
	id := textproc.TokenID(len(v.words))
	v.words = append(v.words, word)
	v.ids[word] = id
	return id
}

// lookup returns the word assigned to id, or "" if id is unknown (e.g. it
// was produced by a different Vocab instance).
func (v *Vocab) lookup(id textproc.TokenID) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if int(id) >= len(v.words) {
		return "", false
	}
	return v.words[id], true
}

// EncodeWithByteRanges implements textproc.Vocab, splitting s on whitespace.
func (v *Vocab) EncodeWithByteRanges(s string, addEOS bool) ([]textproc.TokenID, []annotation.ByteRange) {
	var ids []textproc.TokenID
	var ranges []annotation.ByteRange

	i := 0
	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		start := i
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
		if i > start {
			ids = append(ids, v.intern(s[start:i]))
			ranges = append(ranges, annotation.ByteRange{Begin: start, End: i})
		}
	}
	if addEOS {
		ids = append(ids, eosID)
	}
	return ids, ranges
}

// DecodeWithByteRanges implements textproc.Vocab, rendering ids back to
// space-joined text. Unknown ids (e.g. EOS, or ids minted by a different
// Vocab) are skipped.
func (v *Vocab) DecodeWithByteRanges(ids []textproc.TokenID) (string, []annotation.ByteRange) {
	var b strings.Builder
	var ranges []annotation.ByteRange
	first := true
	for _, id := range ids {
		if id == eosID {
			continue
		}
		word, ok := v.lookup(id)
		if !ok {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		start := b.Len()
		b.WriteString(word)
		ranges = append(ranges, annotation.ByteRange{Begin: start, End: b.Len()})
	}
	return b.String(), ranges
}

// EOSID implements textproc.Vocab.
func (v *Vocab) EOSID() textproc.TokenID { return eosID }

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

var _ textproc.Vocab = (*Vocab)(nil)
