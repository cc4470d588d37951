// Package request models one in-flight translation: its source text, its
// per-sentence segments, and the completion bookkeeping that fires a
// callback once every sentence has been translated.
package request

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/bergamot-go/bergamot/internal/translate/annotation"
	"github.com/bergamot-go/bergamot/internal/translate/artifact"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// ConcatStrategy controls how ResponseBuilder joins translated sentences.
type ConcatStrategy int

const (
	// ConcatFaithful copies the source's inter-sentence gaps verbatim,
	// preserving the original spacing and newline structure.
	ConcatFaithful ConcatStrategy = iota
	// ConcatSpace joins sentences with a single space, ignoring source gaps.
	ConcatSpace
)

// Options selects what a Response carries beyond the translated text.
type Options struct {
	QualityScores      bool
	Alignment          bool
	AlignmentThreshold float32
	HTML               bool
	SentenceMappings   bool
	ConcatStrategy     ConcatStrategy
}

// IDGenerator hands out monotonically increasing request ids plus a UUID for
// external correlation (log lines, trace spans). The sequence number, not
// the UUID, is what establishes priority ordering between requests.
type IDGenerator struct {
	seq atomic.Uint64
}

// NewIDGenerator returns a ready-to-use generator.
func NewIDGenerator() *IDGenerator { return &IDGenerator{} }

// Next returns the next sequence number and a fresh correlation UUID.
func (g *IDGenerator) Next() (seq uint64, correlationID string) {
	return g.seq.Add(1), uuid.NewString()
}

// Request owns one source text for its lifetime: its annotated
// segmentation, one Segment per (possibly wrapped) sentence, and a slot per
// sentence that receives that sentence's translation artifact. It is
// immutable except for slot population and the pending counter.
type Request struct {
	// ID is the monotonic sequence number establishing priority order.
	ID uint64
	// CorrelationID is an opaque identifier for logs and traces.
	CorrelationID string

	Source   *annotation.AnnotatedText
	Segments []textproc.Segment
	Options  Options

	slots      []*artifact.Artifact
	pending    atomic.Int64
	onComplete func(*Request)
}

// New constructs a Request for the given segments. onComplete fires exactly
// once, when the last sentence's slot is filled — synchronously, inline,
// from whichever goroutine fills that slot (worker or cache prefill). If
// segments is empty (the empty-input case), onComplete fires immediately,
// inline, before New returns.
func New(id uint64, correlationID string, source *annotation.AnnotatedText, segments []textproc.Segment, opts Options, onComplete func(*Request)) *Request {
	r := &Request{
		ID:            id,
		CorrelationID: correlationID,
		Source:        source,
		Segments:      segments,
		Options:       opts,
		slots:         make([]*artifact.Artifact, len(segments)),
		onComplete:    onComplete,
	}
	r.pending.Store(int64(len(segments)))
	if len(segments) == 0 {
		onComplete(r)
	}
	return r
}

// NumSentences returns the number of sentence slots this request owns.
func (r *Request) NumSentences() int { return len(r.Segments) }

// Slot returns the artifact filled for sentence idx, or nil if it has not
// completed yet.
func (r *Request) Slot(idx int) *artifact.Artifact { return r.slots[idx] }

// Fulfill records art as the translation of sentence idx and decrements the
// pending counter. When the counter reaches zero, onComplete fires with this
// Request. Safe to call concurrently from multiple workers for distinct
// indices, and from the cache-prefill path before any sentence is enqueued.
func (r *Request) Fulfill(idx int, art *artifact.Artifact) {
	r.slots[idx] = art
	if r.pending.Add(-1) == 0 {
		r.onComplete(r)
	}
}

// RequestSentence is a lightweight (sentence index, request handle) pair —
// the element type queued in a BatchingPool. Its natural order is by
// request id, then by sentence index: older requests and earlier sentences
// take priority.
type RequestSentence struct {
	Index int
	Req   *Request
}

// TokenCount returns the token length of this sentence's Segment, used for
// length-bucketing in the batching pool.
func (rs RequestSentence) TokenCount() int { return len(rs.Req.Segments[rs.Index]) }

// Less reports whether rs sorts before other: by request id, then by
// sentence index.
func (rs RequestSentence) Less(other RequestSentence) bool {
	if rs.Req.ID != other.Req.ID {
		return rs.Req.ID < other.Req.ID
	}
	return rs.Index < other.Index
}

// Fulfill delivers art to this sentence's slot on its owning request.
func (rs RequestSentence) Fulfill(art *artifact.Artifact) {
	rs.Req.Fulfill(rs.Index, art)
}
