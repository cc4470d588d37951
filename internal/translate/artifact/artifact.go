// Package artifact defines the per-sentence translation output produced by
// the inference collaborator, along with its cache wire format.
package artifact

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// Alignment is a flat, row-major soft-alignment matrix: Data has
// Rows*Cols entries, row r covering Data[r*Cols : (r+1)*Cols]. Rows is the
// target sentence length, Cols the source sentence length. Each row is
// row-stochastic (sums to ~1) per the inference collaborator's contract.
//
// A flat slice is used instead of a nested [][]float32 to match the cache's
// serialized layout and avoid the allocation churn of a jagged matrix, per
// the soft-alignment-matrix redesign.
type Alignment struct {
	Rows int
	Cols int
	Data []float32
}

// At returns the alignment weight for target position r, source position c.
func (a Alignment) At(r, c int) float32 { return a.Data[r*a.Cols+c] }

// Artifact is the inference collaborator's output for one source sentence:
// target token ids, per-word log-probabilities, a soft alignment matrix, and
// a sentence-level score.
type Artifact struct {
	TargetIDs     []textproc.TokenID
	WordLogProbs  []float32
	Alignment     Alignment
	SentenceScore float32
}

// Equal reports whether a and other carry identical content. Used to verify
// the cache round-trip invariant from_bytes(to_bytes(x)) == x.
func (a *Artifact) Equal(other *Artifact) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.SentenceScore != other.SentenceScore {
		return false
	}
	if a.Alignment.Rows != other.Alignment.Rows || a.Alignment.Cols != other.Alignment.Cols {
		return false
	}
	if len(a.TargetIDs) != len(other.TargetIDs) || len(a.WordLogProbs) != len(other.WordLogProbs) || len(a.Alignment.Data) != len(other.Alignment.Data) {
		return false
	}
	for i := range a.TargetIDs {
		if a.TargetIDs[i] != other.TargetIDs[i] {
			return false
		}
	}
	for i := range a.WordLogProbs {
		if a.WordLogProbs[i] != other.WordLogProbs[i] {
			return false
		}
	}
	for i := range a.Alignment.Data {
		if a.Alignment.Data[i] != other.Alignment.Data[i] {
			return false
		}
	}
	return true
}

// ToBytes serializes a into the cache's contiguous wire format:
// [words | soft_alignment | sentence_score | word_scores], each vector
// length-prefixed with a uint32 element count.
func (a *Artifact) ToBytes() []byte {
	size := 4 + len(a.TargetIDs)*4 +
		8 + 4 + len(a.Alignment.Data)*4 + // rows, cols as uint32 each, then length-prefixed data
		4 + // sentence score
		4 + len(a.WordLogProbs)*4

	buf := make([]byte, size)
	off := 0

	off = putUint32Slice(buf, off, idsToUint32(a.TargetIDs))

	binary.LittleEndian.PutUint32(buf[off:], uint32(a.Alignment.Rows))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], uint32(a.Alignment.Cols))
	off += 4
	off = putFloat32Slice(buf, off, a.Alignment.Data)

	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(a.SentenceScore))
	off += 4

	off = putFloat32Slice(buf, off, a.WordLogProbs)

	return buf[:off]
}

// FromBytes reconstructs an Artifact from the format written by ToBytes.
// Returns an error if buf is truncated or internally inconsistent; per the
// cache-consistency error policy, callers must treat that as a cache miss,
// never a user-visible error.
func FromBytes(buf []byte) (*Artifact, error) {
	var a Artifact
	off := 0

	ids, n, err := readUint32Slice(buf, off)
	if err != nil {
		return nil, fmt.Errorf("artifact: target ids: %w", err)
	}
	a.TargetIDs = uint32ToIDs(ids)
	off = n

	rows, cols, n, err := readDims(buf, off)
	if err != nil {
		return nil, fmt.Errorf("artifact: alignment dims: %w", err)
	}
	off = n

	data, n, err := readFloat32Slice(buf, off)
	if err != nil {
		return nil, fmt.Errorf("artifact: alignment data: %w", err)
	}
	off = n
	if len(data) != rows*cols {
		return nil, fmt.Errorf("artifact: alignment data length %d does not match %dx%d", len(data), rows, cols)
	}
	a.Alignment = Alignment{Rows: rows, Cols: cols, Data: data}

	if off+4 > len(buf) {
		return nil, fmt.Errorf("artifact: truncated before sentence score")
	}
	a.SentenceScore = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	off += 4

	wordScores, n, err := readFloat32Slice(buf, off)
	if err != nil {
		return nil, fmt.Errorf("artifact: word scores: %w", err)
	}
	off = n
	a.WordLogProbs = wordScores

	if off != len(buf) {
		return nil, fmt.Errorf("artifact: %d trailing bytes after well-formed artifact", len(buf)-off)
	}

	return &a, nil
}

func idsToUint32(ids []textproc.TokenID) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

func uint32ToIDs(xs []uint32) []textproc.TokenID {
	if len(xs) == 0 {
		return nil
	}
	out := make([]textproc.TokenID, len(xs))
	for i, x := range xs {
		out[i] = textproc.TokenID(x)
	}
	return out
}

func putUint32Slice(buf []byte, off int, xs []uint32) int {
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(xs)))
	off += 4
	for _, x := range xs {
		binary.LittleEndian.PutUint32(buf[off:], x)
		off += 4
	}
	return off
}

func putFloat32Slice(buf []byte, off int, xs []float32) int {
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(xs)))
	off += 4
	for _, x := range xs {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(x))
		off += 4
	}
	return off
}

func readUint32Slice(buf []byte, off int) ([]uint32, int, error) {
	if off+4 > len(buf) {
		return nil, 0, fmt.Errorf("truncated length prefix at offset %d", off)
	}
	n := int(binary.LittleEndian.Uint32(buf[off:]))
	off += 4
	if n < 0 || off+n*4 > len(buf) {
		return nil, 0, fmt.Errorf("truncated slice of %d elements at offset %d", n, off)
	}
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(buf[off:])
		off += 4
	}
	return out, off, nil
}

func readFloat32Slice(buf []byte, off int) ([]float32, int, error) {
	xs, n, err := readUint32Slice(buf, off)
	if err != nil {
		return nil, 0, err
	}
	if len(xs) == 0 {
		return nil, n, nil
	}
	out := make([]float32, len(xs))
	for i, x := range xs {
		out[i] = math.Float32frombits(x)
	}
	return out, n, nil
}

func readDims(buf []byte, off int) (rows, cols, next int, err error) {
	if off+8 > len(buf) {
		return 0, 0, 0, fmt.Errorf("truncated dims at offset %d", off)
	}
	rows = int(binary.LittleEndian.Uint32(buf[off:]))
	cols = int(binary.LittleEndian.Uint32(buf[off+4:]))
	return rows, cols, off + 8, nil
}
