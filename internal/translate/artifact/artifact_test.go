package artifact

import (
	"testing"

	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

func TestRoundTrip(t *testing.T) {
	a := &Artifact{
		TargetIDs:    []textproc.TokenID{4, 9, 2, 1},
		WordLogProbs: []float32{-0.1, -2.5, -0.02, -1.0},
		Alignment: Alignment{
			Rows: 4,
			Cols: 3,
			Data: []float32{0.9, 0.05, 0.05, 0.1, 0.8, 0.1, 0.2, 0.2, 0.6, 0.0, 0.0, 1.0},
		},
		SentenceScore: -3.14,
	}

	buf := a.ToBytes()
	got, err := FromBytes(buf)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !got.Equal(a) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, a)
	}
}

func TestRoundTripEmpty(t *testing.T) {
	a := &Artifact{}
	buf := a.ToBytes()
	got, err := FromBytes(buf)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !got.Equal(a) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, a)
	}
}

func TestFromBytesRejectsTruncated(t *testing.T) {
	a := &Artifact{TargetIDs: []textproc.TokenID{1, 2, 3}}
	buf := a.ToBytes()
	if _, err := FromBytes(buf[:len(buf)-2]); err == nil {
		t.Fatal("expected error decoding truncated buffer")
	}
}

func TestFromBytesRejectsTrailingGarbage(t *testing.T) {
	a := &Artifact{TargetIDs: []textproc.TokenID{1}}
	buf := append(a.ToBytes(), 0xFF, 0xFF)
	if _, err := FromBytes(buf); err == nil {
		t.Fatal("expected error decoding buffer with trailing bytes")
	}
}

func TestAlignmentAt(t *testing.T) {
	al := Alignment{Rows: 2, Cols: 2, Data: []float32{1, 2, 3, 4}}
	if got, want := al.At(1, 0), float32(3); got != want {
		t.Fatalf("At(1,0) = %v, want %v", got, want)
	}
}
