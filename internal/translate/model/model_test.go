package model

import (
	"testing"

	"github.com/bergamot-go/bergamot/internal/translate/annotation"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

type stubSplitter struct{}

func (stubSplitter) Sentences(text string, _ textproc.SplitMode) []string { return []string{text} }

type stubVocab struct{}

func (stubVocab) EncodeWithByteRanges(s string, addEOS bool) ([]textproc.TokenID, []annotation.ByteRange) {
	return nil, nil
}
func (stubVocab) DecodeWithByteRanges(ids []textproc.TokenID) (string, []annotation.ByteRange) {
	return "", nil
}
func (stubVocab) EOSID() textproc.TokenID { return 0 }

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New(Config{MaxLengthBreak: 4, MiniBatchWords: 32, Replicas: 1}, stubSplitter{}, stubVocab{}, stubVocab{})
	if err == nil {
		t.Fatal("expected error for empty model name")
	}
}

func TestNewRejectsZeroReplicas(t *testing.T) {
	_, err := New(Config{Name: "en-de", MaxLengthBreak: 4, MiniBatchWords: 32}, stubSplitter{}, stubVocab{}, stubVocab{})
	if err == nil {
		t.Fatal("expected error for zero replicas")
	}
}

func TestNewPropagatesTextProcessorConstructionError(t *testing.T) {
	_, err := New(Config{Name: "en-de", MaxLengthBreak: 40, MiniBatchWords: 8, Replicas: 1}, stubSplitter{}, stubVocab{}, stubVocab{})
	if err == nil {
		t.Fatal("expected error when MaxLengthBreak exceeds MiniBatchWords")
	}
}

func TestNewAndPool(t *testing.T) {
	m, err := New(Config{Name: "en-de", MaxLengthBreak: 4, MiniBatchWords: 32, Replicas: 2}, stubSplitter{}, stubVocab{}, stubVocab{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
	if m.Config.Name != "en-de" {
		t.Fatalf("Config.Name = %q, want %q", m.Config.Name, "en-de")
	}
}
