package response

import (
	"testing"

	"github.com/bergamot-go/bergamot/internal/translate/annotation"
	"github.com/bergamot-go/bergamot/internal/translate/artifact"
	"github.com/bergamot-go/bergamot/internal/translate/request"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// wordVocab decodes each TokenID as a single word from a fixed dictionary,
// joined by single spaces.
type wordVocab map[textproc.TokenID]string

func (v wordVocab) EncodeWithByteRanges(string, bool) ([]textproc.TokenID, []annotation.ByteRange) {
	return nil, nil
}

func (v wordVocab) DecodeWithByteRanges(ids []textproc.TokenID) (string, []annotation.ByteRange) {
	text := ""
	ranges := make([]annotation.ByteRange, len(ids))
	for i, id := range ids {
		if i > 0 {
			text += " "
		}
		start := len(text)
		text += v[id]
		ranges[i] = annotation.ByteRange{Begin: start, End: len(text)}
	}
	return text, ranges
}

func (v wordVocab) EOSID() textproc.TokenID { return 9999 }

func buildSource(t *testing.T, sentences ...string) *annotation.AnnotatedText {
	t.Helper()
	at := annotation.New()
	for i, s := range sentences {
		prefix := ""
		if i > 0 {
			prefix = " "
		}
		words := []string{}
		start := 0
		for j := 0; j <= len(s); j++ {
			if j == len(s) || s[j] == ' ' {
				if j > start {
					words = append(words, s[start:j])
				}
				start = j + 1
			}
		}
		at.AppendSentence(prefix, words)
	}
	at.AppendEndingWhitespace("\n")
	return at
}

func TestBuildFaithfulConcatenation(t *testing.T) {
	src := buildSource(t, "A.", "B.")
	vocab := wordVocab{1: "X.", 2: "Y."}

	var built *Response
	req := request.New(1, "c1", src, []textproc.Segment{{1}, {2}}, request.Options{
		ConcatStrategy: request.ConcatFaithful,
	}, func(r *request.Request) {
		built = Build(r, vocab)
	})

	req.Fulfill(0, &artifact.Artifact{TargetIDs: []textproc.TokenID{1}})
	req.Fulfill(1, &artifact.Artifact{TargetIDs: []textproc.TokenID{2}})

	if built == nil {
		t.Fatal("Build callback never fired")
	}
	if got, want := built.Target.Text, "X. Y.\n"; got != want {
		t.Fatalf("Target.Text = %q, want %q", got, want)
	}
	if got, want := built.NumSentences(), 2; got != want {
		t.Fatalf("NumSentences() = %d, want %d", got, want)
	}
}

func TestBuildSpaceConcatenation(t *testing.T) {
	src := buildSource(t, "A.", "B.")
	vocab := wordVocab{1: "X.", 2: "Y."}

	var built *Response
	req := request.New(1, "c1", src, []textproc.Segment{{1}, {2}}, request.Options{
		ConcatStrategy: request.ConcatSpace,
	}, func(r *request.Request) {
		built = Build(r, vocab)
	})
	req.Fulfill(0, &artifact.Artifact{TargetIDs: []textproc.TokenID{1}})
	req.Fulfill(1, &artifact.Artifact{TargetIDs: []textproc.TokenID{2}})

	if got, want := built.Target.Text, "X. Y."; got != want {
		t.Fatalf("Target.Text = %q, want %q", got, want)
	}
}

func TestBuildQualityScoresAndAlignment(t *testing.T) {
	src := buildSource(t, "A.")
	vocab := wordVocab{1: "X."}

	var built *Response
	req := request.New(1, "c1", src, []textproc.Segment{{1}}, request.Options{
		QualityScores: true,
		Alignment:     true,
	}, func(r *request.Request) {
		built = Build(r, vocab)
	})
	req.Fulfill(0, &artifact.Artifact{
		TargetIDs:     []textproc.TokenID{1},
		SentenceScore: -0.5,
		Alignment:     artifact.Alignment{Rows: 1, Cols: 1, Data: []float32{1}},
	})

	if len(built.QualityScores) != 1 || built.QualityScores[0] != -0.5 {
		t.Fatalf("QualityScores = %v, want [-0.5]", built.QualityScores)
	}
	if len(built.Alignments) != 1 {
		t.Fatalf("Alignments length = %d, want 1", len(built.Alignments))
	}
}

func TestBuildEmptyRequest(t *testing.T) {
	src := annotation.New()
	vocab := wordVocab{}

	var built *Response
	request.New(1, "c1", src, nil, request.Options{}, func(r *request.Request) {
		built = Build(r, vocab)
	})

	if built == nil {
		t.Fatal("Build callback never fired for empty request")
	}
	if got, want := built.Target.Text, ""; got != want {
		t.Fatalf("Target.Text = %q, want %q", got, want)
	}
	if got, want := built.NumSentences(), 0; got != want {
		t.Fatalf("NumSentences() = %d, want %d", got, want)
	}
}
