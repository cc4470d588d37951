package request

import (
	"testing"

	"github.com/bergamot-go/bergamot/internal/translate/annotation"
	"github.com/bergamot-go/bergamot/internal/translate/artifact"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

func TestNewEmptySegmentsCompletesImmediately(t *testing.T) {
	called := false
	r := New(1, "corr-1", annotation.New(), nil, Options{}, func(*Request) { called = true })
	if !called {
		t.Fatal("onComplete was not called for a request with zero sentences")
	}
	if got, want := r.NumSentences(), 0; got != want {
		t.Fatalf("NumSentences() = %d, want %d", got, want)
	}
}

func TestFulfillFiresOnLastSentence(t *testing.T) {
	segments := []textproc.Segment{{1, 2}, {3, 4, 5}}
	var completed *Request
	calls := 0
	r := New(1, "corr-1", annotation.New(), segments, Options{}, func(req *Request) {
		calls++
		completed = req
	})
	if calls != 0 {
		t.Fatalf("onComplete fired before any sentence was fulfilled")
	}

	r.Fulfill(0, &artifact.Artifact{SentenceScore: -1})
	if calls != 0 {
		t.Fatalf("onComplete fired after only one of two sentences completed")
	}

	r.Fulfill(1, &artifact.Artifact{SentenceScore: -2})
	if calls != 1 {
		t.Fatalf("onComplete called %d times, want 1", calls)
	}
	if completed != r {
		t.Fatal("onComplete received a different Request than expected")
	}
	if r.Slot(0).SentenceScore != -1 || r.Slot(1).SentenceScore != -2 {
		t.Fatal("slots were not populated correctly")
	}
}

func TestRequestSentenceLess(t *testing.T) {
	older := &Request{ID: 1, Segments: []textproc.Segment{{1}, {2}}}
	younger := &Request{ID: 2, Segments: []textproc.Segment{{1}}}

	cases := []struct {
		a, b RequestSentence
		want bool
	}{
		{RequestSentence{0, older}, RequestSentence{1, older}, true},
		{RequestSentence{1, older}, RequestSentence{0, older}, false},
		{RequestSentence{0, older}, RequestSentence{0, younger}, true},
		{RequestSentence{0, younger}, RequestSentence{0, older}, false},
	}
	for i, c := range cases {
		if got := c.a.Less(c.b); got != c.want {
			t.Errorf("case %d: Less() = %v, want %v", i, got, c.want)
		}
	}
}

func TestRequestSentenceTokenCount(t *testing.T) {
	r := &Request{ID: 1, Segments: []textproc.Segment{{1, 2, 3}, {4}}}
	rs := RequestSentence{Index: 0, Req: r}
	if got, want := rs.TokenCount(), 3; got != want {
		t.Fatalf("TokenCount() = %d, want %d", got, want)
	}
}

func TestIDGeneratorMonotonic(t *testing.T) {
	g := NewIDGenerator()
	first, corrA := g.Next()
	second, corrB := g.Next()
	if second <= first {
		t.Fatalf("sequence not monotonic: %d then %d", first, second)
	}
	if corrA == corrB {
		t.Fatal("expected distinct correlation ids")
	}
}
