package llmengine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bergamot-go/bergamot/internal/resilience"
	"github.com/bergamot-go/bergamot/internal/translate/annotation"
	"github.com/bergamot-go/bergamot/internal/translate/batch"
	"github.com/bergamot-go/bergamot/internal/translate/model"
	"github.com/bergamot-go/bergamot/internal/translate/request"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
	"github.com/bergamot-go/bergamot/pkg/provider/llm"
	"github.com/bergamot-go/bergamot/pkg/provider/llm/mock"
	"github.com/bergamot-go/bergamot/pkg/types"
)

type lineSplitter struct{}

func (lineSplitter) Sentences(text string, _ textproc.SplitMode) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// wordVocab tokenizes on spaces, one TokenID per distinct word seen so far.
type wordVocab struct {
	byWord map[string]textproc.TokenID
	byID   map[textproc.TokenID]string
	next   textproc.TokenID
}

func newWordVocab() *wordVocab {
	return &wordVocab{byWord: map[string]textproc.TokenID{}, byID: map[textproc.TokenID]string{}}
}

const vocabEOS textproc.TokenID = 0xFFFF

func (v *wordVocab) idFor(w string) textproc.TokenID {
	if id, ok := v.byWord[w]; ok {
		return id
	}
	v.next++
	v.byWord[w] = v.next
	v.byID[v.next] = w
	return v.next
}

func (v *wordVocab) EncodeWithByteRanges(s string, addEOS bool) ([]textproc.TokenID, []annotation.ByteRange) {
	var ids []textproc.TokenID
	var ranges []annotation.ByteRange
	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		start := i
		for i < len(s) && s[i] != ' ' {
			i++
		}
		if i > start {
			ids = append(ids, v.idFor(s[start:i]))
			ranges = append(ranges, annotation.ByteRange{Begin: start, End: i})
		}
	}
	if addEOS {
		ids = append(ids, vocabEOS)
	}
	return ids, ranges
}

func (v *wordVocab) DecodeWithByteRanges(ids []textproc.TokenID) (string, []annotation.ByteRange) {
	var b strings.Builder
	var ranges []annotation.ByteRange
	first := true
	for _, id := range ids {
		if id == vocabEOS {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		start := b.Len()
		b.WriteString(v.byID[id])
		ranges = append(ranges, annotation.ByteRange{Begin: start, End: b.Len()})
	}
	return b.String(), ranges
}

func (v *wordVocab) EOSID() textproc.TokenID { return vocabEOS }

func newTestModel(t *testing.T, name string) (*model.TranslationModel, *wordVocab, *wordVocab) {
	t.Helper()
	src, tgt := newWordVocab(), newWordVocab()
	m, err := model.New(model.Config{
		Name:           name,
		MaxLengthBreak: 8,
		MiniBatchWords: 64,
		Replicas:       1,
	}, lineSplitter{}, src, tgt)
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m, src, tgt
}

func newBatch(t *testing.T, m *model.TranslationModel, texts ...string) *batch.Batch {
	t.Helper()
	b := &batch.Batch{ID: 1}
	for _, text := range texts {
		_, segs, err := m.Processor.Process(text, textproc.OneSentencePerLine)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}
		req := request.New(1, "c1", annotation.New(), segs, request.Options{}, func(*request.Request) {})
		for i := range segs {
			b.Sentences = append(b.Sentences, request.RequestSentence{Index: i, Req: req})
		}
	}
	return b
}

func testBreakerConfig() resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{Name: "test", MaxFailures: 3, ResetTimeout: time.Millisecond, HalfOpenMax: 1}
}

func TestTranslateBatchDecodesPromptsAndEncodesResponses(t *testing.T) {
	m, _, tgt := newTestModel(t, "en-de")
	b := newBatch(t, m, "hello world", "goodbye")

	var seenSystemPrompts []string

	fake := &recordingProvider{
		response: func(req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			seenSystemPrompts = append(seenSystemPrompts, req.SystemPrompt)
			return &llm.CompletionResponse{Content: strings.ToUpper(req.Messages[0].Content)}, nil
		},
	}

	c := New(fake, testBreakerConfig())
	arts, err := c.TranslateBatch(context.Background(), 0, m, b)
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if len(arts) != 2 {
		t.Fatalf("len(arts) = %d, want 2", len(arts))
	}

	for _, sp := range seenSystemPrompts {
		if !strings.Contains(sp, "en") || !strings.Contains(sp, "de") {
			t.Errorf("system prompt %q missing language pair", sp)
		}
	}

	text0, _ := tgt.DecodeWithByteRanges(arts[0].TargetIDs)
	if got, want := text0, "HELLO WORLD"; got != want {
		t.Errorf("arts[0] decoded = %q, want %q", got, want)
	}
	text1, _ := tgt.DecodeWithByteRanges(arts[1].TargetIDs)
	if got, want := text1, "GOODBYE"; got != want {
		t.Errorf("arts[1] decoded = %q, want %q", got, want)
	}
}

func TestTranslateBatchFailsWholeBatchOnProviderError(t *testing.T) {
	m, _, _ := newTestModel(t, "en-de")
	b := newBatch(t, m, "a", "b", "c")

	fake := &recordingProvider{
		response: func(req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			if req.Messages[0].Content == "b" {
				return nil, errors.New("provider exploded")
			}
			return &llm.CompletionResponse{Content: req.Messages[0].Content}, nil
		},
	}

	c := New(fake, testBreakerConfig())
	_, err := c.TranslateBatch(context.Background(), 0, m, b)
	if err == nil {
		t.Fatal("expected an error when one sentence's completion fails")
	}
}

func TestLanguagePairParsing(t *testing.T) {
	cases := map[string][2]string{
		"en-de":   {"en", "de"},
		"en":      {"", ""},
		"-de":     {"", ""},
		"en-":     {"", ""},
		"en-de-x": {"en", "de-x"},
	}
	for name, want := range cases {
		src, tgt := languagePair(name)
		if src != want[0] || tgt != want[1] {
			t.Errorf("languagePair(%q) = (%q, %q), want (%q, %q)", name, src, tgt, want[0], want[1])
		}
	}
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	m, _, _ := newTestModel(t, "en-de")

	provider := &mock.Provider{CompleteErr: errors.New("backend down")}
	c := New(provider, resilience.CircuitBreakerConfig{Name: "test", MaxFailures: 2, ResetTimeout: time.Hour, HalfOpenMax: 1})

	for i := 0; i < 2; i++ {
		b := newBatch(t, m, "x")
		if _, err := c.TranslateBatch(context.Background(), 0, m, b); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}
	callsBeforeOpen := len(provider.CompleteCalls)

	b := newBatch(t, m, "x")
	if _, err := c.TranslateBatch(context.Background(), 0, m, b); err == nil {
		t.Fatal("expected error once breaker is open")
	}
	if got := len(provider.CompleteCalls); got != callsBeforeOpen {
		t.Fatalf("Complete was called %d times after breaker opened, want %d (breaker should short-circuit)", got, callsBeforeOpen)
	}
}

// recordingProvider is a minimal llm.Provider test double whose Complete
// response depends on the request, which mock.Provider cannot express.
type recordingProvider struct {
	response func(llm.CompletionRequest) (*llm.CompletionResponse, error)
}

func (p *recordingProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return p.response(req)
}

func (p *recordingProvider) StreamCompletion(context.Context, llm.CompletionRequest) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk)
	close(ch)
	return ch, nil
}

func (p *recordingProvider) CountTokens(messages []types.Message) (int, error) {
	return len(messages), nil
}

func (p *recordingProvider) Capabilities() types.ModelCapabilities {
	return types.ModelCapabilities{}
}
