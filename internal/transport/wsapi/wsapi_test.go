package wsapi

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/bergamot-go/bergamot/internal/translate/annotation"
	"github.com/bergamot-go/bergamot/internal/translate/artifact"
	"github.com/bergamot-go/bergamot/internal/translate/batch"
	"github.com/bergamot-go/bergamot/internal/translate/model"
	"github.com/bergamot-go/bergamot/internal/translate/service"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// lineSplitter treats each newline-terminated, non-blank line as one sentence.
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

const testEOS textproc.TokenID = 0xFFFFFFFF

// packedVocab tokenizes on spaces, packing up to 4 ASCII bytes of each word
// directly into the TokenID so decode needs no external dictionary.
type packedVocab struct{}

func packWord(w string) textproc.TokenID {
	var b [4]byte
	copy(b[:], w)
	return textproc.TokenID(binary.BigEndian.Uint32(b[:]))
}

func unpackWord(id textproc.TokenID) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(id))
	return strings.TrimRight(string(b), "\x00")
}

func (packedVocab) EncodeWithByteRanges(s string, addEOS bool) ([]textproc.TokenID, []annotation.ByteRange) {
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
			ids = append(ids, packWord(s[start:i]))
			ranges = append(ranges, annotation.ByteRange{Begin: start, End: i})
		}
	}
	if addEOS {
		ids = append(ids, testEOS)
	}
	return ids, ranges
}

func (packedVocab) DecodeWithByteRanges(ids []textproc.TokenID) (string, []annotation.ByteRange) {
	var b strings.Builder
	var ranges []annotation.ByteRange
	first := true
	for _, id := range ids {
		if id == testEOS {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		start := b.Len()
		b.WriteString(unpackWord(id))
		ranges = append(ranges, annotation.ByteRange{Begin: start, End: b.Len()})
	}
	return b.String(), ranges
}

func (packedVocab) EOSID() textproc.TokenID { return testEOS }

// upperCollaborator "translates" by uppercasing each source word.
type upperCollaborator struct {
	mu    sync.Mutex
	calls int
}

func (c *upperCollaborator) TranslateBatch(_ context.Context, _ int, _ *model.TranslationModel, b *batch.Batch) ([]*artifact.Artifact, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	arts := make([]*artifact.Artifact, len(b.Sentences))
	for i, rs := range b.Sentences {
		seg := rs.Req.Segments[rs.Index]
		var targetIDs []textproc.TokenID
		for _, id := range seg {
			if id == testEOS {
				continue
			}
			targetIDs = append(targetIDs, packWord(strings.ToUpper(unpackWord(id))))
		}
		arts[i] = &artifact.Artifact{TargetIDs: targetIDs, SentenceScore: 0.9}
	}
	return arts, nil
}

func newTestModel(t *testing.T, name string) *model.TranslationModel {
	t.Helper()
	m, err := model.New(model.Config{
		Name:           name,
		MaxLengthBreak: 8,
		MiniBatchWords: 64,
		Replicas:       1,
	}, lineSplitter{}, packedVocab{}, packedVocab{})
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(2, &upperCollaborator{}, nil, nil)
	t.Cleanup(svc.Shutdown)

	m := newTestModel(t, "en-de")
	models := map[string]*model.TranslationModel{"en-de": m}
	lookup := func(name string) (*model.TranslationModel, bool) {
		mm, ok := models[name]
		return mm, ok
	}

	srv := httptest.NewServer(NewServer(svc, lookup, nil))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req Request) Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, raw, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestServeHTTP_TranslateSingleSentence(t *testing.T) {
	srv := startTestServer(t)
	conn := dial(t, srv)

	resp := roundTrip(t, conn, Request{Model: "en-de", Text: "hello world"})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
	if resp.Target != "HELLO WORLD" {
		t.Fatalf("Target = %q, want HELLO WORLD", resp.Target)
	}
}

func TestServeHTTP_UnknownModel(t *testing.T) {
	srv := startTestServer(t)
	conn := dial(t, srv)

	resp := roundTrip(t, conn, Request{Model: "xx-yy", Text: "hello"})
	if resp.Error == "" {
		t.Fatal("expected an error for an unknown model")
	}
}

func TestServeHTTP_QualityScores(t *testing.T) {
	srv := startTestServer(t)
	conn := dial(t, srv)

	resp := roundTrip(t, conn, Request{Model: "en-de", Text: "hi", QualityScores: true})
	if len(resp.QualityScores) != 1 {
		t.Fatalf("len(QualityScores) = %d, want 1", len(resp.QualityScores))
	}
}

func TestServeHTTP_MultipleRequestsOverOneConnection(t *testing.T) {
	srv := startTestServer(t)
	conn := dial(t, srv)

	first := roundTrip(t, conn, Request{Model: "en-de", Text: "a"})
	second := roundTrip(t, conn, Request{Model: "en-de", Text: "b"})

	if first.Target != "A" || second.Target != "B" {
		t.Fatalf("got %q, %q; want A, B", first.Target, second.Target)
	}
}
