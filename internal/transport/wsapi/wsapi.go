// Package wsapi is a browser-embeddable streaming front end for the
// translation fabric: one WebSocket connection per caller, one JSON request
// per text blob, one JSON response frame back per completed request. It
// never touches the batching/caching core directly — every request is a
// thin call into service.AsyncService, the only public surface the core
// exposes.
package wsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/bergamot-go/bergamot/internal/translate/model"
	"github.com/bergamot-go/bergamot/internal/translate/request"
	"github.com/bergamot-go/bergamot/internal/translate/response"
	"github.com/bergamot-go/bergamot/internal/translate/service"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

// Request is the wire shape of one translate/pivot call.
type Request struct {
	// Model names the registered model to translate with (e.g. "en-de").
	Model string `json:"model"`

	// PivotModel, when non-empty, requests a two-stage pivot translation
	// through Model's target language into PivotModel's target language.
	PivotModel string `json:"pivot_model,omitempty"`

	// Text is the source text to translate.
	Text string `json:"text"`

	// Mode is one of "line", "paragraph", or "wrapped". Defaults to "line".
	Mode string `json:"mode,omitempty"`

	// QualityScores requests per-sentence quality estimates in the response.
	QualityScores bool `json:"quality_scores,omitempty"`

	// Alignment is forwarded to the core as request.Options.Alignment. The
	// wire Response has no alignment field, so no matrices are sent back.
	Alignment bool `json:"alignment,omitempty"`
}

// Response is the wire shape of one completed translation.
type Response struct {
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	QualityScores []float32 `json:"quality_scores,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// ModelLookup resolves a model name to a ready TranslationModel.
type ModelLookup func(name string) (*model.TranslationModel, bool)

// Server upgrades incoming HTTP requests to WebSocket connections and
// dispatches each received frame into svc.
type Server struct {
	svc    *service.AsyncService
	lookup ModelLookup
	logger *slog.Logger
}

// NewServer returns a Server that serves translations using svc, resolving
// model names via lookup.
func NewServer(svc *service.AsyncService, lookup ModelLookup, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, lookup: lookup, logger: logger}
}

// ServeHTTP implements http.Handler. It accepts the WebSocket upgrade and
// serves requests from the connection until it is closed by the peer or the
// request context is cancelled.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("wsapi: accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	for {
		if err := s.serveOne(ctx, conn); err != nil {
			if isNormalClose(err) {
				return
			}
			s.logger.Warn("wsapi: connection closed with error", "error", err)
			return
		}
	}
}

// serveOne reads a single request frame, translates it, and writes the
// response frame. Returns the connection-level error, if any; per-request
// translation errors are instead carried in Response.Error.
func (s *Server) serveOne(ctx context.Context, conn *websocket.Conn) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return s.writeError(ctx, conn, fmt.Sprintf("invalid request: %v", err))
	}

	resp := s.translate(ctx, req)
	encoded, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("wsapi: marshal response: %w", err)
	}
	return conn.Write(ctx, websocket.MessageText, encoded)
}

// translate resolves the request's model(s) and runs a synchronous
// translate/pivot call against the async core, blocking until the callback
// fires or ctx is cancelled.
func (s *Server) translate(ctx context.Context, req Request) Response {
	m, ok := s.lookup(req.Model)
	if !ok {
		return Response{Error: fmt.Sprintf("unknown model %q", req.Model)}
	}

	opts := request.Options{
		QualityScores: req.QualityScores,
		Alignment:     req.Alignment,
	}
	mode := parseMode(req.Mode)

	out := make(chan *response.Response, 1)
	callback := func(r *response.Response) { out <- r }

	var submitErr error
	if req.PivotModel != "" {
		pm, ok := s.lookup(req.PivotModel)
		if !ok {
			return Response{Error: fmt.Sprintf("unknown pivot model %q", req.PivotModel)}
		}
		submitErr = s.svc.Pivot(m, pm, req.Text, mode, opts, callback)
	} else {
		submitErr = s.svc.Translate(m, req.Text, mode, opts, callback)
	}
	if submitErr != nil {
		return Response{Error: submitErr.Error()}
	}

	select {
	case r := <-out:
		return Response{
			Source:        r.Source.Text,
			Target:        r.Target.Text,
			QualityScores: r.QualityScores,
		}
	case <-ctx.Done():
		return Response{Error: ctx.Err().Error()}
	}
}

// writeError sends an error-only Response frame.
func (s *Server) writeError(ctx context.Context, conn *websocket.Conn, msg string) error {
	encoded, err := json.Marshal(Response{Error: msg})
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, encoded)
}

// parseMode maps the wire-level mode string to a textproc.SplitMode,
// defaulting to OneSentencePerLine.
func parseMode(mode string) textproc.SplitMode {
	switch mode {
	case "paragraph":
		return textproc.OneParagraphPerLine
	case "wrapped":
		return textproc.WrappedText
	default:
		return textproc.OneSentencePerLine
	}
}

// isNormalClose reports whether err represents an expected connection
// teardown rather than a failure worth logging loudly.
func isNormalClose(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var closeErr websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code == websocket.StatusNormalClosure || closeErr.Code == websocket.StatusGoingAway
	}
	return false
}
