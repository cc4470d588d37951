// Command translate-mcp exposes the translation fabric as an MCP server:
// "translate", "pivot", and "cache_stats" tools over stdio, for embedding
// the fabric into MCP-aware clients and language bindings.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bergamot-go/bergamot/internal/app"
	"github.com/bergamot-go/bergamot/internal/config"
	"github.com/bergamot-go/bergamot/internal/translate/request"
	"github.com/bergamot-go/bergamot/internal/translate/response"
	"github.com/bergamot-go/bergamot/internal/translate/textproc"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "translate-mcp: %v\n", err)
		return 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx := context.Background()

	reg := config.NewRegistry()
	app.RegisterDefaultProviders(reg)

	application, err := app.New(ctx, cfg, reg, slog.Default())
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	defer application.Shutdown(context.Background())

	srv := newToolServer(application)

	if err := srv.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		slog.Error("mcp server exited with error", "err", err)
		return 1
	}
	return 0
}

// toolServer bundles the MCP server with the App it dispatches tool calls
// into.
type toolServer struct {
	app *app.App
}

// newToolServer builds an *mcpsdk.Server with translate/pivot/cache_stats
// registered, backed by a.
func newToolServer(a *app.App) *mcpsdk.Server {
	t := &toolServer{app: a}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "bergamot-translate",
		Version: "1.0.0",
	}, nil)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "translate",
		Description: "Translate text with a single registered model (e.g. \"en-de\"). Returns the source and target text plus, optionally, per-sentence quality scores.",
	}, t.handleTranslate)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "pivot",
		Description: "Translate text through two models in sequence, pivoting through the first model's target language into the second model's target language.",
	}, t.handlePivot)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "cache_stats",
		Description: "Report hit/miss/eviction counters for the in-process exact translation cache.",
	}, t.handleCacheStats)

	return server
}

// TranslateInput is the input schema for the translate tool.
type TranslateInput struct {
	Model         string `json:"model" jsonschema:"the registered model name, e.g. en-de"`
	Text          string `json:"text" jsonschema:"the source text to translate"`
	QualityScores bool   `json:"quality_scores,omitempty" jsonschema:"include per-sentence quality estimates"`
}

// TranslateOutput is the output schema for the translate and pivot tools.
type TranslateOutput struct {
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	QualityScores []float32 `json:"quality_scores,omitempty"`
}

func (t *toolServer) handleTranslate(ctx context.Context, _ *mcpsdk.CallToolRequest, in TranslateInput) (*mcpsdk.CallToolResult, TranslateOutput, error) {
	m, ok := t.app.Lookup(in.Model)
	if !ok {
		return nil, TranslateOutput{}, fmt.Errorf("unknown model %q", in.Model)
	}

	resp, err := t.syncTranslate(ctx, func(cb func(*response.Response)) error {
		return t.app.Service.Translate(m, in.Text, textproc.OneSentencePerLine, request.Options{QualityScores: in.QualityScores}, cb)
	})
	if err != nil {
		return nil, TranslateOutput{}, err
	}
	return nil, TranslateOutput{
		Source:        resp.Source.Text,
		Target:        resp.Target.Text,
		QualityScores: resp.QualityScores,
	}, nil
}

// PivotInput is the input schema for the pivot tool.
type PivotInput struct {
	Model         string `json:"model" jsonschema:"the first-stage model name, e.g. en-de"`
	PivotModel    string `json:"pivot_model" jsonschema:"the second-stage model name, e.g. de-fr"`
	Text          string `json:"text" jsonschema:"the source text to translate"`
	QualityScores bool   `json:"quality_scores,omitempty" jsonschema:"include per-sentence quality estimates"`
}

func (t *toolServer) handlePivot(ctx context.Context, _ *mcpsdk.CallToolRequest, in PivotInput) (*mcpsdk.CallToolResult, TranslateOutput, error) {
	m, ok := t.app.Lookup(in.Model)
	if !ok {
		return nil, TranslateOutput{}, fmt.Errorf("unknown model %q", in.Model)
	}
	pm, ok := t.app.Lookup(in.PivotModel)
	if !ok {
		return nil, TranslateOutput{}, fmt.Errorf("unknown pivot model %q", in.PivotModel)
	}

	resp, err := t.syncTranslate(ctx, func(cb func(*response.Response)) error {
		return t.app.Service.Pivot(m, pm, in.Text, textproc.OneSentencePerLine, request.Options{QualityScores: in.QualityScores}, cb)
	})
	if err != nil {
		return nil, TranslateOutput{}, err
	}
	return nil, TranslateOutput{
		Source:        resp.Source.Text,
		Target:        resp.Target.Text,
		QualityScores: resp.QualityScores,
	}, nil
}

// CacheStatsOutput is the output schema for the cache_stats tool.
type CacheStatsOutput struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	EvictedRecords uint64 `json:"evicted_records"`
	ActiveRecords  uint64 `json:"active_records"`
	TotalSize      uint64 `json:"total_size"`
}

func (t *toolServer) handleCacheStats(_ context.Context, _ *mcpsdk.CallToolRequest, _ struct{}) (*mcpsdk.CallToolResult, CacheStatsOutput, error) {
	s := t.app.Service.CacheStats()
	return nil, CacheStatsOutput{
		Hits:           s.Hits,
		Misses:         s.Misses,
		EvictedRecords: s.EvictedRecords,
		ActiveRecords:  s.ActiveRecords,
		TotalSize:      s.TotalSize,
	}, nil
}

// syncTranslate bridges AsyncService's async callback contract into a
// blocking call, the same pattern internal/transport/wsapi uses for its
// WebSocket front end.
func (t *toolServer) syncTranslate(ctx context.Context, submit func(func(*response.Response)) error) (*response.Response, error) {
	out := make(chan *response.Response, 1)
	if err := submit(func(r *response.Response) { out <- r }); err != nil {
		return nil, err
	}
	select {
	case r := <-out:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
