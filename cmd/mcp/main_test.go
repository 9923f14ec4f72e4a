package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"chainsight/internal/config"
	"chainsight/internal/dataset"
	"chainsight/internal/domain"
	"chainsight/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

func TestMainBootstrapStdio(t *testing.T) {
	restore := stubMCPDeps("stdio")
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestMainBootstrapHTTP(t *testing.T) {
	restore := stubMCPDeps("http")
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubMCPDeps(transport string) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewProvider := newCryptoCompareProviderFunc
	origRunStdio := runStdioFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			MCPTransport:          transport,
			MCPHTTPBind:           "127.0.0.1",
			MCPHTTPPort:           8090,
			MCPRequestTimeoutSecs: 1,
			MCPRateLimitPerMin:    60,
		}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newCryptoCompareProviderFunc = func(string, trace.Tracer) service.PriceProvider { return nil }
	runStdioFunc = func(context.Context, *mcp.Server) error { return nil }
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newCryptoCompareProviderFunc = origNewProvider
		runStdioFunc = origRunStdio
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
	}
}

type stubPrices struct {
	snapshot *domain.PriceSnapshot
	err      error
}

func (s stubPrices) CurrentPrice(context.Context) (*domain.PriceSnapshot, error) {
	return s.snapshot, s.err
}

type stubRuns struct {
	run *domain.StrategyRun
	err error
}

func (s stubRuns) Latest(context.Context) (*domain.StrategyRun, error) {
	return s.run, s.err
}

type stubHistory struct {
	points []dataset.DataPoint
	err    error
}

func (s stubHistory) History(context.Context) ([]dataset.DataPoint, error) {
	return s.points, s.err
}

func dailyPoints(n int) []dataset.DataPoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]dataset.DataPoint, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, dataset.DataPoint{
			"date":  base.AddDate(0, 0, i).Format("2006-01-02"),
			"close": float64(40000 + i),
		})
	}
	return points
}

func testDeps() toolDeps {
	return toolDeps{
		prices:  stubPrices{snapshot: &domain.PriceSnapshot{PriceUSD: 65000}},
		runs:    stubRuns{run: &domain.StrategyRun{State: domain.StateLong, CombinedZScore: 0.61}},
		history: stubHistory{points: dailyPoints(40)},
		limiter: rate.NewLimiter(rate.Every(time.Second), 60),
		timeout: 5 * time.Second,
	}
}

func newTestSession(t *testing.T, deps toolDeps) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	server := buildMCPServer(deps)
	if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestCurrentPriceTool(t *testing.T) {
	session := newTestSession(t, testDeps())

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "current_price",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	text := toolText(t, res)
	if !strings.Contains(text, "\"price_usd\":65000") {
		t.Errorf("unexpected payload: %s", text)
	}
}

func TestStrategyStatusTool(t *testing.T) {
	session := newTestSession(t, testDeps())

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "strategy_status",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	text := toolText(t, res)
	if !strings.Contains(text, "\"state\":\"LONG\"") {
		t.Errorf("unexpected payload: %s", text)
	}
}

func TestStrategyStatusToolNoRun(t *testing.T) {
	deps := testDeps()
	deps.runs = stubRuns{}
	session := newTestSession(t, deps)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "strategy_status",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if text := toolText(t, res); text != "no strategy run recorded yet" {
		t.Errorf("unexpected payload: %s", text)
	}
}

func TestHistoryWindowTool(t *testing.T) {
	session := newTestSession(t, testDeps())

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "history_window",
		Arguments: map[string]any{"days": 10},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(toolText(t, res)), &records); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("expected 10 records, got %d", len(records))
	}
	if records[0]["date"] != "2024-01-31" {
		t.Errorf("expected window to start at 2024-01-31, got %v", records[0]["date"])
	}
}

func TestRequireBearer(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := requireBearer("token123", next)

	req := httptest.NewRequest("POST", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	req.Header.Set("Authorization", "Bearer token123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}
