package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainsight/internal/cache"
	"chainsight/internal/config"
	"chainsight/internal/dataset"
	"chainsight/internal/db"
	"chainsight/internal/domain"
	"chainsight/internal/provider"
	"chainsight/internal/repository"
	"chainsight/internal/service"
	"chainsight/internal/strategy"
	"chainsight/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer

	newCandleRepoFunc   = repository.NewCandleRepository
	newStrategyRepoFunc = repository.NewStrategyRepository
	newRunRepoFunc      = repository.NewRunRepository

	newCryptoCompareProviderFunc = func(baseURL string, tracer trace.Tracer) service.PriceProvider {
		return provider.NewCryptoCompareProvider(baseURL, tracer)
	}
	newPriceServiceFunc    = service.NewPriceService
	newHistoryServiceFunc  = service.NewHistoryService
	newStrategyServiceFunc = service.NewStrategyService

	runStdioFunc = func(ctx context.Context, s *mcp.Server) error {
		return s.Run(ctx, &mcp.StdioTransport{})
	}
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
)

type priceQuerier interface {
	CurrentPrice(ctx context.Context) (*domain.PriceSnapshot, error)
}

type runQuerier interface {
	Latest(ctx context.Context) (*domain.StrategyRun, error)
}

type historyQuerier interface {
	History(ctx context.Context) ([]dataset.DataPoint, error)
}

// toolDeps carries the read-only services the MCP tools answer from.
type toolDeps struct {
	prices  priceQuerier
	runs    runQuerier
	history historyQuerier
	limiter *rate.Limiter
	timeout time.Duration
}

type emptyArgs struct{}

type historyArgs struct {
	Days int `json:"days,omitempty" jsonschema:"trailing days of the dataset to return (default 30, max 365)"`
}

func buildMCPServer(deps toolDeps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "chainsight", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "current_price",
		Description: "Latest BTC price snapshot with 24h change and volume.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
		ctx, cancel := deps.begin(ctx)
		defer cancel()
		if err := deps.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
		snapshot, err := deps.prices.CurrentPrice(ctx)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(snapshot)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "strategy_status",
		Description: "Latest daily z-score strategy run: action, state, z-scores, and returns.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
		ctx, cancel := deps.begin(ctx)
		defer cancel()
		if err := deps.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
		run, err := deps.runs.Latest(ctx)
		if err != nil {
			return nil, nil, err
		}
		if run == nil {
			return textResult("no strategy run recorded yet"), nil, nil
		}
		return jsonResult(run)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "history_window",
		Description: "Trailing window of the daily BTC dataset: price, on-chain metrics, and z-scores.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args historyArgs) (*mcp.CallToolResult, any, error) {
		ctx, cancel := deps.begin(ctx)
		defer cancel()
		if err := deps.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
		days := args.Days
		if days <= 0 {
			days = 30
		}
		if days > 365 {
			days = 365
		}
		points, err := deps.history.History(ctx)
		if err != nil {
			return nil, nil, err
		}
		if len(points) > days {
			points = points[len(points)-days:]
		}
		return jsonResult(points)
	})

	return server
}

func (d toolDeps) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(b)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// requireBearer rejects HTTP requests without the configured bearer token.
func requireBearer(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Create repositories and services
	candleRepo := newCandleRepoFunc(db.Pool, tracer)
	strategyRepo := newStrategyRepoFunc(db.Pool, tracer)
	runRepo := newRunRepoFunc(db.Pool, tracer)

	params := strategy.Params{
		MAType:         cfg.StrategyMAType,
		MALength:       cfg.StrategyMALength,
		ZScoreLookback: cfg.StrategyLookback,
		LongThreshold:  cfg.StrategyLongThreshold,
		ShortThreshold: cfg.StrategyShortThreshold,
		CombineMethod:  cfg.StrategyCombineMethod,
		MVRVWeight:     cfg.StrategyMVRVWeight,
		NUPLWeight:     cfg.StrategyNUPLWeight,
		InitialCapital: cfg.StrategyInitialCapital,
	}

	ccProvider := newCryptoCompareProviderFunc(cfg.CryptoCompareBaseURL, tracer)
	priceService := newPriceServiceFunc(tracer, ccProvider, candleRepo, cache.Client)
	historyService := newHistoryServiceFunc(tracer, strategyRepo, cfg.HistoryCSVPath, cfg.SaveCSV)
	strategyService := newStrategyServiceFunc(tracer, historyService, runRepo, nil, cache.Client, params)

	perMin := cfg.MCPRateLimitPerMin
	if perMin <= 0 {
		perMin = 60
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)

	server := buildMCPServer(toolDeps{
		prices:  priceService,
		runs:    strategyService,
		history: historyService,
		limiter: limiter,
		timeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	if cfg.MCPTransport == "http" || cfg.MCPHTTPEnabled {
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
		var h http.Handler = handler
		if cfg.MCPAuthToken != "" {
			h = requireBearer(cfg.MCPAuthToken, handler)
		}

		addr := fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
		srv := &http.Server{Addr: addr, Handler: h}

		go func() {
			log.Printf("MCP server listening on %s", addr)
			if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
				log.Fatalf("listen: %s\n", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
		waitForSignalFunc(quit)
		log.Println("Shutting down MCP server...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
			log.Fatal("Server forced to shutdown:", err)
		}

		cache.Close()
		log.Println("MCP server exiting")
		return
	}

	log.Println("MCP server on stdio")
	if err := runStdioFunc(ctx, server); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	cache.Close()
}
