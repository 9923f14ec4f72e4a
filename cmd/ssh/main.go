package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"chainsight/internal/advisor"
	"chainsight/internal/cache"
	"chainsight/internal/config"
	"chainsight/internal/db"
	"chainsight/internal/forecast"
	"chainsight/internal/provider"
	"chainsight/internal/repository"
	"chainsight/internal/service"
	"chainsight/internal/strategy"
	"chainsight/internal/tui"
	"chainsight/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

// ctxKey is a typed context key to avoid collisions.
type ctxKey string

const sshUserKey ctxKey = "ssh_user"

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer

	newCandleRepoFunc       = repository.NewCandleRepository
	newStrategyRepoFunc     = repository.NewStrategyRepository
	newMetricRepoFunc       = repository.NewMetricRepository
	newRunRepoFunc          = repository.NewRunRepository
	newSSHUserRepoFunc      = repository.NewSSHUserRepository
	newConversationRepoFunc = repository.NewConversationRepository

	newCryptoCompareProviderFunc = func(baseURL string, tracer trace.Tracer) service.PriceProvider {
		return provider.NewCryptoCompareProvider(baseURL, tracer)
	}
	newPriceServiceFunc    = service.NewPriceService
	newHistoryServiceFunc  = service.NewHistoryService
	newMetricsServiceFunc  = service.NewMetricsService
	newStrategyServiceFunc = service.NewStrategyService
	newForecasterFunc      = forecast.NewForecaster
	newOpenAIClientFunc    = advisor.NewOpenAIClient
	newAdvisorServiceFunc  = advisor.NewAdvisorService

	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

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

	// Create repositories
	candleRepo := newCandleRepoFunc(db.Pool, tracer)
	strategyRepo := newStrategyRepoFunc(db.Pool, tracer)
	metricRepo := newMetricRepoFunc(db.Pool, tracer)
	runRepo := newRunRepoFunc(db.Pool, tracer)
	sshUserRepo := newSSHUserRepoFunc(db.Pool, tracer)
	convRepo := newConversationRepoFunc(db.Pool, tracer)

	if db.Pool != nil {
		if err := sshUserRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

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

	// Create services
	ccProvider := newCryptoCompareProviderFunc(cfg.CryptoCompareBaseURL, tracer)
	priceService := newPriceServiceFunc(tracer, ccProvider, candleRepo, cache.Client)
	historyService := newHistoryServiceFunc(tracer, strategyRepo, cfg.HistoryCSVPath, cfg.SaveCSV)
	metricsService := newMetricsServiceFunc(tracer, nil, metricRepo, strategyRepo, candleRepo)
	strategyService := newStrategyServiceFunc(tracer, historyService, runRepo, nil, cache.Client, params)

	// Forecaster (optional), trained once at startup
	var forecaster *forecast.Forecaster
	if cfg.ForecastEnabled {
		forecaster = newForecasterFunc(tracer, historyService, params, cfg.ForecastHorizonDays, cfg.ForecastMinRows)
		go func() {
			if _, err := forecaster.Train(ctx); err != nil {
				log.Printf("forecast training error: %v", err)
			}
		}()
	}

	// Advisor (optional)
	var advisorSvc *advisor.AdvisorService
	if cfg.OpenAIAPIKey != "" {
		llmClient := newOpenAIClientFunc(cfg.OpenAIAPIKey)
		advisorSvc = newAdvisorServiceFunc(tracer, llmClient, priceService, strategyService,
			metricsService, convRepo, cfg.OpenAIModel, cfg.AdvisorMaxHistory)
		log.Println("SSH advisor service enabled")
	}

	// Build Wish SSH server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := gossh.FingerprintSHA256(key)
			user, err := sshUserRepo.FindByFingerprint(context.Background(), fingerprint)
			if err != nil || user == nil {
				log.Printf("SSH auth denied: fingerprint=%s err=%v", fingerprint, err)
				return false
			}
			ctx.SetValue(sshUserKey, user)
			_ = sshUserRepo.UpdateLastLogin(context.Background(), user.ID)
			log.Printf("SSH auth accepted: user=%s fingerprint=%s", user.Username, fingerprint)
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				user, _ := s.Context().Value(sshUserKey).(*repository.SSHUser)

				username := "unknown"
				var userID int64
				if user != nil {
					username = user.Username
					userID = user.ID
				}

				var advisorQ tui.AdvisorQuerier
				if advisorSvc != nil {
					advisorQ = advisorSvc
				}
				var forecastQ tui.Predictor
				if forecaster != nil {
					forecastQ = forecaster
				}

				svc := tui.Services{
					Prices:   priceService,
					Runs:     strategyService,
					Metrics:  metricsService,
					Forecast: forecastQ,
					Advisor:  advisorQ,
					UserID:   userID,
					Username: username,
				}

				model := tui.NewAppModel(svc)
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	cache.Close()
	log.Println("SSH server exited")
}
