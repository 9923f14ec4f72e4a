package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainsight/internal/advisor"
	"chainsight/internal/anomaly"
	"chainsight/internal/bot"
	"chainsight/internal/cache"
	"chainsight/internal/config"
	"chainsight/internal/db"
	"chainsight/internal/forecast"
	"chainsight/internal/handler"
	"chainsight/internal/job"
	"chainsight/internal/provider"
	"chainsight/internal/repository"
	"chainsight/internal/service"
	"chainsight/internal/strategy"
	"chainsight/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "chainsight/docs"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer

	newCandleRepoFunc       = repository.NewCandleRepository
	newIndicatorRepoFunc    = repository.NewIndicatorRepository
	newStrategyRepoFunc     = repository.NewStrategyRepository
	newMetricRepoFunc       = repository.NewMetricRepository
	newRunRepoFunc          = repository.NewRunRepository
	newConversationRepoFunc = repository.NewConversationRepository

	newCryptoCompareProviderFunc = func(baseURL string, tracer trace.Tracer) service.PriceProvider {
		return provider.NewCryptoCompareProvider(baseURL, tracer)
	}
	newBitcoinDataProviderFunc = func(baseURL string, reqPerHour int, tracer trace.Tracer) service.MetricProvider {
		return provider.NewBitcoinDataProvider(baseURL, reqPerHour, tracer)
	}
	newFearGreedProviderFunc = func(baseURL string, tracer trace.Tracer) *provider.FearGreedProvider {
		return provider.NewFearGreedProvider(baseURL, tracer)
	}

	newPriceServiceFunc     = service.NewPriceService
	newIndicatorServiceFunc = service.NewIndicatorService
	newHistoryServiceFunc   = service.NewHistoryService
	newMetricsServiceFunc   = service.NewMetricsService
	newStrategyServiceFunc  = service.NewStrategyService
	newForecasterFunc       = forecast.NewForecaster
	newDetectorFunc         = anomaly.NewDetector
	newOpenAIClientFunc     = advisor.NewOpenAIClient
	newAdvisorServiceFunc   = advisor.NewAdvisorService

	newCandlePollerFunc = job.NewCandlePoller
	newMetricsJobFunc   = job.NewMetricsJob
	newStrategyJobFunc  = job.NewStrategyJob
	newBackupJobFunc    = job.NewBackupJob
	newForecastJobFunc  = job.NewForecastJob
	startJobFunc        = func(start func(context.Context), ctx context.Context) { go start(ctx) }

	startTelegramBotFunc = bot.StartTelegramBot
	newHandlerFunc       = handler.New
	newRouterFunc        = gin.Default

	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           ChainSight API
// @version         1.0
// @description     Bitcoin on-chain analytics with daily strategy signals, sell-window forecasts, and anomaly detection.

// @host      localhost:8080
// @BasePath  /
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

	// Create repositories and run migrations
	candleRepo := newCandleRepoFunc(db.Pool, tracer)
	indicatorRepo := newIndicatorRepoFunc(db.Pool, tracer)
	strategyRepo := newStrategyRepoFunc(db.Pool, tracer)
	metricRepo := newMetricRepoFunc(db.Pool, tracer)
	runRepo := newRunRepoFunc(db.Pool, tracer)
	convRepo := newConversationRepoFunc(db.Pool, tracer)

	if db.Pool != nil {
		migrators := []interface {
			RunMigrations(context.Context) error
		}{candleRepo, indicatorRepo, strategyRepo, metricRepo, runRepo, convRepo}
		for _, m := range migrators {
			if err := m.RunMigrations(ctx); err != nil {
				log.Fatalf("failed to run migrations: %v", err)
			}
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

	// Create providers and services
	ccProvider := newCryptoCompareProviderFunc(cfg.CryptoCompareBaseURL, tracer)
	bdProvider := newBitcoinDataProviderFunc(cfg.BitcoinDataBaseURL, cfg.BitcoinDataReqPerHour, tracer)
	fgProvider := newFearGreedProviderFunc(cfg.FearGreedBaseURL, tracer)

	priceService := newPriceServiceFunc(tracer, ccProvider, candleRepo, cache.Client)
	indicatorService := newIndicatorServiceFunc(tracer, candleRepo, indicatorRepo)
	historyService := newHistoryServiceFunc(tracer, strategyRepo, cfg.HistoryCSVPath, cfg.SaveCSV)
	metricsService := newMetricsServiceFunc(tracer, bdProvider, metricRepo, strategyRepo, candleRepo)

	var sentiment service.SentimentProvider
	if fgProvider != nil {
		sentiment = fgProvider
	}
	strategyService := newStrategyServiceFunc(tracer, historyService, runRepo, sentiment, cache.Client, params)

	// Seed the warehouse from the CSV snapshot on first boot
	if db.Pool != nil {
		if err := historyService.Bootstrap(ctx); err != nil {
			log.Printf("dataset bootstrap error: %v", err)
		}
	}

	// Forecaster and anomaly detector
	var forecaster *forecast.Forecaster
	if cfg.ForecastEnabled {
		forecaster = newForecasterFunc(tracer, historyService, params, cfg.ForecastHorizonDays, cfg.ForecastMinRows)
	}
	detector := newDetectorFunc(tracer, historyService, cfg.AnomalyLookbackDays)

	// Advisor (optional)
	var advisorSvc *advisor.AdvisorService
	if cfg.OpenAIAPIKey != "" {
		llmClient := newOpenAIClientFunc(cfg.OpenAIAPIKey)
		advisorSvc = newAdvisorServiceFunc(tracer, llmClient, priceService, strategyService,
			metricsService, convRepo, cfg.OpenAIModel, cfg.AdvisorMaxHistory)
		log.Println("Advisor service enabled")
	}

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	os.Setenv("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	var botPredictor bot.Predictor
	if forecaster != nil {
		botPredictor = forecaster
	}
	var botAsker bot.Asker
	if advisorSvc != nil {
		botAsker = advisorSvc
	}
	theBot := startTelegramBotFunc(priceService, strategyService, metricsService, botPredictor, botAsker)

	// Background jobs (stopped by ctx cancel)
	poller := newCandlePollerFunc(tracer, priceService, indicatorService, cfg.CandlePollSecs, cfg.CandleBatchHours)
	startJobFunc(poller.Start, ctx)

	metricsJob := newMetricsJobFunc(tracer, metricsService, cfg.MetricsHourUTC, 90*time.Minute)
	startJobFunc(metricsJob.Start, ctx)

	strategyJob := newStrategyJobFunc(tracer, strategyService, theBot, cfg.StrategyHourUTC, cfg.StrategyMinuteUTC)
	startJobFunc(strategyJob.Start, ctx)

	backupJob := newBackupJobFunc(tracer, historyService, cfg.BackupHourUTC)
	startJobFunc(backupJob.Start, ctx)

	if forecaster != nil {
		forecastJob := newForecastJobFunc(tracer, forecaster, 24*time.Hour)
		startJobFunc(forecastJob.Start, ctx)
	}

	// Create handlers and routes
	h := newHandlerFunc(tracer, historyService, priceService, indicatorService, metricsService, strategyService)
	if forecaster != nil {
		h.SetForecaster(forecaster)
	}
	h.SetAnomalyDetector(detector)
	if fgProvider != nil {
		h.SetSentiment(fgProvider)
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware("chainsight"))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-API-Key")
	r.Use(cors.New(corsCfg))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	cache.Close()
	log.Println("Server exiting")
}
