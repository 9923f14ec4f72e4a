package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken string
	TelegramChatID   string
	DatabaseURL      string
	RedisURL         string
	APIKey           string

	HistoryCSVPath string
	SaveCSV        bool

	BitcoinDataBaseURL    string
	BitcoinDataReqPerHour int
	CryptoCompareBaseURL  string
	FearGreedBaseURL      string

	CandlePollSecs    int
	CandleBatchHours  int
	MetricsHourUTC    int
	BackupHourUTC     int
	StrategyHourUTC   int
	StrategyMinuteUTC int

	StrategyMAType         string
	StrategyMALength       int
	StrategyLookback       int
	StrategyLongThreshold  float64
	StrategyShortThreshold float64
	StrategyCombineMethod  string
	StrategyMVRVWeight     float64
	StrategyNUPLWeight     float64
	StrategyInitialCapital float64

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	SSHPort        int
	SSHHostKeyPath string

	OpenAIAPIKey      string
	OpenAIModel       string
	AdvisorMaxHistory int

	ForecastEnabled     bool
	ForecastHorizonDays int
	ForecastMinRows     int

	AnomalyLookbackDays int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("API_KEY"))

	cfg.HistoryCSVPath = strings.TrimSpace(os.Getenv("HISTORY_CSV_PATH"))
	if cfg.HistoryCSVPath == "" {
		cfg.HistoryCSVPath = "btc_data.csv"
	}

	cfg.SaveCSV = true
	if v := strings.TrimSpace(os.Getenv("SAVE_CSV")); v != "" {
		cfg.SaveCSV = strings.EqualFold(v, "true")
	}

	cfg.BitcoinDataBaseURL = strings.TrimSpace(os.Getenv("BITCOIN_DATA_BASE_URL"))
	if cfg.BitcoinDataBaseURL == "" {
		cfg.BitcoinDataBaseURL = "https://bitcoin-data.com"
	}

	cfg.BitcoinDataReqPerHour = 10
	if v := strings.TrimSpace(os.Getenv("BITCOIN_DATA_REQ_PER_HOUR")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BitcoinDataReqPerHour = n
		}
	}

	cfg.CryptoCompareBaseURL = strings.TrimSpace(os.Getenv("CRYPTOCOMPARE_BASE_URL"))
	if cfg.CryptoCompareBaseURL == "" {
		cfg.CryptoCompareBaseURL = "https://min-api.cryptocompare.com"
	}

	cfg.FearGreedBaseURL = strings.TrimSpace(os.Getenv("FEAR_GREED_BASE_URL"))
	if cfg.FearGreedBaseURL == "" {
		cfg.FearGreedBaseURL = "https://api.alternative.me"
	}

	cfg.CandlePollSecs = 3600
	if v := os.Getenv("CANDLE_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CandlePollSecs = n
		}
	}

	cfg.CandleBatchHours = 48
	if v := strings.TrimSpace(os.Getenv("CANDLE_BATCH_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CandleBatchHours = n
		}
	}

	cfg.MetricsHourUTC = 4
	if v := strings.TrimSpace(os.Getenv("METRICS_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.MetricsHourUTC = n
		}
	}

	cfg.BackupHourUTC = 23
	if v := strings.TrimSpace(os.Getenv("BACKUP_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.BackupHourUTC = n
		}
	}

	cfg.StrategyHourUTC = 22
	if v := strings.TrimSpace(os.Getenv("STRATEGY_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.StrategyHourUTC = n
		}
	}

	cfg.StrategyMinuteUTC = 5
	if v := strings.TrimSpace(os.Getenv("STRATEGY_MINUTE_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 59 {
			cfg.StrategyMinuteUTC = n
		}
	}

	cfg.StrategyMAType = strings.ToUpper(strings.TrimSpace(os.Getenv("STRATEGY_MA_TYPE")))
	if cfg.StrategyMAType == "" {
		cfg.StrategyMAType = "EMA"
	}

	cfg.StrategyMALength = 160
	if v := strings.TrimSpace(os.Getenv("STRATEGY_MA_LENGTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StrategyMALength = n
		}
	}

	cfg.StrategyLookback = 120
	if v := strings.TrimSpace(os.Getenv("STRATEGY_ZSCORE_LOOKBACK")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			cfg.StrategyLookback = n
		}
	}

	cfg.StrategyLongThreshold = 0.56
	if v := strings.TrimSpace(os.Getenv("STRATEGY_LONG_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.StrategyLongThreshold = n
		}
	}

	cfg.StrategyShortThreshold = -0.45
	if v := strings.TrimSpace(os.Getenv("STRATEGY_SHORT_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.StrategyShortThreshold = n
		}
	}

	cfg.StrategyCombineMethod = strings.ToLower(strings.TrimSpace(os.Getenv("STRATEGY_COMBINE_METHOD")))
	if cfg.StrategyCombineMethod == "" {
		cfg.StrategyCombineMethod = "weighted"
	}

	cfg.StrategyMVRVWeight = 0.63
	if v := strings.TrimSpace(os.Getenv("STRATEGY_MVRV_WEIGHT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.StrategyMVRVWeight = n
		}
	}

	cfg.StrategyNUPLWeight = 0.37
	if v := strings.TrimSpace(os.Getenv("STRATEGY_NUPL_WEIGHT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.StrategyNUPLWeight = n
		}
	}

	cfg.StrategyInitialCapital = 10000
	if v := strings.TrimSpace(os.Getenv("STRATEGY_INITIAL_CAPITAL")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.StrategyInitialCapital = n
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.MCPRequestTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPRateLimitPerMin = 60
	if v := strings.TrimSpace(os.Getenv("MCP_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRateLimitPerMin = n
		}
	}

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 65535 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/chainsight_ed25519"
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, advisor will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.AdvisorMaxHistory = 20
	if v := os.Getenv("ADVISOR_MAX_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AdvisorMaxHistory = n
		}
	}

	cfg.ForecastEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("FORECAST_ENABLED")), "true")

	cfg.ForecastHorizonDays = 30
	if v := strings.TrimSpace(os.Getenv("FORECAST_HORIZON_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ForecastHorizonDays = n
		}
	}

	cfg.ForecastMinRows = 200
	if v := strings.TrimSpace(os.Getenv("FORECAST_MIN_ROWS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ForecastMinRows = n
		}
	}

	cfg.AnomalyLookbackDays = 90
	if v := strings.TrimSpace(os.Getenv("ANOMALY_LOOKBACK_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnomalyLookbackDays = n
		}
	}

	return cfg
}
