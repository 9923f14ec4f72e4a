package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"chainsight/internal/domain"
	"chainsight/internal/forecast"

	tele "gopkg.in/telebot.v3"
)

type PriceQuerier interface {
	CurrentPrice(ctx context.Context) (*domain.PriceSnapshot, error)
}

type RunQuerier interface {
	Latest(ctx context.Context) (*domain.StrategyRun, error)
}

type MetricQuerier interface {
	Latest(ctx context.Context) ([]domain.MetricObservation, error)
}

type Predictor interface {
	Predict(ctx context.Context) (*forecast.Forecast, error)
}

type Asker interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
}

// Bot wraps the Telegram connection and pushes strategy reports to the
// configured chat.
type Bot struct {
	bot    *tele.Bot
	chatID int64
}

// StartTelegramBot connects the bot and registers its commands. Returns nil
// when TELEGRAM_BOT_TOKEN is unset.
func StartTelegramBot(prices PriceQuerier, runs RunQuerier, metrics MetricQuerier, predictor Predictor, asker Asker) *Bot {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	var chatID int64
	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			chatID = id
		} else {
			log.Printf("invalid TELEGRAM_CHAT_ID %q, signal pushes disabled", raw)
		}
	} else {
		log.Println("TELEGRAM_CHAT_ID not set, signal pushes disabled")
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		snapshot, err := prices.CurrentPrice(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching BTC price: %v", err))
		}
		return c.Send(formatSnapshot(snapshot))
	})

	b.Handle("/signal", func(c tele.Context) error {
		run, err := runs.Latest(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading latest run: %v", err))
		}
		if run == nil {
			return c.Send("No strategy run recorded yet.")
		}
		if run.Message != "" {
			return c.Send(run.Message)
		}
		return c.Send(fmt.Sprintf("%s %s (combined z-score %.2f)", run.ExecutedAt.Format("2006-01-02"), run.State, run.CombinedZScore))
	})

	b.Handle("/metrics", func(c tele.Context) error {
		latest, err := metrics.Latest(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading metrics: %v", err))
		}
		return c.Send(formatMetrics(latest))
	})

	b.Handle("/forecast", func(c tele.Context) error {
		if predictor == nil {
			return c.Send("Forecasting is disabled.")
		}
		f, err := predictor.Predict(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Forecast unavailable: %v", err))
		}
		return c.Send(formatForecast(f))
	})

	b.Handle("/ask", func(c tele.Context) error {
		if asker == nil {
			return c.Send("Advisor is not configured.")
		}
		question := strings.TrimSpace(c.Message().Payload)
		if question == "" {
			return c.Send("Usage: /ask <question about the market>")
		}
		reply, err := asker.Ask(context.Background(), c.Chat().ID, question)
		if err != nil {
			return c.Send(fmt.Sprintf("Advisor error: %v", err))
		}
		return c.Send(reply)
	})

	log.Println("Telegram bot started")
	go b.Start()
	return &Bot{bot: b, chatID: chatID}
}

// NotifyRun pushes a strategy report to the configured chat. Safe to call
// on a nil bot or without a configured chat.
func (b *Bot) NotifyRun(run domain.StrategyRun) error {
	if b == nil || b.bot == nil || b.chatID == 0 || run.Message == "" {
		return nil
	}
	_, err := b.bot.Send(tele.ChatID(b.chatID), run.Message)
	return err
}

func formatSnapshot(snapshot *domain.PriceSnapshot) string {
	return fmt.Sprintf(
		"BTC\nPrice: $%.2f\n24h Change: %.2f%%\n24h Volume: $%.0f",
		snapshot.PriceUSD, snapshot.Change24hPct, snapshot.Volume24h,
	)
}

func formatMetrics(latest []domain.MetricObservation) string {
	if len(latest) == 0 {
		return "No on-chain metrics stored yet."
	}
	var sb strings.Builder
	sb.WriteString("On-Chain Metrics\n")
	for _, m := range latest {
		sb.WriteString(fmt.Sprintf("%s: %g (%s)\n", m.Metric, m.Value, m.Date.Format("2006-01-02")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatForecast(f *forecast.Forecast) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sell-Window Forecast (as of %s)\n", f.AsOf.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Most likely: %s\n", f.Label))

	labels := make([]string, 0, len(f.Probabilities))
	for label := range f.Probabilities {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		pi, pj := f.Probabilities[labels[i]], f.Probabilities[labels[j]]
		if pi != pj {
			return pi > pj
		}
		return labels[i] < labels[j]
	})
	for _, label := range labels {
		sb.WriteString(fmt.Sprintf("%s: %.0f%%\n", label, f.Probabilities[label]*100))
	}
	return strings.TrimRight(sb.String(), "\n")
}
