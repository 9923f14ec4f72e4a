package advisor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"chainsight/internal/domain"
)

const tradingPhilosophy = `You are the assistant of a Bitcoin on-chain analytics dashboard. Your role is to interpret the dashboard's strategy output and on-chain metrics, NOT to generate trade signals yourself.

The Strategy:
- MVRV and NUPL are each scored against their moving average in rolling standard deviations.
- The two z-scores are blended into one combined score.
- An upward cross of the long threshold flips the strategy into BTC, a downward cross of the short threshold flips it into fiat.
- States: LONG / HOLD BTC mean the strategy holds bitcoin, SHORT / HOLD FIAT mean it sits in cash.

Rules:
- Always reference the actual numbers from the live context when making observations.
- Never fabricate data. If a metric is unavailable, say so.
- Strongly positive z-scores signal an overheated market, deeply negative ones capitulation. Express uncertainty when metrics disagree.
- Keep responses concise. You are talking via Telegram.
- Do not provide financial advice disclaimers on every message. The user understands this is informational.
- When asked about a specific metric, summarize its latest value and recent direction.
- If the question is about something the dashboard does not track, say so honestly rather than speculating.`

func BuildSystemPrompt(marketContext string) string {
	var sb strings.Builder
	sb.WriteString(tradingPhilosophy)
	sb.WriteString("\n\n--- LIVE MARKET DATA (as of ")
	sb.WriteString(time.Now().UTC().Format(time.RFC822))
	sb.WriteString(") ---\n")
	sb.WriteString(marketContext)
	return sb.String()
}

func FormatMarketContext(
	price *domain.PriceSnapshot,
	run *domain.StrategyRun,
	latest []domain.MetricObservation,
	series map[string][]domain.MetricObservation,
) string {
	var sb strings.Builder

	if price != nil {
		sb.WriteString("\nCurrent BTC Price:\n")
		sb.WriteString(fmt.Sprintf("  $%.2f (24h: %+.2f%%, vol: $%.0f)\n",
			price.PriceUSD, price.Change24hPct, price.Volume24h))
	}

	if run != nil {
		sb.WriteString("\nLatest Strategy Run:\n")
		sb.WriteString(fmt.Sprintf("  %s state=%s action=%s\n",
			run.ExecutedAt.Format("2006-01-02"), run.State, run.Action))
		sb.WriteString(fmt.Sprintf("  z-scores: mvrv=%.2f nupl=%.2f combined=%.2f\n",
			run.MVRVZScore, run.NUPLZScore, run.CombinedZScore))
		sb.WriteString(fmt.Sprintf("  returns: strategy=%+.1f%% buy-hold=%+.1f%% edge=%+.1f%%\n",
			run.TotalReturn, run.BuyHoldReturn, run.Outperformance))
	}

	if len(latest) > 0 {
		sb.WriteString("\nLatest On-Chain Metrics:\n")
		for _, m := range latest {
			sb.WriteString(fmt.Sprintf("  %s: %g (%s)\n",
				m.Metric, m.Value, m.Date.Format("2006-01-02")))
		}
	}

	if len(series) > 0 {
		keys := make([]string, 0, len(series))
		for k := range series {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nRequested Metric History (oldest to newest):\n")
		for _, key := range keys {
			sb.WriteString(fmt.Sprintf("  %s:", key))
			for _, obs := range series[key] {
				sb.WriteString(fmt.Sprintf(" %g", obs.Value))
			}
			sb.WriteString("\n")
		}
	}

	if sb.Len() == 0 {
		return "No market data currently available."
	}
	return sb.String()
}
