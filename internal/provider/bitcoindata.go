package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"chainsight/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const bitcoinDataBaseURL = "https://bitcoin-data.com"

// BitcoinDataProvider fetches daily on-chain series from the bitcoin-data.com
// free API. The free tier allows ten requests per hour, enforced here with a
// token bucket so a full batch refresh never trips the quota.
type BitcoinDataProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

func NewBitcoinDataProvider(baseURL string, reqPerHour int, tracer trace.Tracer) *BitcoinDataProvider {
	if baseURL == "" {
		baseURL = bitcoinDataBaseURL
	}
	if reqPerHour <= 0 {
		reqPerHour = 10
	}
	return &BitcoinDataProvider{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(reqPerHour)), reqPerHour),
	}
}

// FetchMetric fetches the full history of one catalog metric and returns the
// observations on or after since, sorted by date. The API returns numbers as
// strings; rows that fail to parse are skipped.
func (p *BitcoinDataProvider) FetchMetric(ctx context.Context, m domain.Metric, since time.Time) ([]domain.MetricObservation, error) {
	_, span := p.tracer.Start(ctx, "bitcoindata.fetch-metric")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+m.Path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", m.Key, err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", m.Key, err)
	}

	out := make([]domain.MetricObservation, 0, len(rows))
	for _, row := range rows {
		day, ok := row[m.DateField].(string)
		if !ok {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(day))
		if err != nil {
			continue
		}
		value, ok := floatField(row, m.ValueField)
		if !ok {
			continue
		}
		if !since.IsZero() && date.Before(since) {
			continue
		}
		out = append(out, domain.MetricObservation{Metric: m.Key, Date: date, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (p *BitcoinDataProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bitcoin-data API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func floatField(row map[string]any, key string) (float64, bool) {
	switch v := row[key].(type) {
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}
