package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chainsight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

type FearGreedProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(baseURL string, tracer trace.Tracer) *FearGreedProvider {
	if baseURL == "" {
		baseURL = fearGreedBaseURL
	}
	return &FearGreedProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

// FetchLatest fetches the most recent Fear & Greed reading.
func (p *FearGreedProvider) FetchLatest(ctx context.Context) (*domain.FearGreed, error) {
	readings, err := p.fetch(ctx, 1, "feargreed.fetch-latest")
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("fear & greed response has no rows")
	}
	return &readings[0], nil
}

// FetchHistory fetches up to limit readings, most recent first.
func (p *FearGreedProvider) FetchHistory(ctx context.Context, limit int) ([]domain.FearGreed, error) {
	if limit <= 0 {
		limit = 30
	}
	return p.fetch(ctx, limit, "feargreed.fetch-history")
}

func (p *FearGreedProvider) fetch(ctx context.Context, limit int, spanName string) ([]domain.FearGreed, error) {
	_, span := p.tracer.Start(ctx, spanName)
	defer span.End()

	url := fmt.Sprintf("%s/fng/?limit=%d", p.baseURL, limit)
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
		return nil, fmt.Errorf("fear & greed API error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fear & greed response: %w", err)
	}

	readings := make([]domain.FearGreed, 0, len(payload.Data))
	for _, row := range payload.Data {
		value, err := strconv.Atoi(strings.TrimSpace(row.Value))
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(row.Timestamp), 10, 64)
		if err != nil {
			continue
		}
		if ts > 1_000_000_000_000 {
			ts = ts / 1000
		}
		label := row.Classification
		if label == "" {
			label = domain.ClassifyFearGreed(value)
		}
		readings = append(readings, domain.FearGreed{
			Value:     value,
			Label:     label,
			Timestamp: time.Unix(ts, 0).UTC(),
		})
	}
	return readings, nil
}
