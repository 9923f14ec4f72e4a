package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chainsight/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const cryptoCompareBaseURL = "https://min-api.cryptocompare.com"

// CryptoCompareProvider fetches BTC/USD hourly candles and the live price
// from the CryptoCompare min-api.
type CryptoCompareProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewCryptoCompareProvider(baseURL string, tracer trace.Tracer) *CryptoCompareProvider {
	if baseURL == "" {
		baseURL = cryptoCompareBaseURL
	}
	return &CryptoCompareProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

// FetchHourly fetches the most recent limit hourly candles, oldest first.
func (p *CryptoCompareProvider) FetchHourly(ctx context.Context, limit int) ([]domain.HourlyCandle, error) {
	_, span := p.tracer.Start(ctx, "cryptocompare.fetch-hourly")
	defer span.End()

	if limit <= 0 {
		limit = 48
	}
	url := fmt.Sprintf("%s/data/v2/histohour?fsym=BTC&tsym=USD&limit=%d", p.baseURL, limit)
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch hourly candles: %w", err)
	}

	var payload struct {
		Response string `json:"Response"`
		Message  string `json:"Message"`
		Data     struct {
			Data []struct {
				Time       int64   `json:"time"`
				Open       float64 `json:"open"`
				High       float64 `json:"high"`
				Low        float64 `json:"low"`
				Close      float64 `json:"close"`
				VolumeFrom float64 `json:"volumefrom"`
				VolumeTo   float64 `json:"volumeto"`
			} `json:"Data"`
		} `json:"Data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse hourly candles: %w", err)
	}
	if payload.Response != "Success" {
		return nil, fmt.Errorf("cryptocompare error: %s", payload.Message)
	}

	candles := make([]domain.HourlyCandle, 0, len(payload.Data.Data))
	for _, r := range payload.Data.Data {
		candles = append(candles, domain.HourlyCandle{
			UnixTimestamp: r.Time,
			OpenTime:      time.Unix(r.Time, 0).UTC(),
			Open:          r.Open,
			High:          r.High,
			Low:           r.Low,
			Close:         r.Close,
			VolumeFrom:    r.VolumeFrom,
			VolumeTo:      r.VolumeTo,
		})
	}
	return candles, nil
}

// FetchPrice fetches the current BTC/USD price with 24h volume and change.
func (p *CryptoCompareProvider) FetchPrice(ctx context.Context) (*domain.PriceSnapshot, error) {
	_, span := p.tracer.Start(ctx, "cryptocompare.fetch-price")
	defer span.End()

	url := p.baseURL + "/data/pricemultifull?fsyms=BTC&tsyms=USD"
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch price: %w", err)
	}

	var payload struct {
		Raw map[string]map[string]struct {
			Price           float64 `json:"PRICE"`
			Volume24Hour    float64 `json:"VOLUME24HOURTO"`
			ChangePct24Hour float64 `json:"CHANGEPCT24HOUR"`
			LastUpdate      int64   `json:"LASTUPDATE"`
		} `json:"RAW"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	quote, ok := payload.Raw["BTC"]["USD"]
	if !ok {
		return nil, fmt.Errorf("cryptocompare response missing BTC/USD quote")
	}

	return &domain.PriceSnapshot{
		PriceUSD:        quote.Price,
		Volume24h:       quote.Volume24Hour,
		Change24hPct:    quote.ChangePct24Hour,
		LastUpdatedUnix: quote.LastUpdate,
	}, nil
}

func (p *CryptoCompareProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
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
		return nil, fmt.Errorf("cryptocompare API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
