package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestCryptoCompareFetchHourly(t *testing.T) {
	t.Parallel()

	p := NewCryptoCompareProvider("http://example", trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/data/v2/histohour") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.URL.Query().Get("fsym") != "BTC" || req.URL.Query().Get("tsym") != "USD" {
			t.Fatalf("unexpected query: %s", req.URL.RawQuery)
		}
		body := `{"Response":"Success","Data":{"Data":[
			{"time":1700000000,"open":35000,"high":35500,"low":34900,"close":35400,"volumefrom":120.5,"volumeto":4261000},
			{"time":1700003600,"open":35400,"high":35600,"low":35300,"close":35550,"volumefrom":90.2,"volumeto":3199000}
		]}}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	})}

	candles, err := p.FetchHourly(context.Background(), 48)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	first := candles[0]
	if first.UnixTimestamp != 1700000000 || first.Open != 35000 || first.Close != 35400 {
		t.Fatalf("unexpected first candle: %+v", first)
	}
	if first.VolumeFrom != 120.5 || first.VolumeTo != 4261000 {
		t.Fatalf("unexpected volumes: %+v", first)
	}
}

func TestCryptoCompareFetchHourlyAPIError(t *testing.T) {
	t.Parallel()

	p := NewCryptoCompareProvider("http://example", trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body := `{"Response":"Error","Message":"limit is larger than max value","Data":{}}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	})}

	_, err := p.FetchHourly(context.Background(), 5000)
	if err == nil || !strings.Contains(err.Error(), "limit is larger") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestCryptoCompareFetchPrice(t *testing.T) {
	t.Parallel()

	p := NewCryptoCompareProvider("http://example", trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/data/pricemultifull") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		body := `{"RAW":{"BTC":{"USD":{"PRICE":97123.5,"VOLUME24HOURTO":45000000000,"CHANGEPCT24HOUR":2.34,"LASTUPDATE":1700000000}}}}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	})}

	snap, err := p.FetchPrice(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.PriceUSD != 97123.5 || snap.Change24hPct != 2.34 || snap.LastUpdatedUnix != 1700000000 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestCryptoCompareFetchPriceMissingQuote(t *testing.T) {
	t.Parallel()

	p := NewCryptoCompareProvider("http://example", trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(`{"RAW":{}}`)),
			Header:     make(http.Header),
		}, nil
	})}

	if _, err := p.FetchPrice(context.Background()); err == nil {
		t.Fatal("expected error for missing quote")
	}
}
