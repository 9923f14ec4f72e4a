package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chainsight/internal/domain"

	"github.com/gin-gonic/gin"
)

type sentimentStub struct {
	readings  []domain.FearGreed
	err       error
	lastLimit int
}

func (s *sentimentStub) FetchHistory(ctx context.Context, limit int) ([]domain.FearGreed, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.readings, nil
}

func TestGetSentimentServiceUnavailable(t *testing.T) {
	h := &Handler{tracer: testTracer}

	router := gin.New()
	router.GET("/api/sentiment", h.GetSentiment)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sentiment", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestGetSentimentSuccess(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	stub := &sentimentStub{readings: []domain.FearGreed{
		{Value: 22, Label: "Extreme Fear", Timestamp: day},
		{Value: 31, Label: "Fear", Timestamp: day.Add(-24 * time.Hour)},
	}}

	h := &Handler{tracer: testTracer}
	h.SetSentiment(stub)

	router := gin.New()
	router.GET("/api/sentiment", h.GetSentiment)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sentiment?limit=2", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.lastLimit != 2 {
		t.Fatalf("expected limit 2 passed through, got %d", stub.lastLimit)
	}

	var got struct {
		Count    int                `json:"count"`
		Readings []domain.FearGreed `json:"readings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got.Count != 2 || len(got.Readings) != 2 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.Readings[0].Value != 22 || got.Readings[0].Label != "Extreme Fear" {
		t.Fatalf("unexpected first reading: %+v", got.Readings[0])
	}
}

func TestGetSentimentLimitClamped(t *testing.T) {
	stub := &sentimentStub{}
	h := &Handler{tracer: testTracer}
	h.SetSentiment(stub)

	router := gin.New()
	router.GET("/api/sentiment", h.GetSentiment)

	for _, raw := range []string{"0", "-5", "9999", "abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/sentiment?limit="+raw, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("limit=%s: expected 200, got %d", raw, w.Code)
		}
		if stub.lastLimit != 30 {
			t.Fatalf("limit=%s: expected fallback to 30, got %d", raw, stub.lastLimit)
		}
	}
}

func TestGetSentimentUpstreamError(t *testing.T) {
	h := &Handler{tracer: testTracer}
	h.SetSentiment(&sentimentStub{err: errors.New("fear & greed API error 500")})

	router := gin.New()
	router.GET("/api/sentiment", h.GetSentiment)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sentiment", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
