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

type runStub struct {
	latest  *domain.StrategyRun
	history []domain.StrategyRun
	err     error
}

func (s runStub) Latest(ctx context.Context) (*domain.StrategyRun, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.latest, nil
}

func (s runStub) History(ctx context.Context, limit int) ([]domain.StrategyRun, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.history) {
		return s.history[:limit], nil
	}
	return s.history, nil
}

func TestGetStrategy(t *testing.T) {
	run := &domain.StrategyRun{
		ExecutedAt:     time.Date(2024, 6, 1, 22, 5, 0, 0, time.UTC),
		Action:         domain.ActionHold,
		State:          "LONG",
		Position:       1,
		CombinedZScore: 0.42,
	}
	h := &Handler{tracer: testTracer, runs: runStub{latest: run}}

	router := gin.New()
	router.GET("/api/strategy", h.GetStrategy)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/strategy", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got domain.StrategyRun
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got.State != "LONG" || got.CombinedZScore != 0.42 {
		t.Fatalf("unexpected run: %+v", got)
	}
}

func TestGetStrategyNoRunYet(t *testing.T) {
	h := &Handler{tracer: testTracer, runs: runStub{}}

	router := gin.New()
	router.GET("/api/strategy", h.GetStrategy)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/strategy", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetStrategyError(t *testing.T) {
	h := &Handler{tracer: testTracer, runs: runStub{err: errors.New("db down")}}

	router := gin.New()
	router.GET("/api/strategy", h.GetStrategy)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/strategy", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetSignals(t *testing.T) {
	base := time.Date(2024, 6, 1, 22, 5, 0, 0, time.UTC)
	history := make([]domain.StrategyRun, 40)
	for i := range history {
		history[i] = domain.StrategyRun{ExecutedAt: base.AddDate(0, 0, i), State: domain.StateHoldFiat}
	}
	h := &Handler{tracer: testTracer, runs: runStub{history: history}}

	router := gin.New()
	router.GET("/api/signals", h.GetSignals)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/signals?limit=10", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Count   int                  `json:"count"`
		Signals []domain.StrategyRun `json:"signals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if body.Count != 10 || len(body.Signals) != 10 {
		t.Fatalf("expected 10 signals, got %+v", body.Count)
	}
}
