package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chainsight/internal/domain"
	"chainsight/internal/forecast"

	tea "github.com/charmbracelet/bubbletea"
)

type priceStub struct {
	snapshot *domain.PriceSnapshot
	err      error
}

func (s priceStub) CurrentPrice(ctx context.Context) (*domain.PriceSnapshot, error) {
	return s.snapshot, s.err
}

type runStub struct {
	latest  *domain.StrategyRun
	history []domain.StrategyRun
}

func (s runStub) Latest(ctx context.Context) (*domain.StrategyRun, error) {
	return s.latest, nil
}

func (s runStub) History(ctx context.Context, limit int) ([]domain.StrategyRun, error) {
	return s.history, nil
}

type metricStub struct {
	obs []domain.MetricObservation
}

func (s metricStub) Latest(ctx context.Context) ([]domain.MetricObservation, error) {
	return s.obs, nil
}

type advisorStub struct {
	lastChatID int64
	lastAsk    string
	reply      string
	err        error
}

func (s *advisorStub) Ask(ctx context.Context, chatID int64, message string) (string, error) {
	s.lastChatID = chatID
	s.lastAsk = message
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleRun() *domain.StrategyRun {
	return &domain.StrategyRun{
		ExecutedAt:     time.Date(2024, 6, 1, 22, 5, 0, 0, time.UTC),
		Action:         domain.ActionHold,
		State:          "LONG",
		Position:       1,
		BTCPrice:       65000,
		MVRVZScore:     0.71,
		NUPLZScore:     0.44,
		CombinedZScore: 0.61,
		TotalReturn:    142.3,
		BuyHoldReturn:  96.2,
		Outperformance: 46.1,
	}
}

func TestNewAppModelDefaults(t *testing.T) {
	m := NewAppModel(Services{})
	if m.view != viewOverview {
		t.Fatalf("expected overview view, got %d", m.view)
	}
	if !m.loading {
		t.Fatal("expected loading on start")
	}
}

func TestDashboardMsgPopulatesModel(t *testing.T) {
	m := NewAppModel(Services{})

	next, _ := m.Update(dashboardMsg{
		price:   &domain.PriceSnapshot{PriceUSD: 65000, Change24hPct: 1.8},
		run:     sampleRun(),
		signals: []domain.StrategyRun{*sampleRun()},
		metrics: []domain.MetricObservation{{Metric: "mvrv", Value: 2.4, Date: time.Now()}},
	})
	m = next.(AppModel)

	if m.loading {
		t.Fatal("expected loading cleared")
	}
	if m.price == nil || m.price.PriceUSD != 65000 {
		t.Fatalf("price not stored: %+v", m.price)
	}
	if len(m.signalsTable.Rows()) != 1 {
		t.Fatalf("expected 1 signal row, got %d", len(m.signalsTable.Rows()))
	}
	if len(m.metricsTable.Rows()) != 1 {
		t.Fatalf("expected 1 metric row, got %d", len(m.metricsTable.Rows()))
	}
}

func TestTabCyclesViews(t *testing.T) {
	m := NewAppModel(Services{})

	order := []int{viewSignals, viewMetrics, viewAdvisor, viewOverview}
	for _, want := range order {
		next, _ := m.Update(keyMsg("tab"))
		m = next.(AppModel)
		if m.view != want {
			t.Fatalf("expected view %d, got %d", want, m.view)
		}
	}

	next, _ := m.Update(keyMsg("3"))
	m = next.(AppModel)
	if m.view != viewMetrics {
		t.Fatalf("expected metrics view, got %d", m.view)
	}
}

func TestQuitKey(t *testing.T) {
	m := NewAppModel(Services{})
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestRefreshKeyTriggersFetch(t *testing.T) {
	m := NewAppModel(Services{
		Prices: priceStub{snapshot: &domain.PriceSnapshot{PriceUSD: 64000}},
		Runs:   runStub{latest: sampleRun(), history: []domain.StrategyRun{*sampleRun()}},
	})

	next, cmd := m.Update(keyMsg("r"))
	m = next.(AppModel)
	if cmd == nil {
		t.Fatal("expected refresh command")
	}

	raw := cmd()
	msg, ok := raw.(dashboardMsg)
	if !ok {
		t.Fatalf("expected dashboardMsg, got %T", raw)
	}
	if msg.price == nil || msg.price.PriceUSD != 64000 {
		t.Fatalf("unexpected refresh payload: %+v", msg.price)
	}
	if msg.run == nil || len(msg.signals) != 1 {
		t.Fatalf("expected run and signals in payload")
	}
}

func TestRefreshRecordsFirstError(t *testing.T) {
	m := NewAppModel(Services{
		Prices: priceStub{err: errors.New("provider down")},
	})

	msg, ok := m.refreshCmd()().(dashboardMsg)
	if !ok {
		t.Fatal("expected dashboardMsg")
	}
	if msg.err == nil || msg.err.Error() != "provider down" {
		t.Fatalf("expected provider error, got %v", msg.err)
	}
}

func TestAdvisorAskFlow(t *testing.T) {
	stub := &advisorStub{reply: "stay the course"}
	m := NewAppModel(Services{Advisor: stub, UserID: 7})

	next, _ := m.Update(keyMsg("4"))
	m = next.(AppModel)
	if m.view != viewAdvisor {
		t.Fatalf("expected advisor view, got %d", m.view)
	}

	m.advisorInput.SetValue("should I sell?")
	next, cmd := m.Update(keyMsg("enter"))
	m = next.(AppModel)
	if !m.advisorBusy {
		t.Fatal("expected busy while asking")
	}
	if cmd == nil {
		t.Fatal("expected ask command")
	}

	reply, ok := cmd().(advisorReplyMsg)
	if !ok {
		t.Fatal("expected advisorReplyMsg")
	}
	if stub.lastChatID != 7 || stub.lastAsk != "should I sell?" {
		t.Fatalf("unexpected ask call: chat=%d q=%q", stub.lastChatID, stub.lastAsk)
	}

	next, _ = m.Update(reply)
	m = next.(AppModel)
	if m.advisorBusy {
		t.Fatal("expected busy cleared")
	}
	if m.advisorReply != "stay the course" {
		t.Fatalf("unexpected reply: %q", m.advisorReply)
	}
}

func TestAdvisorEmptyQuestionIgnored(t *testing.T) {
	m := NewAppModel(Services{Advisor: &advisorStub{}})
	next, _ := m.Update(keyMsg("4"))
	m = next.(AppModel)

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(AppModel)
	if m.advisorBusy || cmd != nil {
		t.Fatal("empty question should not trigger an ask")
	}
}

func TestOverviewViewRendersRun(t *testing.T) {
	m := NewAppModel(Services{Username: "alice"})
	next, _ := m.Update(dashboardMsg{
		price: &domain.PriceSnapshot{PriceUSD: 65000, Change24hPct: 1.8, Volume24h: 3.2e10},
		run:   sampleRun(),
		fc: &forecast.Forecast{
			Label:         "sell within 30 days",
			Probabilities: map[string]float64{"sell within 30 days": 0.54},
		},
	})
	m = next.(AppModel)

	out := m.View()
	for _, want := range []string{"alice", "$65000.00", "LONG", "combined +0.61", "sell within 30 days (54%)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestAdvisorViewWithoutService(t *testing.T) {
	m := NewAppModel(Services{})
	next, _ := m.Update(keyMsg("4"))
	m = next.(AppModel)

	if !strings.Contains(m.View(), "Advisor is not configured") {
		t.Fatal("expected disabled advisor notice")
	}
}

func TestSetSize(t *testing.T) {
	m := NewAppModel(Services{})
	m.SetSize(120, 40)
	if m.width != 120 || m.height != 40 {
		t.Fatalf("unexpected size: %dx%d", m.width, m.height)
	}
	if m.advisorInput.Width != 114 {
		t.Fatalf("unexpected input width: %d", m.advisorInput.Width)
	}
}
