package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chainsight/internal/domain"
	"chainsight/internal/forecast"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Dashboard views.
const (
	viewOverview = iota
	viewSignals
	viewMetrics
	viewAdvisor
	viewCount
)

const (
	signalRows      = 30
	refreshInterval = 60 * time.Second
	fetchTimeout    = 10 * time.Second
	askTimeout      = 90 * time.Second
)

type PriceQuerier interface {
	CurrentPrice(ctx context.Context) (*domain.PriceSnapshot, error)
}

type RunQuerier interface {
	Latest(ctx context.Context) (*domain.StrategyRun, error)
	History(ctx context.Context, limit int) ([]domain.StrategyRun, error)
}

type MetricQuerier interface {
	Latest(ctx context.Context) ([]domain.MetricObservation, error)
}

type Predictor interface {
	Predict(ctx context.Context) (*forecast.Forecast, error)
}

type AdvisorQuerier interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
}

// Services bundles everything a terminal session can reach. Nil fields
// degrade the matching view instead of failing the session.
type Services struct {
	Prices   PriceQuerier
	Runs     RunQuerier
	Metrics  MetricQuerier
	Forecast Predictor
	Advisor  AdvisorQuerier
	UserID   int64
	Username string
}

type dashboardMsg struct {
	price   *domain.PriceSnapshot
	run     *domain.StrategyRun
	fc      *forecast.Forecast
	signals []domain.StrategyRun
	metrics []domain.MetricObservation
	err     error
}

type advisorReplyMsg struct {
	reply string
	err   error
}

type tickMsg time.Time

// AppModel is the Bubble Tea model behind one SSH session.
type AppModel struct {
	svc    Services
	view   int
	width  int
	height int

	loading bool
	err     error

	price *domain.PriceSnapshot
	run   *domain.StrategyRun
	fc    *forecast.Forecast

	signalsTable table.Model
	metricsTable table.Model

	advisorInput textinput.Model
	advisorReply string
	advisorBusy  bool

	updatedAt time.Time
}

func NewAppModel(svc Services) AppModel {
	return AppModel{
		svc:          svc,
		view:         viewOverview,
		loading:      true,
		signalsTable: newSignalsTable(),
		metricsTable: newMetricsTable(),
		advisorInput: newAdvisorInput(),
	}
}

// SetSize adjusts the layout, called with the PTY dimensions before the
// first render and on every terminal resize.
func (m *AppModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	tableHeight := max(height-9, 4)
	m.signalsTable.SetHeight(tableHeight)
	m.metricsTable.SetHeight(tableHeight)
	m.advisorInput.Width = max(width-6, 20)
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case dashboardMsg:
		m.loading = false
		m.err = msg.err
		if msg.price != nil {
			m.price = msg.price
		}
		if msg.run != nil {
			m.run = msg.run
		}
		if msg.fc != nil {
			m.fc = msg.fc
		}
		if msg.signals != nil {
			m.signalsTable = updateSignalRows(m.signalsTable, msg.signals)
		}
		if msg.metrics != nil {
			m.metricsTable = updateMetricRows(m.metricsTable, msg.metrics)
		}
		m.updatedAt = time.Now()
		return m, nil

	case advisorReplyMsg:
		m.advisorBusy = false
		if msg.err != nil {
			m.advisorReply = "Advisor error: " + msg.err.Error()
		} else {
			m.advisorReply = msg.reply
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())
	}

	return m.updateTables(msg)
}

func (m AppModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.advisorInput.Blur()
		m.view = (m.view + 1) % viewCount
		if m.view == viewAdvisor {
			m.advisorInput.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	if m.view == viewAdvisor {
		switch key {
		case "esc":
			m.advisorInput.Blur()
			m.view = viewOverview
			return m, nil
		case "enter":
			question := strings.TrimSpace(m.advisorInput.Value())
			if question == "" || m.advisorBusy || m.svc.Advisor == nil {
				return m, nil
			}
			m.advisorBusy = true
			m.advisorReply = ""
			m.advisorInput.Reset()
			return m, m.askCmd(question)
		}
		var cmd tea.Cmd
		m.advisorInput, cmd = m.advisorInput.Update(msg)
		return m, cmd
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "1", "2", "3", "4":
		m.view = int(key[0] - '1')
		if m.view == viewAdvisor {
			m.advisorInput.Focus()
			return m, textinput.Blink
		}
		return m, nil
	case "r":
		m.loading = true
		return m, m.refreshCmd()
	}

	return m.updateTables(msg)
}

func (m AppModel) updateTables(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case viewSignals:
		m.signalsTable, cmd = m.signalsTable.Update(msg)
	case viewMetrics:
		m.metricsTable, cmd = m.metricsTable.Update(msg)
	}
	return m, cmd
}

func (m AppModel) refreshCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		var msg dashboardMsg
		fail := func(err error) {
			if msg.err == nil {
				msg.err = err
			}
		}

		if svc.Prices != nil {
			price, err := svc.Prices.CurrentPrice(ctx)
			if err != nil {
				fail(err)
			} else {
				msg.price = price
			}
		}
		if svc.Runs != nil {
			run, err := svc.Runs.Latest(ctx)
			if err != nil {
				fail(err)
			} else {
				msg.run = run
			}
			signals, err := svc.Runs.History(ctx, signalRows)
			if err != nil {
				fail(err)
			} else {
				msg.signals = signals
			}
		}
		if svc.Metrics != nil {
			obs, err := svc.Metrics.Latest(ctx)
			if err != nil {
				fail(err)
			} else {
				msg.metrics = obs
			}
		}
		if svc.Forecast != nil {
			// Prediction errors just leave the forecast line out, the
			// model may not be trained yet.
			if fc, err := svc.Forecast.Predict(ctx); err == nil {
				msg.fc = fc
			}
		}
		return msg
	}
}

func (m AppModel) askCmd(question string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()

		reply, err := svc.Advisor.Ask(ctx, svc.UserID, question)
		return advisorReplyMsg{reply: reply, err: err}
	}
}

func (m AppModel) View() string {
	var s strings.Builder

	header := titleStyle.Render("ChainSight")
	if m.svc.Username != "" {
		header += helpStyle.Render("  user: " + m.svc.Username)
	}
	s.WriteString(header + "\n")
	s.WriteString(helpStyle.Render(viewTabs(m.view)) + "\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	switch m.view {
	case viewOverview:
		s.WriteString(m.overviewView())
	case viewSignals:
		s.WriteString(m.signalsTable.View() + "\n")
	case viewMetrics:
		s.WriteString(m.metricsTable.View() + "\n")
	case viewAdvisor:
		s.WriteString(m.advisorView())
	}

	s.WriteString("\n" + helpStyle.Render("tab: next view  1-4: jump  r: refresh  q: quit"))
	return s.String()
}

func viewTabs(active int) string {
	names := []string{"1 Overview", "2 Signals", "3 Metrics", "4 Advisor"}
	for i := range names {
		if i == active {
			names[i] = "[" + names[i] + "]"
		}
	}
	return strings.Join(names, "  ")
}

func (m AppModel) overviewView() string {
	if m.loading && m.price == nil && m.run == nil {
		return "Loading market data...\n"
	}

	var s strings.Builder
	if m.price != nil {
		s.WriteString(fmt.Sprintf("%s  $%.2f  %s  vol $%.0f\n",
			labelStyle.Render("Price   "), m.price.PriceUSD, formatChange(m.price.Change24hPct), m.price.Volume24h))
	}
	if m.run != nil {
		s.WriteString(fmt.Sprintf("%s  %s  as of %s\n",
			labelStyle.Render("State   "), stateStyle(m.run.State).Render(m.run.State), m.run.ExecutedAt.Format("2006-01-02 15:04")))
		s.WriteString(fmt.Sprintf("%s  mvrv %+.2f  nupl %+.2f  combined %+.2f\n",
			labelStyle.Render("Z-Scores"), m.run.MVRVZScore, m.run.NUPLZScore, m.run.CombinedZScore))
		s.WriteString(fmt.Sprintf("%s  strategy %+.1f%%  buy-hold %+.1f%%  edge %+.1f%%\n",
			labelStyle.Render("Returns "), m.run.TotalReturn, m.run.BuyHoldReturn, m.run.Outperformance))
	} else if !m.loading {
		s.WriteString("No strategy run recorded yet.\n")
	}
	if m.fc != nil {
		s.WriteString(fmt.Sprintf("%s  %s (%.0f%%)\n",
			labelStyle.Render("Forecast"), m.fc.Label, m.fc.Probabilities[m.fc.Label]*100))
	}
	if !m.updatedAt.IsZero() {
		s.WriteString("\n" + helpStyle.Render("updated "+m.updatedAt.Format("15:04:05")) + "\n")
	}
	return s.String()
}

func (m AppModel) advisorView() string {
	if m.svc.Advisor == nil {
		return "Advisor is not configured. Set OPENAI_API_KEY to enable it.\n"
	}

	var s strings.Builder
	if m.advisorBusy {
		s.WriteString("Thinking...\n\n")
	} else if m.advisorReply != "" {
		s.WriteString(replyStyle.Width(max(m.width-4, 40)).Render(m.advisorReply) + "\n\n")
	}
	s.WriteString(m.advisorInput.View() + "\n")
	s.WriteString(helpStyle.Render("enter: ask  esc: back") + "\n")
	return s.String()
}
