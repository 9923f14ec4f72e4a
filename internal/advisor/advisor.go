package advisor

import (
	"context"
	"fmt"
	"log"

	"chainsight/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// metricHistoryDays bounds the per-metric history injected when the user
// asks about a specific series.
const metricHistoryDays = 7

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// PriceQuerier provides the current BTC price for the advisor's context.
type PriceQuerier interface {
	CurrentPrice(ctx context.Context) (*domain.PriceSnapshot, error)
}

// RunQuerier provides the latest strategy run for the advisor's context.
type RunQuerier interface {
	Latest(ctx context.Context) (*domain.StrategyRun, error)
}

// MetricQuerier provides on-chain metric readings for the advisor's context.
type MetricQuerier interface {
	Latest(ctx context.Context) ([]domain.MetricObservation, error)
	Series(ctx context.Context, metric string, limit int) ([]domain.MetricObservation, error)
}

// ConversationStore persists and retrieves conversation messages.
type ConversationStore interface {
	AppendMessage(ctx context.Context, chatID int64, role, content string) error
	RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.ConversationMessage, error)
}

type AdvisorService struct {
	tracer     trace.Tracer
	llm        LLMClient
	prices     PriceQuerier
	runs       RunQuerier
	metrics    MetricQuerier
	convStore  ConversationStore
	model      string
	maxHistory int
}

func NewAdvisorService(
	tracer trace.Tracer,
	llm LLMClient,
	prices PriceQuerier,
	runs RunQuerier,
	metrics MetricQuerier,
	convStore ConversationStore,
	model string,
	maxHistory int,
) *AdvisorService {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &AdvisorService{
		tracer:     tracer,
		llm:        llm,
		prices:     prices,
		runs:       runs,
		metrics:    metrics,
		convStore:  convStore,
		model:      model,
		maxHistory: maxHistory,
	}
}

func (s *AdvisorService) Ask(ctx context.Context, chatID int64, userMessage string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.ask")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatID))

	// 1. Persist the user message
	if err := s.convStore.AppendMessage(ctx, chatID, "user", userMessage); err != nil {
		log.Printf("failed to store user message: %v", err)
	}

	// 2. Extract mentioned metrics for targeted context
	mentionedMetrics := ExtractMetrics(userMessage)

	// 3. Gather dashboard context
	marketContext, err := s.gatherContext(ctx, mentionedMetrics)
	if err != nil {
		log.Printf("failed to gather market context: %v", err)
		marketContext = "Market data temporarily unavailable."
	}

	// 4. Build system prompt with live data
	systemPrompt := BuildSystemPrompt(marketContext)

	// 5. Load conversation history
	history, err := s.convStore.RecentMessages(ctx, chatID, s.maxHistory)
	if err != nil {
		log.Printf("failed to load conversation history: %v", err)
		history = nil
	}

	// 6. Construct messages array
	messages := s.buildMessages(systemPrompt, history)

	// 7. Call LLM
	reply, err := s.callLLM(ctx, messages)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("advisor unavailable: %w", err)
	}

	// 8. Persist the assistant reply
	if err := s.convStore.AppendMessage(ctx, chatID, "assistant", reply); err != nil {
		log.Printf("failed to store assistant reply: %v", err)
	}

	return reply, nil
}

func (s *AdvisorService) gatherContext(ctx context.Context, metricKeys []string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.gather-context")
	defer span.End()

	price, err := s.prices.CurrentPrice(ctx)
	if err != nil {
		return "", err
	}

	run, err := s.runs.Latest(ctx)
	if err != nil {
		log.Printf("failed to load latest run for advisor context: %v", err)
		run = nil
	}

	latest, err := s.metrics.Latest(ctx)
	if err != nil {
		log.Printf("failed to load metric values for advisor context: %v", err)
		latest = nil
	}

	series := make(map[string][]domain.MetricObservation)
	for _, key := range metricKeys {
		obs, err := s.metrics.Series(ctx, key, metricHistoryDays)
		if err == nil && len(obs) > 0 {
			series[key] = obs
		}
	}

	return FormatMarketContext(price, run, latest, series), nil
}

func (s *AdvisorService) buildMessages(
	systemPrompt string,
	history []domain.ConversationMessage,
) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)

	// System prompt always first
	messages = append(messages, openai.SystemMessage(systemPrompt))

	// Conversation history (already limited by RecentMessages query)
	for _, msg := range history {
		switch msg.Role {
		case "user":
			messages = append(messages, openai.UserMessage(msg.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	return messages
}

func (s *AdvisorService) callLLM(
	ctx context.Context,
	messages []openai.ChatCompletionMessageParamUnion,
) (string, error) {
	ctx, span := s.tracer.Start(ctx, "advisor.llm-call")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", s.model),
		attribute.Int("llm.message_count", len(messages)),
	)

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
