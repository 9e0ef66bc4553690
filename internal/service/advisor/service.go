// Package advisor generates treatment recommendations and chat replies with
// an Ark-hosted chat model. Replies use the constrained markdown subset the
// transcript renderer understands.
package advisor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/cropcareai/backend/internal/config"
	"github.com/cropcareai/backend/internal/model/chat"
)

// Service wraps the compiled prompt+model chain.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the advisor from configuration. Fails when the Ark
// credentials are missing or the chain does not compile.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile advisor chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// StreamingEnabled reports whether SSE streaming is configured.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// TreatmentFor returns markdown treatment guidance for the named disease.
// The caller always gets renderable text: any model failure degrades to the
// canned fallback instead of an error, matching the upload page contract.
func (s *Service) TreatmentFor(ctx context.Context, diseaseName string) string {
	disease := strings.ReplaceAll(diseaseName, "_", " ")

	input := map[string]any{
		"system":  treatmentSystemPrompt,
		"history": nil,
		"query":   treatmentPrompt(disease),
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil || strings.TrimSpace(response.Content) == "" {
		log.Printf("[advisor] treatment generation failed for %q, using fallback: %v", disease, err)
		return FallbackTreatment(disease)
	}
	return response.Content
}

// Reply generates a chat answer for the running conversation. diseaseContext,
// when non-empty, anchors the reply to the diagnosed disease.
func (s *Service) Reply(ctx context.Context, history []chat.Message, userMessage, diseaseContext string) (string, error) {
	input := s.buildChainInput(history, userMessage, diseaseContext)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run advisor chain: %w", err)
	}

	log.Printf("[advisor] generated reply, history=%d, length=%d", len(history), len(response.Content))
	return response.Content, nil
}

// StreamReply streams the chat answer chunk by chunk.
func (s *Service) StreamReply(ctx context.Context, history []chat.Message, userMessage, diseaseContext string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	stream, err := s.chain.Stream(ctx, s.buildChainInput(history, userMessage, diseaseContext))
	if err != nil {
		return nil, fmt.Errorf("failed to stream advisor output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(history []chat.Message, userMessage, diseaseContext string) map[string]any {
	return map[string]any{
		"system":  assistantSystemPrompt(diseaseContext),
		"history": buildHistoryMessages(history),
		"query":   userMessage,
	}
}

// buildHistoryMessages keeps the most recent turns inside the model context
// window.
func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	const historyLimit = 10

	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderBot:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
