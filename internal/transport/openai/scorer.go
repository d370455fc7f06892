package openai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/metrics"
)

const scorerSystemPrompt = "You rate how relevant a passage is to a question.\n" +
	"Respond with a single number between 0.0 and 1.0 and nothing else.\n" +
	"1.0 means the passage directly answers the question; 0.0 means it is unrelated."

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Scorer is a pairwise relevance model over chat completion. One call
// scores one (query, passage) pair, so it only runs on the small
// post-retrieval candidate set.
type Scorer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewScorer creates a chat-completion relevance scorer.
func NewScorer(cfg *Config) *Scorer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Scorer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Score implements domain.Scorer.
func (s *Scorer) Score(ctx context.Context, query, text string) (float64, error) {
	user := fmt.Sprintf("Question:\n%s\n\nPassage:\n%s\n\nScore:", query, text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0,
		MaxTokens:   8,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scorerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		metrics.RerankScoreRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return 0, fmt.Errorf("score request failed: %w", domain.ErrRerankProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.RerankScoreRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return 0, fmt.Errorf("empty score response: %w", domain.ErrRerankProviderError)
	}

	score, err := parseScore(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.RerankScoreRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return 0, err
	}

	metrics.RerankScoreRequestsTotal.WithLabelValues(s.provider, s.model, "success").Inc()
	return score, nil
}

// parseScore pulls the first number out of the reply and clamps it to
// [0, 1]. Models occasionally pad the number with prose despite the
// instructions.
func parseScore(reply string) (float64, error) {
	raw := numberRe.FindString(strings.TrimSpace(reply))
	if raw == "" {
		return 0, fmt.Errorf("no numeric score in reply %q: %w", reply, domain.ErrRerankProviderError)
	}

	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", raw, domain.ErrRerankProviderError)
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
