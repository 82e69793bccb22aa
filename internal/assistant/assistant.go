package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quizlearner/backend/internal/domain/question"
)

// Client is the chat-completion backend behind the gateway. Implementations
// may call an LLM endpoint or return canned results (for tests).
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// WeakTopic pairs a topic with the user's weakness score for prompt building.
type WeakTopic struct {
	Topic         question.Topic
	WeaknessScore int
}

// Gateway produces explanations and practice questions. A nil client puts it
// in fallback-only mode: explanations come from templates and generation
// returns curated stand-ins, so the rest of the system keeps working without
// an API key.
type Gateway struct {
	client Client
	logger *slog.Logger
}

func NewGateway(client Client, logger *slog.Logger) *Gateway {
	return &Gateway{client: client, logger: logger}
}

// Explain returns a student-friendly explanation for a question. It never
// fails: when the client is absent or errors, a template explanation built
// from the question itself is returned instead.
func (g *Gateway) Explain(ctx context.Context, q *question.Question) string {
	if g.client == nil {
		return fallbackExplanation(q)
	}

	userPrompt := buildExplainPrompt(q)
	content, err := g.client.Complete(ctx, explainSystemPrompt, userPrompt, 500, 0.7)
	if err != nil {
		g.logger.Warn("explanation request failed, using fallback", "question_id", q.ID, "error", err)
		return fallbackExplanation(q)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fallbackExplanation(q)
	}
	return content
}

const explainSystemPrompt = "You are a helpful biology teacher for 6th-grade students. Provide clear, simple explanations that are easy to understand."

func buildExplainPrompt(q *question.Question) string {
	var opts strings.Builder
	for i, option := range q.Options {
		fmt.Fprintf(&opts, "%c. %s\n", 'A'+i, option)
	}

	return fmt.Sprintf(`You are an educational assistant for Class 6 Biology students. Please provide a clear, simple explanation for the following question:

Question: %s

Options:
%s
Correct Answer: %s

Please explain:
1. Why the correct answer is right
2. Why the other options are incorrect (briefly)
3. Any helpful tips or additional information that would help a 6th-grade student understand this concept

Keep the explanation simple, engaging, and appropriate for a 12-year-old student.`, q.Text, opts.String(), q.CorrectAnswer)
}
