package assistant_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/quizlearner/backend/internal/assistant"
	"github.com/quizlearner/backend/internal/domain/question"
)

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	return f.response, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleQuestion(t *testing.T) *question.Question {
	t.Helper()
	q, err := question.New(
		"Which organ pumps blood through the body?",
		[]string{"Heart", "Lungs", "Liver", "Kidneys"},
		"Heart",
		question.TopicHumanBody,
		"Circulatory System",
		question.DifficultyEasy,
	)
	if err != nil {
		t.Fatalf("failed to build question: %v", err)
	}
	return q
}

func TestExplain_UsesClient(t *testing.T) {
	g := assistant.NewGateway(&fakeClient{response: "The heart pumps blood."}, discardLogger())

	got := g.Explain(context.Background(), sampleQuestion(t))
	if got != "The heart pumps blood." {
		t.Errorf("expected client explanation, got %q", got)
	}
}

func TestExplain_FallbackOnError(t *testing.T) {
	g := assistant.NewGateway(&fakeClient{err: errors.New("boom")}, discardLogger())

	got := g.Explain(context.Background(), sampleQuestion(t))
	if !strings.Contains(got, "Correct Answer: A. Heart") {
		t.Errorf("fallback should name the correct answer, got %q", got)
	}
	if !strings.Contains(got, "circulation and the cardiovascular system") {
		t.Errorf("fallback should use the keyword topic, got %q", got)
	}
}

func TestExplain_NilClient(t *testing.T) {
	g := assistant.NewGateway(nil, discardLogger())

	got := g.Explain(context.Background(), sampleQuestion(t))
	if got == "" {
		t.Error("fallback explanation should never be empty")
	}
}

func TestGenerateQuestions_ValidOutput(t *testing.T) {
	response := "```json\n" + `[
  {
    "questionText": "Which part of the plant absorbs water?",
    "options": ["Leaf", "Root", "Flower", "Stem"],
    "correctAnswer": "Root",
    "topic": "Plant Structure and Function",
    "chapter": "Plant Parts",
    "difficulty": "easy"
  }
]` + "\n```"
	g := assistant.NewGateway(&fakeClient{response: response}, discardLogger())

	weak := []assistant.WeakTopic{{Topic: question.TopicPlants, WeaknessScore: 70}}
	qs := g.GenerateQuestions(context.Background(), weak, 3, "user1")

	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	q := qs[0]
	if !q.IsAIGenerated {
		t.Error("generated question should be flagged as AI generated")
	}
	if q.GeneratedFor != "user1" {
		t.Errorf("expected generatedFor user1, got %q", q.GeneratedFor)
	}
	if q.CorrectAnswer != "Root" {
		t.Errorf("expected correct answer Root, got %q", q.CorrectAnswer)
	}
}

func TestGenerateQuestions_RejectsInvalid(t *testing.T) {
	// Three options, answer not among options, and a duplicate option.
	response := `[
  {"questionText": "Q1?", "options": ["A", "B", "C"], "correctAnswer": "A", "topic": "Plant Structure and Function", "chapter": "Ch", "difficulty": "easy"},
  {"questionText": "Q2?", "options": ["A", "B", "C", "D"], "correctAnswer": "E", "topic": "Plant Structure and Function", "chapter": "Ch", "difficulty": "easy"},
  {"questionText": "Q3?", "options": ["A", "A", "B", "C"], "correctAnswer": "A", "topic": "Plant Structure and Function", "chapter": "Ch", "difficulty": "easy"},
  {"questionText": "Q4?", "options": ["A", "B", "C", "D"], "correctAnswer": "B", "topic": "Plant Structure and Function", "chapter": "Ch", "difficulty": "easy"}
]`
	g := assistant.NewGateway(&fakeClient{response: response}, discardLogger())

	weak := []assistant.WeakTopic{{Topic: question.TopicPlants, WeaknessScore: 70}}
	qs := g.GenerateQuestions(context.Background(), weak, 5, "user1")

	if len(qs) != 1 {
		t.Fatalf("expected only the valid question to survive, got %d", len(qs))
	}
	if qs[0].Text != "Q4?" {
		t.Errorf("expected Q4 to survive, got %q", qs[0].Text)
	}
}

func TestGenerateQuestions_TemplatesOnFailure(t *testing.T) {
	g := assistant.NewGateway(&fakeClient{err: errors.New("boom")}, discardLogger())

	weak := []assistant.WeakTopic{
		{Topic: question.TopicRespiration, WeaknessScore: 80},
		{Topic: question.TopicGrowth, WeaknessScore: 60},
	}
	qs := g.GenerateQuestions(context.Background(), weak, 3, "user1")

	if len(qs) != 2 {
		t.Fatalf("expected 2 template questions, got %d", len(qs))
	}
	for _, q := range qs {
		if !q.IsAIGenerated {
			t.Error("template question should be flagged as AI generated")
		}
		if err := q.Validate(); err != nil {
			t.Errorf("template question should validate: %v", err)
		}
	}
}

func TestGenerateQuestions_CapsAtCount(t *testing.T) {
	g := assistant.NewGateway(nil, discardLogger())

	weak := []assistant.WeakTopic{
		{Topic: question.TopicHumanBody, WeaknessScore: 90},
		{Topic: question.TopicPlants, WeaknessScore: 80},
		{Topic: question.TopicAnimals, WeaknessScore: 70},
	}
	qs := g.GenerateQuestions(context.Background(), weak, 2, "user1")

	if len(qs) != 2 {
		t.Errorf("expected at most 2 questions, got %d", len(qs))
	}
}

func TestGenerateQuestions_NoWeakTopics(t *testing.T) {
	g := assistant.NewGateway(nil, discardLogger())
	if qs := g.GenerateQuestions(context.Background(), nil, 3, "user1"); qs != nil {
		t.Errorf("expected nil for no weak topics, got %v", qs)
	}
}
