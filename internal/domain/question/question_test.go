package question_test

import (
	"testing"

	"github.com/quizlearner/backend/internal/domain/question"
)

func validOptions() []string {
	return []string{"Heart", "Lungs", "Liver", "Kidneys"}
}

func TestNewQuestion(t *testing.T) {
	q, err := question.New("Which organ pumps blood?", validOptions(), "Heart", question.TopicHumanBody, "Circulatory System", question.DifficultyEasy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.ID == "" {
		t.Error("expected a generated ID")
	}
	if !q.IsActive {
		t.Error("expected new question to be active")
	}
	if q.Subject != question.DefaultSubject {
		t.Errorf("expected subject %q, got %q", question.DefaultSubject, q.Subject)
	}
	if q.Grade != question.DefaultGrade {
		t.Errorf("expected grade %q, got %q", question.DefaultGrade, q.Grade)
	}
	if q.UsageCount != 0 {
		t.Errorf("expected usage count 0, got %d", q.UsageCount)
	}
}

func TestNewQuestion_DefaultDifficulty(t *testing.T) {
	q, err := question.New("Which organ pumps blood?", validOptions(), "Heart", question.TopicHumanBody, "Circulatory System", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Difficulty != question.DifficultyMedium {
		t.Errorf("expected default difficulty %q, got %q", question.DifficultyMedium, q.Difficulty)
	}
}

func TestNewQuestion_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		options       []string
		correctAnswer string
		topic         question.Topic
		chapter       string
	}{
		{"empty text", "", validOptions(), "Heart", question.TopicHumanBody, "Circulatory System"},
		{"one option", "Q?", []string{"Heart"}, "Heart", question.TopicHumanBody, "Circulatory System"},
		{"duplicate options", "Q?", []string{"Heart", "Heart"}, "Heart", question.TopicHumanBody, "Circulatory System"},
		{"empty option", "Q?", []string{"Heart", ""}, "Heart", question.TopicHumanBody, "Circulatory System"},
		{"answer not an option", "Q?", validOptions(), "Brain", question.TopicHumanBody, "Circulatory System"},
		{"unknown topic", "Q?", validOptions(), "Heart", "Astronomy", "Circulatory System"},
		{"empty chapter", "Q?", validOptions(), "Heart", question.TopicHumanBody, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := question.New(tt.text, tt.options, tt.correctAnswer, tt.topic, tt.chapter, question.DifficultyEasy); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestAllTopics(t *testing.T) {
	topics := question.AllTopics()
	if len(topics) != 8 {
		t.Fatalf("expected 8 topics, got %d", len(topics))
	}
	for _, topic := range topics {
		if !question.ValidTopic(topic) {
			t.Errorf("topic %q should be valid", topic)
		}
	}
	if question.ValidTopic("Astronomy") {
		t.Error("unexpected topic should not be valid")
	}
}
