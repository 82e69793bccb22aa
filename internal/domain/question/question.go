package question

import (
	"errors"
	"time"

	"github.com/quizlearner/backend/internal/id"
)

// Topic is one of the eight fixed curriculum categories. Topics are the unit
// of weakness scoring and adaptive targeting.
type Topic string

const (
	TopicHumanBody     Topic = "Human Body Systems"
	TopicPlants        Topic = "Plant Structure and Function"
	TopicAnimals       Topic = "Animal Diversity"
	TopicNutrition     Topic = "Nutrition and Digestion"
	TopicRespiration   Topic = "Respiration and Circulation"
	TopicGrowth        Topic = "Growth and Development"
	TopicReproduction  Topic = "Reproduction"
	TopicEnvAdaptation Topic = "Environmental Adaptation"
)

// AllTopics returns the fixed curriculum topics in their canonical order.
func AllTopics() []Topic {
	return []Topic{
		TopicHumanBody,
		TopicPlants,
		TopicAnimals,
		TopicNutrition,
		TopicRespiration,
		TopicGrowth,
		TopicReproduction,
		TopicEnvAdaptation,
	}
}

// ValidTopic reports whether t is one of the fixed curriculum topics.
func ValidTopic(t Topic) bool {
	for _, known := range AllTopics() {
		if t == known {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func ValidDifficulty(d Difficulty) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Question is a single multiple-choice question in the bank. Questions are
// never physically deleted, only soft-deactivated via IsActive.
type Question struct {
	ID            string
	Text          string
	Options       []string
	CorrectAnswer string
	Topic         Topic
	Chapter       string
	Difficulty    Difficulty
	Subject       string
	Grade         string
	Explanation   string // cached AI explanation, empty until first requested
	IsActive      bool
	UsageCount    int
	IsAIGenerated bool
	GeneratedFor  string // user ID when AI-generated, empty otherwise
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	DefaultSubject = "Biology"
	DefaultGrade   = "Class 6"
)

// New creates an active question after validating it.
func New(text string, options []string, correctAnswer string, topic Topic, chapter string, difficulty Difficulty) (*Question, error) {
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	now := time.Now()
	q := &Question{
		ID:            id.GenerateID(),
		Text:          text,
		Options:       options,
		CorrectAnswer: correctAnswer,
		Topic:         topic,
		Chapter:       chapter,
		Difficulty:    difficulty,
		Subject:       DefaultSubject,
		Grade:         DefaultGrade,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate enforces the bank invariants: at least 2 distinct options, the
// correct answer among them, a known topic, and the required text fields.
func (q *Question) Validate() error {
	if q.Text == "" {
		return errors.New("question text is required")
	}
	if len(q.Options) < 2 {
		return errors.New("question must have at least 2 options")
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt == "" {
			return errors.New("question options must not be empty")
		}
		if seen[opt] {
			return errors.New("question options must be distinct")
		}
		seen[opt] = true
	}
	if !seen[q.CorrectAnswer] {
		return errors.New("correct answer must be one of the provided options")
	}
	if !ValidTopic(q.Topic) {
		return errors.New("unknown topic")
	}
	if q.Chapter == "" {
		return errors.New("chapter is required")
	}
	if !ValidDifficulty(q.Difficulty) {
		return errors.New("difficulty must be easy, medium or hard")
	}
	return nil
}
