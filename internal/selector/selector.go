package selector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/quizlearner/backend/internal/assistant"
	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/domain/user"
)

const (
	// InitialQuestionCount is 3 questions per topic across the 8 topics.
	InitialQuestionCount = 24
	// AdaptiveQuestionCount is the size of every follow-up quiz.
	AdaptiveQuestionCount = 20

	perTopicInitial = 3
	// weakShare is the portion of an adaptive quiz drawn from weak topics.
	weakShare = 0.6
	// weakCap bounds the weak-topic draw regardless of quiz size.
	weakCap = 15
	// recentAttemptWindow is how many completed attempts back question
	// repetition is avoided.
	recentAttemptWindow = 2
	// maxGeneratedPerCall bounds AI backfill per selection.
	maxGeneratedPerCall = 3
)

// QuestionSource provides active bank questions for selection.
type QuestionSource interface {
	// ByTopic returns up to limit active questions for a topic.
	ByTopic(ctx context.Context, topic question.Topic, limit int) ([]question.Question, error)
	// Random returns up to count random active questions, excluding the
	// given IDs.
	Random(ctx context.Context, count int, excludeIDs []string) ([]question.Question, error)
	// RandomByTopics returns up to count random active questions from the
	// given topics, excluding the given IDs.
	RandomByTopics(ctx context.Context, topics []question.Topic, count int, excludeIDs []string) ([]question.Question, error)
	// RecentQuestionIDs returns the question IDs used in the user's most
	// recent completed attempts.
	RecentQuestionIDs(ctx context.Context, userID string, attempts int) ([]string, error)
	// SaveGenerated persists freshly generated questions to the bank.
	SaveGenerated(ctx context.Context, questions []*question.Question) error
}

// Generator produces new practice questions for weak topics. It is
// best-effort and may return fewer questions than asked.
type Generator interface {
	GenerateQuestions(ctx context.Context, weakTopics []assistant.WeakTopic, count int, generatedFor string) []*question.Question
}

// Selector assembles the question set for a quiz attempt.
type Selector struct {
	source    QuestionSource
	generator Generator
	logger    *slog.Logger
}

func New(source QuestionSource, generator Generator, logger *slog.Logger) *Selector {
	return &Selector{source: source, generator: generator, logger: logger}
}

// SelectInitial picks the diagnostic set: 3 questions per topic. Topics
// short on questions are backfilled with random ones, so the result is 24
// when the bank holds at least 24 active questions.
func (s *Selector) SelectInitial(ctx context.Context) ([]question.Question, error) {
	var selected []question.Question
	for _, topic := range question.AllTopics() {
		qs, err := s.source.ByTopic(ctx, topic, perTopicInitial)
		if err != nil {
			return nil, fmt.Errorf("selecting initial questions for %s: %w", topic, err)
		}
		selected = append(selected, qs...)
	}

	if len(selected) < InitialQuestionCount {
		extra, err := s.source.Random(ctx, InitialQuestionCount-len(selected), ids(selected))
		if err != nil {
			return nil, fmt.Errorf("backfilling initial questions: %w", err)
		}
		selected = append(selected, extra...)
	}

	shuffle(selected)
	return selected, nil
}

// SelectAdaptive picks the follow-up set for a user: 60% from their weak
// topics and the rest from the whole bank, avoiding questions seen in the
// last two completed attempts. When exclusions leave the set short, it
// backfills with AI-generated questions first and then relaxes the
// recency exclusion.
func (s *Selector) SelectAdaptive(ctx context.Context, u *user.User) ([]question.Question, error) {
	recentIDs, err := s.source.RecentQuestionIDs(ctx, u.ID, recentAttemptWindow)
	if err != nil {
		return nil, fmt.Errorf("loading recent question ids: %w", err)
	}

	weakTopics := u.WeakTopics()
	if len(weakTopics) == 0 {
		return s.selectRandom(ctx, recentIDs)
	}

	weakTarget := int(math.Floor(AdaptiveQuestionCount * weakShare))
	if weakTarget > weakCap {
		weakTarget = weakCap
	}
	generalTarget := AdaptiveQuestionCount - weakTarget

	selected, err := s.source.RandomByTopics(ctx, weakTopics, weakTarget, recentIDs)
	if err != nil {
		return nil, fmt.Errorf("selecting weak-topic questions: %w", err)
	}
	s.logger.Debug("weak-topic questions selected", "user_id", u.ID, "count", len(selected), "target", weakTarget)

	general, err := s.source.Random(ctx, generalTarget, append(append([]string{}, recentIDs...), ids(selected)...))
	if err != nil {
		return nil, fmt.Errorf("selecting general questions: %w", err)
	}
	selected = append(selected, general...)

	if len(selected) < AdaptiveQuestionCount {
		selected = s.backfillGenerated(ctx, u, weakTopics, selected)
	}

	// Still short: relax the recency exclusion and fill from the whole bank.
	if len(selected) < AdaptiveQuestionCount {
		extra, err := s.source.Random(ctx, AdaptiveQuestionCount-len(selected), ids(selected))
		if err != nil {
			return nil, fmt.Errorf("backfilling adaptive questions: %w", err)
		}
		selected = append(selected, extra...)
	}

	shuffle(selected)
	return selected, nil
}

// selectRandom covers the no-weak-topics case: a random set avoiding recent
// questions, relaxed when the bank is too small.
func (s *Selector) selectRandom(ctx context.Context, recentIDs []string) ([]question.Question, error) {
	selected, err := s.source.Random(ctx, AdaptiveQuestionCount, recentIDs)
	if err != nil {
		return nil, fmt.Errorf("selecting random questions: %w", err)
	}
	if len(selected) < AdaptiveQuestionCount {
		extra, err := s.source.Random(ctx, AdaptiveQuestionCount-len(selected), ids(selected))
		if err != nil {
			return nil, fmt.Errorf("backfilling random questions: %w", err)
		}
		selected = append(selected, extra...)
	}
	shuffle(selected)
	return selected, nil
}

// backfillGenerated asks the generator for up to maxGeneratedPerCall new
// questions targeting the user's weak topics, persists them, and adds them
// to the selection. Generation failures leave the selection unchanged.
func (s *Selector) backfillGenerated(ctx context.Context, u *user.User, weakTopics []question.Topic, selected []question.Question) []question.Question {
	if s.generator == nil {
		return selected
	}
	needed := AdaptiveQuestionCount - len(selected)
	if needed > maxGeneratedPerCall {
		needed = maxGeneratedPerCall
	}

	weak := make([]assistant.WeakTopic, 0, len(weakTopics))
	for _, t := range weakTopics {
		stat, ok := u.StatFor(t)
		if !ok {
			continue
		}
		weak = append(weak, assistant.WeakTopic{Topic: t, WeaknessScore: stat.WeaknessScore})
	}

	generated := s.generator.GenerateQuestions(ctx, weak, needed, u.ID)
	if len(generated) == 0 {
		return selected
	}
	if err := s.source.SaveGenerated(ctx, generated); err != nil {
		s.logger.Warn("failed to persist generated questions", "user_id", u.ID, "error", err)
		return selected
	}
	s.logger.Info("backfilled quiz with generated questions", "user_id", u.ID, "count", len(generated))
	for _, q := range generated {
		selected = append(selected, *q)
	}
	return selected
}

func ids(questions []question.Question) []string {
	out := make([]string, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}

func shuffle(questions []question.Question) {
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
