package quiz

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/id"
)

type Type string

const (
	TypeInitial  Type = "initial"
	TypeAdaptive Type = "adaptive"
)

var (
	// ErrAlreadyCompleted is returned when Complete or RecordAnswer is
	// invoked on a completed attempt. Completion is one-way and must not be
	// applied twice (the weakness update would double-count).
	ErrAlreadyCompleted = errors.New("quiz already completed")
	// ErrQuestionNotInQuiz is returned when an answer references a question
	// that was not part of this attempt.
	ErrQuestionNotInQuiz = errors.New("question not part of this quiz")
)

// Question is the frozen snapshot of a bank question inside one attempt.
// Later edits to the bank do not alter a historical attempt.
type Question struct {
	QuestionID           string
	Text                 string
	Options              []string
	CorrectAnswer        string
	Topic                question.Topic
	UserAnswer           string
	IsCorrect            bool
	TimeTaken            int // seconds
	ExplanationRequested bool
	Explanation          string
}

// TopicResult is the per-topic outcome of a completed attempt.
type TopicResult struct {
	Correct    int
	Total      int
	Percentage int
}

// Quiz is one attempt by one user. It moves through exactly one transition,
// from in progress to completed.
type Quiz struct {
	ID             string
	UserID         string
	Type           Type
	Questions      []Question
	TotalQuestions int
	CorrectAnswers int
	Score          int // 0-100, computed once at completion
	TopicAnalysis  map[question.Topic]TopicResult
	TimeTaken      int // total seconds
	StartedAt      time.Time
	CompletedAt    *time.Time
	IsCompleted    bool
}

// New starts an attempt by snapshotting the selected questions.
func New(userID string, typ Type, selected []question.Question) *Quiz {
	snapshots := make([]Question, len(selected))
	for i, q := range selected {
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		snapshots[i] = Question{
			QuestionID:    q.ID,
			Text:          q.Text,
			Options:       opts,
			CorrectAnswer: q.CorrectAnswer,
			Topic:         q.Topic,
		}
	}
	return &Quiz{
		ID:             id.GenerateID(),
		UserID:         userID,
		Type:           typ,
		Questions:      snapshots,
		TotalQuestions: len(snapshots),
		StartedAt:      time.Now(),
	}
}

// RecordAnswer stores the user's answer for one question. Correctness is
// exact, case-sensitive string equality against the snapshot; an empty
// answer is always incorrect.
func (qz *Quiz) RecordAnswer(questionID, userAnswer string, timeTaken int) error {
	if qz.IsCompleted {
		return ErrAlreadyCompleted
	}
	for i := range qz.Questions {
		if qz.Questions[i].QuestionID == questionID {
			qz.Questions[i].UserAnswer = userAnswer
			qz.Questions[i].IsCorrect = userAnswer != "" && userAnswer == qz.Questions[i].CorrectAnswer
			qz.Questions[i].TimeTaken = timeTaken
			return nil
		}
	}
	return ErrQuestionNotInQuiz
}

// Complete flips the attempt to its terminal state and computes the score
// and per-topic analysis. Calling it twice is an error, not a no-op.
func (qz *Quiz) Complete(totalTimeTaken int) error {
	if qz.IsCompleted {
		return ErrAlreadyCompleted
	}

	correct := 0
	for _, q := range qz.Questions {
		if q.IsCorrect {
			correct++
		}
	}
	qz.CorrectAnswers = correct
	qz.Score = roundPercent(correct, qz.TotalQuestions)
	qz.TopicAnalysis = computeTopicAnalysis(qz.Questions)
	qz.TimeTaken = totalTimeTaken

	now := time.Now()
	qz.CompletedAt = &now
	qz.IsCompleted = true
	return nil
}

// RefreshAnalysis recomputes the per-topic analysis of a completed attempt
// from its stored snapshots. Used when loading from persistence, where only
// the per-question outcomes are stored.
func (qz *Quiz) RefreshAnalysis() {
	if qz.IsCompleted {
		qz.TopicAnalysis = computeTopicAnalysis(qz.Questions)
	}
}

func computeTopicAnalysis(questions []Question) map[question.Topic]TopicResult {
	analysis := make(map[question.Topic]TopicResult)
	for _, q := range questions {
		r := analysis[q.Topic]
		r.Total++
		if q.IsCorrect {
			r.Correct++
		}
		r.Percentage = roundPercent(r.Correct, r.Total)
		analysis[q.Topic] = r
	}
	return analysis
}

// OrderedTopics returns the topics of this attempt in first-appearance
// order, giving deterministic iteration over TopicAnalysis.
func (qz *Quiz) OrderedTopics() []question.Topic {
	var topics []question.Topic
	seen := make(map[question.Topic]bool)
	for _, q := range qz.Questions {
		if !seen[q.Topic] {
			seen[q.Topic] = true
			topics = append(topics, q.Topic)
		}
	}
	return topics
}

// TopicScore pairs a topic with its attempt percentage for summaries.
type TopicScore struct {
	Topic      question.Topic `json:"topic"`
	Percentage int            `json:"percentage"`
}

// Summary is the per-attempt performance breakdown returned on submission.
type Summary struct {
	Score          int          `json:"score"`
	CorrectAnswers int          `json:"correctAnswers"`
	TotalQuestions int          `json:"totalQuestions"`
	WeakTopics     []TopicScore `json:"weakTopics"`
	StrongTopics   []TopicScore `json:"strongTopics"`
	TimeTaken      int          `json:"timeTaken"`
}

// PerformanceSummary classifies this attempt's topics: below 60% is weak
// (sorted worst first), 80% and above is strong (sorted best first).
func (qz *Quiz) PerformanceSummary() Summary {
	var weak, strong []TopicScore
	for _, t := range qz.OrderedTopics() {
		r := qz.TopicAnalysis[t]
		switch {
		case r.Percentage < 60:
			weak = append(weak, TopicScore{Topic: t, Percentage: r.Percentage})
		case r.Percentage >= 80:
			strong = append(strong, TopicScore{Topic: t, Percentage: r.Percentage})
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Percentage < weak[j].Percentage })
	sort.SliceStable(strong, func(i, j int) bool { return strong[i].Percentage > strong[j].Percentage })
	return Summary{
		Score:          qz.Score,
		CorrectAnswers: qz.CorrectAnswers,
		TotalQuestions: qz.TotalQuestions,
		WeakTopics:     weak,
		StrongTopics:   strong,
		TimeTaken:      qz.TimeTaken,
	}
}

func roundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
