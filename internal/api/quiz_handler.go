package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/quizlearner/backend/internal/assistant"
	"github.com/quizlearner/backend/internal/domain/question"
	"github.com/quizlearner/backend/internal/domain/quiz"
	"github.com/quizlearner/backend/internal/selector"
	"github.com/quizlearner/backend/internal/store"
)

// ============================================================================
// Quizzes
// ============================================================================

type quizQuestionPayload struct {
	ID             string   `json:"id"`
	QuestionNumber int      `json:"questionNumber"`
	QuestionText   string   `json:"questionText"`
	Options        []string `json:"options"`
	Topic          string   `json:"topic"`
}

type startQuizResponse struct {
	ID             string                `json:"id"`
	QuizType       string                `json:"quizType"`
	TotalQuestions int                   `json:"totalQuestions"`
	StartedAt      time.Time             `json:"startedAt"`
	Questions      []quizQuestionPayload `json:"questions"`
}

// POST /api/quiz/start
func (h *Handler) startQuiz(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), claims(r).UserID)
	if h.handleStoreError(w, err, "User") {
		return
	}

	quizType := quiz.TypeInitial
	var selected []question.Question
	if u.HasTakenInitial {
		quizType = quiz.TypeAdaptive
		selected, err = h.selector.SelectAdaptive(r.Context(), u)
	} else {
		selected, err = h.selector.SelectInitial(r.Context())
	}
	if err != nil {
		h.logger.Error("question selection failed", "user_id", u.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to start quiz")
		return
	}
	if len(selected) == 0 {
		respondError(w, http.StatusServiceUnavailable, "No questions available. Please try again later.")
		return
	}

	qz := quiz.New(u.ID, quizType, selected)
	if err := h.store.SaveQuiz(r.Context(), qz); err != nil {
		h.logger.Error("failed to save quiz", "user_id", u.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to start quiz")
		return
	}

	ids := make([]string, len(selected))
	for i, q := range selected {
		ids[i] = q.ID
	}
	if err := h.store.IncrementUsage(r.Context(), ids); err != nil {
		h.logger.Warn("failed to bump question usage", "quiz_id", qz.ID, "error", err)
	}

	// Correct answers stay server-side until submission.
	payload := startQuizResponse{
		ID:             qz.ID,
		QuizType:       string(qz.Type),
		TotalQuestions: qz.TotalQuestions,
		StartedAt:      qz.StartedAt,
		Questions:      make([]quizQuestionPayload, len(qz.Questions)),
	}
	for i, q := range qz.Questions {
		payload.Questions[i] = quizQuestionPayload{
			ID:             q.QuestionID,
			QuestionNumber: i + 1,
			QuestionText:   q.Text,
			Options:        q.Options,
			Topic:          string(q.Topic),
		}
	}

	message := "Initial quiz started successfully"
	if quizType == quiz.TypeAdaptive {
		message = "Adaptive quiz started successfully"
	}
	respondMessage(w, http.StatusCreated, message, payload)
}

// POST /api/quiz/submit
type submitAnswer struct {
	QuestionID string `json:"questionId"`
	UserAnswer string `json:"userAnswer"`
	TimeTaken  int    `json:"timeTaken"`
}

type submitQuizRequest struct {
	QuizID    string         `json:"quizId"`
	Answers   []submitAnswer `json:"answers"`
	TimeTaken int            `json:"timeTaken"`
}

type completedQuizPayload struct {
	ID          string     `json:"id"`
	QuizType    string     `json:"quizType"`
	CompletedAt *time.Time `json:"completedAt"`
	quiz.Summary
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	var req submitQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.QuizID == "" || len(req.Answers) == 0 {
		respondError(w, http.StatusBadRequest, "Quiz ID and answers array are required")
		return
	}

	qz, err := h.store.GetQuiz(r.Context(), req.QuizID, claims(r).UserID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Quiz not found or already completed")
		return
	}
	if err != nil {
		h.logger.Error("failed to load quiz", "quiz_id", req.QuizID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to submit quiz")
		return
	}
	if qz.IsCompleted {
		respondError(w, http.StatusNotFound, "Quiz not found or already completed")
		return
	}

	// Answers for unknown question IDs are ignored; unanswered questions
	// count as incorrect.
	for _, a := range req.Answers {
		if err := qz.RecordAnswer(a.QuestionID, a.UserAnswer, a.TimeTaken); err != nil && !errors.Is(err, quiz.ErrQuestionNotInQuiz) {
			respondError(w, http.StatusNotFound, "Quiz not found or already completed")
			return
		}
	}
	if err := qz.Complete(req.TimeTaken); err != nil {
		respondError(w, http.StatusNotFound, "Quiz not found or already completed")
		return
	}

	if err := h.store.CompleteQuiz(r.Context(), qz); err != nil {
		if errors.Is(err, store.ErrAlreadyCompleted) {
			respondError(w, http.StatusNotFound, "Quiz not found or already completed")
			return
		}
		h.logger.Error("failed to persist quiz completion", "quiz_id", qz.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to submit quiz")
		return
	}

	// Fold this attempt's per-topic percentages into the running weakness.
	u, err := h.store.GetUser(r.Context(), qz.UserID)
	if err != nil {
		h.logger.Error("failed to load user for weakness update", "user_id", qz.UserID, "error", err)
	} else {
		for _, topic := range qz.OrderedTopics() {
			u.UpdateWeakness(topic, qz.TopicAnalysis[topic].Percentage)
		}
		if err := h.store.SaveTopicStats(r.Context(), u.ID, u.TopicStats); err != nil {
			h.logger.Error("failed to save topic stats", "user_id", u.ID, "error", err)
		}
	}

	summary := qz.PerformanceSummary()
	nextQuizMessage := "Great job! Keep practicing to maintain your performance."
	if len(summary.WeakTopics) > 0 {
		nextQuizMessage = "Your next quiz will focus on your weak areas to help you improve."
	}

	respondMessage(w, http.StatusOK, "Quiz submitted successfully", map[string]any{
		"quiz": completedQuizPayload{
			ID:          qz.ID,
			QuizType:    string(qz.Type),
			CompletedAt: qz.CompletedAt,
			Summary:     summary,
		},
		"recommendations": map[string]any{
			"weakTopics":      summary.WeakTopics,
			"strongTopics":    summary.StrongTopics,
			"nextQuizMessage": nextQuizMessage,
		},
	})
}

// GET /api/quiz/status/{quizId}
func (h *Handler) quizStatus(w http.ResponseWriter, r *http.Request) {
	qz, err := h.store.GetQuiz(r.Context(), r.PathValue("quizId"), claims(r).UserID)
	if h.handleStoreError(w, err, "Quiz") {
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"quiz": map[string]any{
			"id":             qz.ID,
			"quizType":       string(qz.Type),
			"isCompleted":    qz.IsCompleted,
			"totalQuestions": qz.TotalQuestions,
			"startedAt":      qz.StartedAt,
			"completedAt":    qz.CompletedAt,
		},
	})
}

// POST /api/quiz/question/explain
type explainRequest struct {
	QuestionID string `json:"questionId"`
	QuizID     string `json:"quizId"`
}

func (h *Handler) explainQuestion(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.QuestionID == "" {
		respondError(w, http.StatusBadRequest, "Question ID is required")
		return
	}

	q, err := h.store.GetQuestion(r.Context(), req.QuestionID)
	if h.handleStoreError(w, err, "Question") {
		return
	}

	source := "cached"
	explanation := q.Explanation
	if explanation == "" {
		source = "generated"
		explanation = h.assistant.Explain(r.Context(), q)
		if err := h.store.SetExplanation(r.Context(), q.ID, explanation); err != nil {
			h.logger.Warn("failed to cache explanation", "question_id", q.ID, "error", err)
		}
	}

	// Record the request on the attempt when it belongs to this user.
	if req.QuizID != "" {
		if err := h.store.MarkExplanationRequested(r.Context(), req.QuizID, claims(r).UserID, req.QuestionID, explanation); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("failed to mark explanation request", "quiz_id", req.QuizID, "error", err)
		}
	}

	respondData(w, http.StatusOK, map[string]any{
		"explanation": explanation,
		"source":      source,
	})
}

// GET /api/quiz/info
func (h *Handler) quizInfo(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), claims(r).UserID)
	if h.handleStoreError(w, err, "User") {
		return
	}
	totalQuestions, err := h.store.CountActiveQuestions(r.Context())
	if h.handleStoreError(w, err, "Questions") {
		return
	}

	quizType := quiz.TypeInitial
	questionCount := selector.InitialQuestionCount
	focusAreas := []question.Topic{}
	if u.HasTakenInitial {
		quizType = quiz.TypeAdaptive
		questionCount = selector.AdaptiveQuestionCount
		weak := u.WeakTopics()
		if len(weak) > 3 {
			weak = weak[:3]
		}
		focusAreas = weak
	}

	respondData(w, http.StatusOK, map[string]any{
		"quizType":       string(quizType),
		"questionCount":  questionCount,
		"totalQuestions": totalQuestions,
		"focusAreas":     focusAreas,
		"userStats": map[string]any{
			"totalQuizzesTaken": u.TotalQuizzes,
			"averageScore":      u.AverageScore,
		},
	})
}

// POST /api/quiz/generate-questions
func (h *Handler) generateQuestions(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), claims(r).UserID)
	if h.handleStoreError(w, err, "User") {
		return
	}

	weakTopics := u.WeakTopics()
	if len(weakTopics) == 0 {
		respondError(w, http.StatusBadRequest, "No weak topics identified. Take a quiz first to identify areas for improvement.")
		return
	}

	weak := make([]assistant.WeakTopic, 0, len(weakTopics))
	for _, t := range weakTopics {
		stat, ok := u.StatFor(t)
		if !ok {
			continue
		}
		weak = append(weak, assistant.WeakTopic{Topic: t, WeaknessScore: stat.WeaknessScore})
	}

	count := len(weak)
	if count < 3 {
		count = 3
	}
	if count > 5 {
		count = 5
	}

	generated := h.assistant.GenerateQuestions(r.Context(), weak, count, u.ID)
	if len(generated) == 0 {
		respondError(w, http.StatusInternalServerError, "Failed to generate questions. Please try again later.")
		return
	}
	if err := h.store.SaveGenerated(r.Context(), generated); err != nil {
		h.logger.Error("failed to save generated questions", "user_id", u.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to generate questions. Please try again later.")
		return
	}

	questions := make([]map[string]any, len(generated))
	for i, q := range generated {
		questions[i] = map[string]any{
			"id":           q.ID,
			"questionText": q.Text,
			"options":      q.Options,
			"topic":        string(q.Topic),
			"difficulty":   string(q.Difficulty),
		}
	}

	respondMessage(w, http.StatusCreated,
		fmt.Sprintf("Generated %d new questions for your weak topics", len(generated)),
		map[string]any{
			"questionsGenerated": len(generated),
			"weakTopics":         weakTopics,
			"questions":          questions,
		},
	)
}
