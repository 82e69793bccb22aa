package api

import (
	"net/http"
	"time"

	"github.com/quizlearner/backend/internal/assistant"
	"github.com/quizlearner/backend/internal/domain/user"
)

// ============================================================================
// User
// ============================================================================

type topicStatPayload struct {
	Topic         string `json:"topic"`
	WeaknessScore int    `json:"weaknessScore"`
	StrengthScore int    `json:"strengthScore"`
	TotalAttempts int    `json:"totalAttempts"`
}

func toTopicStats(stats []user.TopicStat) []topicStatPayload {
	out := make([]topicStatPayload, len(stats))
	for i, s := range stats {
		out[i] = topicStatPayload{
			Topic:         string(s.Topic),
			WeaknessScore: s.WeaknessScore,
			StrengthScore: s.StrengthScore,
			TotalAttempts: s.TotalAttempts,
		}
	}
	return out
}

func weakTopicStats(u *user.User) []topicStatPayload {
	var weak []user.TopicStat
	for _, t := range u.WeakTopics() {
		if s, ok := u.StatFor(t); ok {
			weak = append(weak, s)
		}
	}
	return toTopicStats(weak)
}

// GET /api/user/profile
func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), claims(r).UserID)
	if h.handleStoreError(w, err, "User") {
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":                  u.ID,
			"email":               u.Email,
			"name":                u.Name,
			"role":                string(u.Role),
			"isActive":            u.IsActive,
			"hasTakenInitialQuiz": u.HasTakenInitial,
			"lastLoginAt":         u.LastLoginAt,
			"createdAt":           u.CreatedAt,
		},
		"statistics": map[string]any{
			"totalQuizzes": u.TotalQuizzes,
			"averageScore": u.AverageScore,
			"topicStats":   toTopicStats(u.TopicStats),
			"weakTopics":   weakTopicStats(u),
		},
	})
}

// GET /api/user/quiz-history
type quizHistoryItem struct {
	ID             string     `json:"id"`
	QuizType       string     `json:"quizType"`
	Score          int        `json:"score"`
	CorrectAnswers int        `json:"correctAnswers"`
	TotalQuestions int        `json:"totalQuestions"`
	TimeTaken      int        `json:"timeTaken"`
	CompletedAt    *time.Time `json:"completedAt"`
}

func (h *Handler) quizHistory(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, 10)

	quizzes, total, err := h.store.ListCompletedQuizzes(r.Context(), claims(r).UserID, (page-1)*limit, limit)
	if h.handleStoreError(w, err, "Quiz history") {
		return
	}

	items := make([]quizHistoryItem, len(quizzes))
	for i, qz := range quizzes {
		items[i] = quizHistoryItem{
			ID:             qz.ID,
			QuizType:       string(qz.Type),
			Score:          qz.Score,
			CorrectAnswers: qz.CorrectAnswers,
			TotalQuestions: qz.TotalQuestions,
			TimeTaken:      qz.TimeTaken,
			CompletedAt:    qz.CompletedAt,
		}
	}

	respondData(w, http.StatusOK, map[string]any{
		"quizzes":    items,
		"pagination": paginate(page, limit, total),
	})
}

// GET /api/user/quiz-report/{quizId}
type reportQuestionPayload struct {
	QuestionText         string   `json:"questionText"`
	Options              []string `json:"options"`
	CorrectAnswer        string   `json:"correctAnswer"`
	UserAnswer           string   `json:"userAnswer"`
	IsCorrect            bool     `json:"isCorrect"`
	Topic                string   `json:"topic"`
	ExplanationRequested bool     `json:"explanationRequested"`
	Explanation          string   `json:"explanation,omitempty"`
}

type topicAnalysisPayload struct {
	Topic      string `json:"topic"`
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

func (h *Handler) quizReport(w http.ResponseWriter, r *http.Request) {
	qz, err := h.store.GetQuiz(r.Context(), r.PathValue("quizId"), claims(r).UserID)
	if h.handleStoreError(w, err, "Quiz") {
		return
	}
	if !qz.IsCompleted {
		respondError(w, http.StatusNotFound, "Quiz not found")
		return
	}

	questions := make([]reportQuestionPayload, len(qz.Questions))
	for i, q := range qz.Questions {
		questions[i] = reportQuestionPayload{
			QuestionText:         q.Text,
			Options:              q.Options,
			CorrectAnswer:        q.CorrectAnswer,
			UserAnswer:           q.UserAnswer,
			IsCorrect:            q.IsCorrect,
			Topic:                string(q.Topic),
			ExplanationRequested: q.ExplanationRequested,
			Explanation:          q.Explanation,
		}
	}

	analysis := make([]topicAnalysisPayload, 0, len(qz.TopicAnalysis))
	for _, t := range qz.OrderedTopics() {
		res := qz.TopicAnalysis[t]
		analysis = append(analysis, topicAnalysisPayload{
			Topic:      string(t),
			Correct:    res.Correct,
			Total:      res.Total,
			Percentage: res.Percentage,
		})
	}

	respondData(w, http.StatusOK, map[string]any{
		"quiz": completedQuizPayload{
			ID:          qz.ID,
			QuizType:    string(qz.Type),
			CompletedAt: qz.CompletedAt,
			Summary:     qz.PerformanceSummary(),
		},
		"topicAnalysis": analysis,
		"questions":     questions,
	})
}

// GET /api/user/study-recommendations
func (h *Handler) studyRecommendations(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), claims(r).UserID)
	if h.handleStoreError(w, err, "User") {
		return
	}

	if u.TotalQuizzes == 0 {
		respondData(w, http.StatusOK, map[string]any{
			"recommendations": "Start taking quizzes to get personalized study recommendations based on your performance.",
			"basedOn": map[string]any{
				"quizzesTaken": 0,
				"averageScore": 0,
			},
		})
		return
	}

	profile := assistant.PerformanceProfile{
		AverageScore: u.AverageScore,
		QuizzesTaken: u.TotalQuizzes,
	}
	for _, t := range u.WeakTopics() {
		if s, ok := u.StatFor(t); ok {
			profile.WeakTopics = append(profile.WeakTopics, assistant.WeakTopic{Topic: t, WeaknessScore: s.WeaknessScore})
		}
	}
	for _, s := range u.TopicStats {
		if s.StrengthScore >= 70 {
			profile.StrongTopics = append(profile.StrongTopics, string(s.Topic))
		}
	}

	respondData(w, http.StatusOK, map[string]any{
		"recommendations": h.assistant.StudyRecommendations(r.Context(), profile),
		"basedOn": map[string]any{
			"quizzesTaken": u.TotalQuizzes,
			"averageScore": u.AverageScore,
			"weakTopics":   weakTopicStats(u),
		},
	})
}

// DELETE /api/user/account
func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := claims(r).UserID
	if err := h.store.DeleteUser(r.Context(), userID); h.handleStoreError(w, err, "User") {
		return
	}
	h.logger.Info("account deleted", "user_id", userID)
	respondMessage(w, http.StatusOK, "Account and all associated data have been permanently deleted", nil)
}
