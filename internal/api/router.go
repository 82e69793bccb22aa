package api

import (
	"net/http"

	"github.com/quizlearner/backend/internal/auth"
)

// RegisterRoutes wires all endpoints onto the mux. Auth endpoints are
// public; quiz and user endpoints require a valid token; admin endpoints
// additionally require the admin role.
func RegisterRoutes(mux *http.ServeMux, h *Handler, users auth.UserVerifier) {
	authed := auth.Middleware(h.tokens, users)
	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, authed(fn))
	}
	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, authed(auth.RequireAdmin(fn)))
	}

	// Auth
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/verify-otp", h.verifyOTP)
	mux.HandleFunc("POST /api/auth/resend-otp", h.resendOTP)

	// Quizzes
	protected("POST /api/quiz/start", h.startQuiz)
	protected("POST /api/quiz/submit", h.submitQuiz)
	protected("GET /api/quiz/status/{quizId}", h.quizStatus)
	protected("POST /api/quiz/question/explain", h.explainQuestion)
	protected("GET /api/quiz/info", h.quizInfo)
	protected("POST /api/quiz/generate-questions", h.generateQuestions)

	// User
	protected("GET /api/user/profile", h.profile)
	protected("GET /api/user/quiz-history", h.quizHistory)
	protected("GET /api/user/quiz-report/{quizId}", h.quizReport)
	protected("GET /api/user/study-recommendations", h.studyRecommendations)
	protected("DELETE /api/user/account", h.deleteAccount)

	// Admin
	admin("GET /api/admin/users", h.listUsers)
	admin("POST /api/admin/users", h.addUser)
	admin("GET /api/admin/users/{userId}", h.getUser)
	admin("PUT /api/admin/users/{userId}/status", h.updateUserStatus)
	admin("DELETE /api/admin/users/{userId}", h.deleteUser)
	admin("GET /api/admin/users/{userId}/reports", h.userReports)
	admin("GET /api/admin/statistics", h.statistics)
}
