package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/quizlearner/backend/internal/domain/user"
	"github.com/quizlearner/backend/internal/email"
	"github.com/quizlearner/backend/internal/id"
	"github.com/quizlearner/backend/internal/store"
)

// ============================================================================
// Admin
// ============================================================================

type adminUserPayload struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toAdminUser(u *user.User) adminUserPayload {
	return adminUserPayload{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// GET /api/admin/users
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, 10)

	filter := store.UserFilter{Offset: (page - 1) * limit, Limit: limit}
	if role := r.URL.Query().Get("role"); role != "" && role != "all" {
		if role != string(user.RoleUser) && role != string(user.RoleAdmin) {
			respondError(w, http.StatusBadRequest, "Invalid role filter")
			return
		}
		filter.Role = role
	}
	if status := r.URL.Query().Get("status"); status != "" && status != "all" {
		active := status == "active"
		filter.Active = &active
	}

	users, total, err := h.store.ListUsers(r.Context(), filter)
	if h.handleStoreError(w, err, "Users") {
		return
	}

	payload := make([]map[string]any, len(users))
	for i, u := range users {
		stats, err := h.store.UserQuizStats(r.Context(), u.ID)
		if err != nil {
			h.logger.Warn("failed to load user stats", "user_id", u.ID, "error", err)
		}
		var lastQuizAt *time.Time
		if stats.LastQuizAt > 0 {
			t := time.Unix(stats.LastQuizAt, 0)
			lastQuizAt = &t
		}
		payload[i] = map[string]any{
			"user": toAdminUser(u),
			"statistics": map[string]any{
				"totalQuizzes": stats.TotalQuizzes,
				"averageScore": stats.AverageScore,
				"lastQuizDate": lastQuizAt,
			},
		}
	}

	respondData(w, http.StatusOK, map[string]any{
		"users":      payload,
		"pagination": paginate(page, limit, total),
	})
}

// POST /api/admin/users
type addUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *Handler) addUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	address, ok := normalizeEmail(req.Email)
	if !ok {
		respondError(w, http.StatusBadRequest, "Valid email is required")
		return
	}
	role := user.RoleUser
	switch req.Role {
	case "", string(user.RoleUser):
	case string(user.RoleAdmin):
		role = user.RoleAdmin
	default:
		respondError(w, http.StatusBadRequest, "Role must be user or admin")
		return
	}

	u := user.New(address, req.Name)
	u.Role = role
	err := h.store.SaveUser(r.Context(), u)
	if errors.Is(err, store.ErrEmailTaken) {
		respondError(w, http.StatusConflict, "User with this email already exists")
		return
	}
	if err != nil {
		h.logger.Error("failed to create user", "email", address, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	// Delivery failures are logged by the dispatcher, not surfaced here.
	h.mail.Enqueue(id.GenerateID(), address, email.WelcomeSubject(), email.WelcomeBody(u.Name))

	respondMessage(w, http.StatusCreated, "User created successfully", map[string]any{
		"user": toAdminUser(u),
	})
}

// GET /api/admin/users/{userId}
func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), r.PathValue("userId"))
	if h.handleStoreError(w, err, "User") {
		return
	}

	quizzes, _, err := h.store.ListCompletedQuizzes(r.Context(), u.ID, 0, 10)
	if h.handleStoreError(w, err, "Quiz history") {
		return
	}
	history := make([]quizHistoryItem, len(quizzes))
	for i, qz := range quizzes {
		history[i] = quizHistoryItem{
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
		"user": toAdminUser(u),
		"statistics": map[string]any{
			"totalQuizzes": u.TotalQuizzes,
			"averageScore": u.AverageScore,
			"weakTopics":   weakTopicStats(u),
			"quizHistory":  history,
		},
	})
}

// PUT /api/admin/users/{userId}/status
type updateStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

func (h *Handler) updateUserStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		respondError(w, http.StatusBadRequest, "isActive must be a boolean value")
		return
	}

	userID := r.PathValue("userId")
	if err := h.store.UpdateUserStatus(r.Context(), userID, *req.IsActive); h.handleStoreError(w, err, "User") {
		return
	}

	u, err := h.store.GetUser(r.Context(), userID)
	if h.handleStoreError(w, err, "User") {
		return
	}

	message := "User deactivated successfully"
	if *req.IsActive {
		message = "User activated successfully"
	}
	respondMessage(w, http.StatusOK, message, map[string]any{"user": toAdminUser(u)})
}

// DELETE /api/admin/users/{userId}
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == claims(r).UserID {
		respondError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	if err := h.store.DeleteUser(r.Context(), userID); h.handleStoreError(w, err, "User") {
		return
	}
	h.logger.Info("user deleted by admin", "user_id", userID, "admin_id", claims(r).UserID)
	respondMessage(w, http.StatusOK, "User and all associated data deleted successfully", nil)
}

// GET /api/admin/users/{userId}/reports
func (h *Handler) userReports(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.GetUser(r.Context(), r.PathValue("userId"))
	if h.handleStoreError(w, err, "User") {
		return
	}

	page, limit := pageParams(r, 10)
	quizzes, total, err := h.store.ListCompletedQuizzes(r.Context(), u.ID, (page-1)*limit, limit)
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
		"user": map[string]any{
			"id":    u.ID,
			"email": u.Email,
			"role":  string(u.Role),
		},
		"quizzes":    items,
		"pagination": paginate(page, limit, total),
	})
}

// GET /api/admin/statistics
func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context())
	if h.handleStoreError(w, err, "Statistics") {
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"users": map[string]any{
			"total":    stats.TotalStudents,
			"active":   stats.ActiveStudents,
			"inactive": stats.TotalStudents - stats.ActiveStudents,
			"admins":   stats.TotalAdmins,
		},
		"quizzes": map[string]any{
			"total":        stats.CompletedQuizzes,
			"averageScore": stats.AverageScore,
		},
		"questions": map[string]any{
			"total":       stats.ActiveQuestions,
			"aiGenerated": stats.AIGenerated,
			"byTopic":     stats.ByTopic,
		},
	})
}
