package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/quizlearner/backend/internal/auth"
	"github.com/quizlearner/backend/internal/domain/user"
	"github.com/quizlearner/backend/internal/email"
	"github.com/quizlearner/backend/internal/id"
	"github.com/quizlearner/backend/internal/store"
)

// ============================================================================
// Auth
// ============================================================================

type userPayload struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Name                string `json:"name,omitempty"`
	Role                string `json:"role"`
	HasTakenInitialQuiz bool   `json:"hasTakenInitialQuiz"`
}

func toUserPayload(u *user.User) userPayload {
	return userPayload{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		Role:                string(u.Role),
		HasTakenInitialQuiz: u.HasTakenInitial,
	}
}

// POST /api/auth/login
type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	address, ok := normalizeEmail(req.Email)
	if !ok {
		respondError(w, http.StatusBadRequest, "Valid email is required")
		return
	}

	u, err := h.store.GetUserByEmail(r.Context(), address)
	if errors.Is(err, store.ErrNotFound) {
		// First login registers the account.
		u = user.New(address, strings.TrimSpace(req.Name))
		if err := h.store.SaveUser(r.Context(), u); err != nil {
			h.logger.Error("failed to register user", "email", address, "error", err)
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		h.logger.Info("user registered", "user_id", u.ID)
	} else if err != nil {
		h.logger.Error("failed to load user", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !u.IsActive {
		respondError(w, http.StatusForbidden, "Account is deactivated. Please contact administrator.")
		return
	}

	code, err := h.otps.Issue(r.Context(), address)
	if err != nil {
		h.logger.Error("failed to issue login code", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}
	h.mail.Enqueue(id.GenerateID(), address, email.OTPSubject(), email.OTPBody(code))

	respondMessage(w, http.StatusOK, "OTP sent to your email", map[string]any{"email": address})
}

// POST /api/auth/verify-otp
type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	address, ok := normalizeEmail(req.Email)
	if !ok || req.OTP == "" {
		respondError(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	if err := h.otps.Verify(r.Context(), address, req.OTP); err != nil {
		status, message := otpErrorResponse(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed to verify login code", "error", err)
		}
		respondError(w, status, message)
		return
	}

	u, err := h.store.GetUserByEmail(r.Context(), address)
	if h.handleStoreError(w, err, "User") {
		return
	}
	if err := h.store.UpdateUserLogin(r.Context(), u.ID, time.Now()); err != nil {
		h.logger.Warn("failed to record login time", "user_id", u.ID, "error", err)
	}

	token, err := h.tokens.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondMessage(w, http.StatusOK, "Login successful", map[string]any{
		"token": token,
		"user":  toUserPayload(u),
	})
}

// POST /api/auth/resend-otp
type resendOTPRequest struct {
	Email string `json:"email"`
}

func (h *Handler) resendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	address, ok := normalizeEmail(req.Email)
	if !ok {
		respondError(w, http.StatusBadRequest, "Valid email is required")
		return
	}

	u, err := h.store.GetUserByEmail(r.Context(), address)
	if h.handleStoreError(w, err, "User") {
		return
	}
	if !u.IsActive {
		respondError(w, http.StatusForbidden, "Account is deactivated. Please contact administrator.")
		return
	}

	code, err := h.otps.Reissue(r.Context(), address)
	if errors.Is(err, auth.ErrOTPRateLimited) {
		respondError(w, http.StatusTooManyRequests, "Too many OTP requests. Please wait before requesting again.")
		return
	}
	if err != nil {
		h.logger.Error("failed to reissue login code", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}
	h.mail.Enqueue(id.GenerateID(), address, email.OTPSubject(), email.OTPBody(code))

	respondMessage(w, http.StatusOK, "OTP sent to your email", map[string]any{"email": address})
}

func normalizeEmail(raw string) (string, bool) {
	address := strings.ToLower(strings.TrimSpace(raw))
	if address == "" {
		return "", false
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return "", false
	}
	return address, true
}

func otpErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrOTPNotFound):
		return http.StatusBadRequest, "No OTP found for this email. Please request a new one."
	case errors.Is(err, auth.ErrOTPExpired):
		return http.StatusBadRequest, "OTP has expired. Please request a new one."
	case errors.Is(err, auth.ErrOTPMaxAttempts):
		return http.StatusBadRequest, "Too many failed attempts. Please request a new OTP."
	case errors.Is(err, auth.ErrOTPInvalid):
		return http.StatusBadRequest, "Invalid OTP"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
