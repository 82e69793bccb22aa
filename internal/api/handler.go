package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quizlearner/backend/internal/assistant"
	"github.com/quizlearner/backend/internal/auth"
	"github.com/quizlearner/backend/internal/email"
	"github.com/quizlearner/backend/internal/selector"
	"github.com/quizlearner/backend/internal/store"
)

// Handler holds all dependencies needed by HTTP handlers.
// Instead of relying on package-level globals, every handler method
// receives its dependencies through this struct.
type Handler struct {
	store     *store.SQLiteStore
	selector  *selector.Selector
	assistant *assistant.Gateway
	otps      *auth.OTPService
	tokens    *auth.TokenService
	mail      *email.Dispatcher
	logger    *slog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(s *store.SQLiteStore, sel *selector.Selector, gw *assistant.Gateway,
	otps *auth.OTPService, tokens *auth.TokenService, mail *email.Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		store:     s,
		selector:  sel,
		assistant: gw,
		otps:      otps,
		tokens:    tokens,
		mail:      mail,
		logger:    logger,
	}
}

// envelope is the uniform response shape. Every endpoint, success or
// failure, answers with it.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Message: message})
}

// decodeJSON parses the request body into v. On failure it writes the 400
// response itself and reports false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// handleStoreError checks for common store errors and writes the appropriate
// HTTP response. Returns true if an error was handled (caller should return).
func (h *Handler) handleStoreError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, entity+" not found")
		return true
	}
	h.logger.Error("store error", "error", err, "entity", entity)
	respondError(w, http.StatusInternalServerError, "Internal server error")
	return true
}

// claims returns the authenticated identity. The auth middleware guarantees
// it is present on protected routes.
func claims(r *http.Request) *auth.Claims {
	c, _ := auth.ClaimsFromContext(r.Context())
	return c
}

// ============================================================================
// Pagination
// ============================================================================

type pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

const maxPageSize = 100

// pageParams reads page/limit query parameters with the given default page
// size, clamping both to sane values.
func pageParams(r *http.Request, defaultLimit int) (page, limit int) {
	page = queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = queryInt(r, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func paginate(page, limit, total int) pagination {
	totalPages := (total + limit - 1) / limit
	return pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNext:     page*limit < total,
		HasPrev:     page > 1,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
