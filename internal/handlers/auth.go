package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/crucial707/hci-lending/internal/middleware"
	"github.com/crucial707/hci-lending/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Secret   []byte
	TokenTTL time.Duration
	Timeout  time.Duration
}

// ==========================
// Login (staff only; password verified against the bcrypt hash)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required,max=255"`
		Password string `json:"password" validate:"required,max=72"`
	}
	if !decodeAndValidate(w, r, &input) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
	defer cancel()
	user, err := h.UserRepo.GetByUsername(ctx, input.Username)
	if errors.Is(err, repo.ErrUserNotFound) {
		JSONError(w, "invalid credentials", "unauthorized", http.StatusUnauthorized)
		return
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	// Borrowers without a password hash cannot log in.
	if user.PasswordHash == "" {
		JSONError(w, "invalid credentials", "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", "unauthorized", http.StatusUnauthorized)
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	signed, err := middleware.IssueToken(h.Secret, user, ttl)
	if err != nil {
		JSONError(w, "failed to issue token", "internal", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}

func (h *AuthHandler) timeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return 5 * time.Second
}
