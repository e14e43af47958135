package fakeapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, required("email"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountByEmail(req.Email)
	if a == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"No user found with this email address."}})
		return
	}
	key := strings.ToLower(a.Email)
	if remaining := s.resetCooldownLocked(key); remaining > 0 {
		seconds := int(remaining.Round(time.Second) / time.Second)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             "Too many password reset requests.",
			"rate_limited":      true,
			"seconds_remaining": seconds,
			"retry_message":     fmt.Sprintf("Please wait %d minutes and %d seconds before trying again.", seconds/60, seconds%60),
		})
		return
	}
	s.resetAttempts[key] = append(s.resetAttempts[key], s.now())
	s.issueResetLocked(a)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent. Please check your inbox."})
}

// resetCooldownLocked prunes stale attempts and returns the time left before
// another request is accepted.
func (s *Server) resetCooldownLocked(key string) time.Duration {
	now := s.now()
	var recent []time.Time
	for _, at := range s.resetAttempts[key] {
		if now.Sub(at) < resetWindow {
			recent = append(recent, at)
		}
	}
	s.resetAttempts[key] = recent
	if len(recent) < resetMaxAttempts {
		return 0
	}
	return resetWindow - now.Sub(recent[0])
}

func (s *Server) issueResetLocked(a *account) string {
	token := uuid.New().String()
	s.resetTokens[token] = &resetToken{token: token, email: a.Email, created: s.now()}
	s.sentResets = append(s.sentResets, a.Email)
	return token
}

func (s *Server) validResetLocked(token string) (*resetToken, string) {
	t, ok := s.resetTokens[token]
	switch {
	case !ok:
		return nil, "Invalid reset token."
	case t.used:
		return nil, "This reset link has already been used."
	case s.now().Sub(t.created) > resetTokenTTL:
		return nil, "This reset link has expired."
	}
	return t, ""
}

func (s *Server) handleResetValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := readJSON(r, &req); err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "error": "Token is required."})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, reason := s.validResetLocked(req.Token); reason != "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "error": reason})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "message": "Token is valid."})
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detail("JSON parse error."))
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Token and new password are required."))
		return
	}
	if len(req.NewPassword) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"new_password": {"This password is too short. It must contain at least 8 characters."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, reason := s.validResetLocked(req.Token)
	if reason != "" {
		writeJSON(w, http.StatusBadRequest, errorBody(reason))
		return
	}
	a := s.accountByEmail(t.email)
	if a == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid reset token."))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, detail(err.Error()))
		return
	}
	a.passwordHash = hash
	t.used = true
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset successfully."})
}
