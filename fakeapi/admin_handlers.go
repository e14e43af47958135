package fakeapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type accountRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	CanRevokeAdmins      bool   `json:"can_revoke_admins"`
	MemorableInformation string `json:"memorable_information"`
}

type targetRequest struct {
	UserID      int    `json:"user_id"`
	NewPassword string `json:"new_password"`
}

// validateNewAccountLocked returns a message when req cannot become a new account.
func (s *Server) validateNewAccountLocked(req accountRequest) string {
	switch {
	case strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "":
		return "Username, email and password are required"
	case len(req.Password) < 8:
		return "Password must be at least 8 characters long"
	case s.accountByUsername(req.Username) != nil:
		return "Username already exists"
	case s.accountByEmail(req.Email) != nil:
		return "Email already exists"
	}
	return ""
}

func (s *Server) handleAdminList(w http.ResponseWriter, _ *http.Request, _ *account) {
	admins := []*account{}
	for _, a := range s.sortedAccounts() {
		if a.IsSuperuser {
			admins = append(admins, a)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

func (s *Server) handleAdminCreate(w http.ResponseWriter, r *http.Request, caller *account) {
	var req accountRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return
	}
	if msg := s.validateNewAccountLocked(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorBody(msg))
		return
	}
	a := s.addAccountLocked(UserSeed{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Superuser:       true,
		CanRevokeAdmins: req.CanRevokeAdmins,
	})
	s.logActivity(caller, "admin_created", a, "Created admin user "+a.Username)
	writeJSON(w, http.StatusCreated, map[string]string{"message": fmt.Sprintf("Admin user %s created successfully", a.Username)})
}

func (s *Server) handleAdminRevoke(w http.ResponseWriter, r *http.Request, caller *account) {
	var req targetRequest
	if err := readJSON(r, &req); err != nil || req.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("user_id is required"))
		return
	}
	if !caller.CanRevokeAdmins {
		writeJSON(w, http.StatusForbidden, errorBody("You do not have permission to revoke admin privileges"))
		return
	}
	if req.UserID == caller.ID {
		writeJSON(w, http.StatusBadRequest, errorBody("You cannot revoke your own admin privileges"))
		return
	}
	target, ok := s.accounts[req.UserID]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("User not found"))
		return
	}
	if !target.IsSuperuser {
		writeJSON(w, http.StatusBadRequest, errorBody("User is not an admin"))
		return
	}
	target.IsSuperuser = false
	target.CanRevokeAdmins = false
	s.logActivity(caller, "admin_revoked", target, "Revoked admin privileges from "+target.Username)
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Admin privileges revoked from %s", target.Username)})
}

func (s *Server) handleActivityLogs(w http.ResponseWriter, r *http.Request, _ *account) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	logs := []activityLog{}
	for i := len(s.logs) - 1; i >= 0 && len(logs) < limit; i-- {
		logs = append(logs, s.logs[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *Server) handleUsersList(w http.ResponseWriter, _ *http.Request, _ *account) {
	list := []*account{}
	for _, a := range s.sortedAccounts() {
		if !a.IsSuperuser {
			list = append(list, a)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": list})
}

func (s *Server) handleUsersCreate(w http.ResponseWriter, r *http.Request, caller *account) {
	var req accountRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return
	}
	if msg := s.validateNewAccountLocked(req); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorBody(msg))
		return
	}
	a := s.addAccountLocked(UserSeed{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	a.memorableInformation = req.MemorableInformation
	s.logActivity(caller, "user_created", a, "Created user "+a.Username)
	writeJSON(w, http.StatusCreated, map[string]string{"message": fmt.Sprintf("User %s created successfully", a.Username)})
}

func (s *Server) targetAccountLocked(w http.ResponseWriter, r *http.Request) (*account, targetRequest, bool) {
	var req targetRequest
	if err := readJSON(r, &req); err != nil || req.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("user_id is required"))
		return nil, req, false
	}
	target, ok := s.accounts[req.UserID]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("User not found"))
		return nil, req, false
	}
	return target, req, true
}

func (s *Server) handleUsersChangePassword(w http.ResponseWriter, r *http.Request, caller *account) {
	target, req, ok := s.targetAccountLocked(w, r)
	if !ok {
		return
	}
	if len(req.NewPassword) < 8 {
		writeJSON(w, http.StatusBadRequest, errorBody("Password must be at least 8 characters long"))
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}
	target.passwordHash = hash
	s.logActivity(caller, "password_changed", target, "Changed password for "+target.Username)
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Password changed for %s", target.Username)})
}

func (s *Server) handleUsersSendResetLink(w http.ResponseWriter, r *http.Request, caller *account) {
	target, _, ok := s.targetAccountLocked(w, r)
	if !ok {
		return
	}
	s.issueResetLocked(target)
	s.logActivity(caller, "reset_link_sent", target, "Sent password reset link to "+target.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Password reset link sent to %s", target.Email)})
}

func (s *Server) handleUsersToggleActive(w http.ResponseWriter, r *http.Request, caller *account) {
	target, _, ok := s.targetAccountLocked(w, r)
	if !ok {
		return
	}
	if target.ID == caller.ID {
		writeJSON(w, http.StatusBadRequest, errorBody("You cannot deactivate your own account"))
		return
	}
	target.IsActive = !target.IsActive
	action, verb := "user_activated", "activated"
	if !target.IsActive {
		action, verb = "user_deactivated", "deactivated"
	}
	s.logActivity(caller, action, target, fmt.Sprintf("User %s %s", target.Username, verb))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("User %s %s successfully", target.Username, verb),
		"is_active": target.IsActive,
	})
}
