package fakeapi

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detail("JSON parse error."))
		return
	}
	var missing []string
	if req.Username == "" {
		missing = append(missing, "username")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, required(missing...))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.accountByUsername(req.Username)
	if a == nil || !a.IsActive || bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, detail("No active account found with the given credentials"))
		return
	}
	pair, err := s.issuePair(a)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, detail(err.Error()))
		return
	}
	now := s.now().UTC()
	a.LastLogin = &now
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detail("JSON parse error."))
		return
	}
	var missing []string
	for field, value := range map[string]string{"username": req.Username, "email": req.Email, "password": req.Password} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, required(missing...))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fieldErrors := map[string][]string{}
	if s.accountByUsername(req.Username) != nil {
		fieldErrors["username"] = []string{"A user with that username already exists."}
	}
	if s.accountByEmail(req.Email) != nil {
		fieldErrors["email"] = []string{"A user with that email already exists."}
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = []string{"This password is too short. It must contain at least 8 characters."}
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrors)
		return
	}

	a := s.addAccountLocked(UserSeed{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	pair, err := s.issuePair(a)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, detail(err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

func (s *Server) handleUserInfo(w http.ResponseWriter, _ *http.Request, caller *account) {
	writeJSON(w, http.StatusOK, caller.profile())
}

func (s *Server) handleProfilePicture(w http.ResponseWriter, r *http.Request, caller *account) {
	var req struct {
		ProfilePicture string `json:"profile_picture"`
	}
	if err := readJSON(r, &req); err != nil || strings.TrimSpace(req.ProfilePicture) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("profile_picture URL is required"))
		return
	}
	caller.ProfilePicture = req.ProfilePicture
	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Profile picture updated successfully",
		"profile_picture": caller.ProfilePicture,
	})
}
