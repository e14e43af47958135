package fakeapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenExpiry  = 5 * time.Minute
	refreshTokenExpiry = 24 * time.Hour
)

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// issuePair signs an access/refresh pair for a. Callers hold s.mu.
func (s *Server) issuePair(a *account) (tokenPair, error) {
	access, err := s.sign(a, "access", accessTokenExpiry)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := s.sign(a, "refresh", refreshTokenExpiry)
	if err != nil {
		return tokenPair{}, err
	}
	return tokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Server) sign(a *account, tokenType string, expiry time.Duration) (string, error) {
	now := s.now()
	claims := jwtlib.MapClaims{
		"token_type": tokenType,
		"user_id":    a.ID,
		"iat":        now.Unix(),
		"exp":        now.Add(expiry).Unix(),
		"jti":        uuid.New().String(),
	}
	signed, err := s.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// accountFromRequest resolves the bearer token to an active account. Callers hold s.mu.
func (s *Server) accountFromRequest(r *http.Request) (*account, bool) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, false
	}
	parsed, err := jwtlib.Parse(raw, s.signer.GetVerificationKey, jwtlib.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, false
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || claims["token_type"] != "access" {
		return nil, false
	}
	uid, ok := claims["user_id"].(float64)
	if !ok {
		return nil, false
	}
	a, ok := s.accounts[int(uid)]
	if !ok || !a.IsActive {
		return nil, false
	}
	return a, true
}

type authedHandler func(w http.ResponseWriter, r *http.Request, caller *account)

// authenticated runs next with s.mu held and the caller resolved.
func (s *Server) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		caller, ok := s.accountFromRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next(w, r, caller)
	}
}

func (s *Server) superuser(next authedHandler) http.HandlerFunc {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, caller *account) {
		if !caller.IsSuperuser {
			writeJSON(w, http.StatusForbidden, errorBody("Only super users can perform this action."))
			return
		}
		next(w, r, caller)
	})
}
