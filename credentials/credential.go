package credentials

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Well-known keys the token pair is persisted under.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// Credential is the bearer token pair returned by the token and register endpoints.
type Credential struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// IsZero reports whether no access token is present.
func (c Credential) IsZero() bool {
	return c.AccessToken == ""
}

// Token adapts the pair for use with an oauth2.Transport. The expiry is left
// unset: tokens are never refreshed client side.
func (c Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
}

// Claims is the display-only view of an access token.
type Claims struct {
	UserID    string
	TokenType string
	ExpiresAt time.Time
}

// Claims decodes the access token payload without verifying the signature.
// The server remains the only authority on token validity.
func (c Credential) Claims() (Claims, error) {
	token, _, err := jwtlib.NewParser().ParseUnverified(c.AccessToken, jwtlib.MapClaims{})
	if err != nil {
		return Claims{}, err
	}
	mapClaims, _ := token.Claims.(jwtlib.MapClaims)

	var claims Claims
	switch uid := mapClaims["user_id"].(type) {
	case string:
		claims.UserID = uid
	case float64:
		claims.UserID = strconv.FormatFloat(uid, 'f', -1, 64)
	}
	claims.TokenType, _ = mapClaims["token_type"].(string)
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// Origin reduces a base URL to scheme://host[:port]; stores are scoped by it.
func Origin(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return strings.TrimRight(baseURL, "/")
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
