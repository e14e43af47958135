package fakeapi

import (
	"crypto/rand"
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// signer signs and verifies the JWTs issued by the fake backend.
type signer interface {
	// Sign creates a signed JWT from claims
	Sign(claims jwtlib.MapClaims) (string, error)

	// GetVerificationKey returns the key used to verify token
	GetVerificationKey(token *jwtlib.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwtlib.SigningMethod
}

// hmacSigner implements signer using a random HS256 secret identified by kid.
type hmacSigner struct {
	keyID  string
	secret []byte
}

var _ signer = (*hmacSigner)(nil)

func newHMACSigner() *hmacSigner {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("fakeapi: generate signing secret: " + err.Error())
	}
	return &hmacSigner{keyID: uuid.NewString(), secret: secret}
}

func (h *hmacSigner) Sign(claims jwtlib.MapClaims) (string, error) {
	token := jwtlib.NewWithClaims(h.GetSigningMethod(), claims)
	token.Header["kid"] = h.keyID
	signed, err := token.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (h *hmacSigner) GetVerificationKey(token *jwtlib.Token) (any, error) {
	if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	if kid, _ := token.Header["kid"].(string); kid != h.keyID {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return h.secret, nil
}

func (h *hmacSigner) GetSigningMethod() jwtlib.SigningMethod {
	return jwtlib.SigningMethodHS256
}
