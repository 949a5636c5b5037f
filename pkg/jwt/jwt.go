package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "flight-search-web"

// SlotClaims carries one signed key/value slot, e.g. the client id cookie
type SlotClaims struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	jwt.RegisteredClaims
}

// Service signs and verifies slot values
type Service struct {
	secret string
	maxAge time.Duration // zero means the token never expires
}

// NewService creates a new slot signing service
func NewService(secret string, maxAge time.Duration) *Service {
	return &Service{
		secret: secret,
		maxAge: maxAge,
	}
}

// SignSlot wraps a slot value in a signed token
func (s *Service) SignSlot(key, value string) (string, error) {
	now := time.Now()
	claims := SlotClaims{
		Key:   key,
		Value: value,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   issuer,
			Subject:  key,
		},
	}
	if s.maxAge > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.maxAge))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign slot %s: %w", key, err)
	}

	return tokenString, nil
}

// VerifySlot validates a token and returns the value it carries for key
func (s *Service) VerifySlot(tokenString, key string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SlotClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return "", fmt.Errorf("failed to parse slot token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid slot token")
	}

	claims, ok := token.Claims.(*SlotClaims)
	if !ok {
		return "", fmt.Errorf("invalid slot token claims")
	}

	if claims.Key != key {
		return "", fmt.Errorf("slot token is for %q, not %q", claims.Key, key)
	}

	return claims.Value, nil
}
