package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smarttransit/flight-search-web/pkg/jwt"
)

// tenYears approximates "for the lifetime of the browser profile"
const tenYears = 10 * 365 * 24 * time.Hour

// CookieOptions controls how slot cookies are written
type CookieOptions struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

// CookieStore keeps slots in signed cookies on one request/response pair.
// A cookie whose signature does not verify reads as absent.
type CookieStore struct {
	c       *gin.Context
	signer  *jwt.Service
	opts    CookieOptions
	written map[string]string
}

// NewCookieStore creates a store bound to the current gin request
func NewCookieStore(c *gin.Context, signer *jwt.Service, opts CookieOptions) *CookieStore {
	if opts.MaxAge <= 0 {
		opts.MaxAge = tenYears
	}
	return &CookieStore{c: c, signer: signer, opts: opts, written: map[string]string{}}
}

// Get returns the verified value of the slot cookie
func (s *CookieStore) Get(_ context.Context, key string) (string, bool, error) {
	if value, ok := s.written[key]; ok {
		return value, true, nil
	}

	raw, err := s.c.Cookie(key)
	if err != nil || raw == "" {
		return "", false, nil
	}

	value, err := s.signer.VerifySlot(raw, key)
	if err != nil {
		return "", false, nil
	}
	return value, true, nil
}

// Set signs value and writes it as an HttpOnly cookie
func (s *CookieStore) Set(_ context.Context, key, value string) error {
	token, err := s.signer.SignSlot(key, value)
	if err != nil {
		return fmt.Errorf("failed to sign cookie %s: %w", key, err)
	}

	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(key, token, int(s.opts.MaxAge.Seconds()), "/", s.opts.Domain, s.opts.Secure, true)
	s.written[key] = value
	return nil
}
