package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/payslip/pkg/cryptox"
	"github.com/aussiebroadwan/payslip/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCSRF is returned for any form token that does not verify.
var ErrInvalidCSRF = errors.New("csrf: invalid token")

const (
	csrfAudience   = "payslip-form"
	csrfKeyInfo    = "payslip-portal csrf v1"
	DefaultCSRFTTL = 30 * time.Minute
)

// CSRFService issues and checks the anti-forgery token embedded in the
// payslip form. Tokens are short-lived HS256 JWTs bound to the user id.
type CSRFService struct {
	key []byte
	ttl time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewCSRFService derives the signing key from secret with HKDF-SHA256.
func NewCSRFService(secret []byte, ttl time.Duration) (*CSRFService, error) {
	if len(secret) == 0 {
		return nil, errors.New("csrf: empty secret")
	}
	if ttl <= 0 {
		ttl = DefaultCSRFTTL
	}

	key, err := cryptox.DeriveKey(secret, csrfKeyInfo, 32)
	if err != nil {
		return nil, fmt.Errorf("csrf: %w", err)
	}

	return &CSRFService{key: key, ttl: ttl}, nil
}

// Issue returns a token for userID.
func (s *CSRFService) Issue(userID int) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		Audience:  jwt.ClaimStrings{csrfAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        idx.New().String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify checks that token was issued by this service for userID and has
// not expired.
func (s *CSRFService) Verify(token string, userID int) error {
	if token == "" {
		return ErrInvalidCSRF
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(csrfAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCSRF, err)
	}
	if claims.Subject != strconv.Itoa(userID) {
		return fmt.Errorf("%w: issued to another user", ErrInvalidCSRF)
	}
	return nil
}

func (s *CSRFService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
