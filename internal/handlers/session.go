package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jjenkins/billtracker/internal/apperr"
)

const (
	sessionCookie  = "session"
	sessionUserKey = "session_email"
)

// SessionClaims identify a signed-in user
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session tokens
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager creates a SessionManager. An empty secret is rejected.
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a session token for email
func (m *SessionManager) Issue(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	now := m.now()
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies a token and returns its claims
func (m *SessionManager) Parse(token string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	claims := &SessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.New(apperr.KindUnauthorized, err, "invalid session")
	}
	if claims.Email == "" {
		return nil, apperr.Unauthorized("invalid session")
	}
	return claims, nil
}

// Require rejects requests without a valid session from the Authorization
// header or the session cookie
func (m *SessionManager) Require(c *fiber.Ctx) error {
	token := c.Cookies(sessionCookie)
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if token == "" {
		return apperr.Unauthorized("authentication required")
	}

	claims, err := m.Parse(token)
	if err != nil {
		return err
	}
	c.Locals(sessionUserKey, claims.Email)
	return c.Next()
}

// SessionEmail returns the signed-in user's email, if any
func SessionEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(sessionUserKey).(string)
	return email
}
