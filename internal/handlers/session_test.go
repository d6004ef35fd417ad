package handlers

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jjenkins/billtracker/internal/apperr"
)

func TestNewSessionManagerRequiresSecret(t *testing.T) {
	if _, err := NewSessionManager("", time.Hour); err == nil {
		t.Fatal("expected an error for an empty secret")
	}
}

func TestIssueAndParse(t *testing.T) {
	m, err := NewSessionManager("s3cret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Issue("  Volunteer@Example.org")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.Parse(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Email != "volunteer@example.org" || claims.Subject != "volunteer@example.org" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(issued.Add(time.Hour)) {
		t.Errorf("expires at %v", claims.ExpiresAt.Time)
	}
}

func TestParseRejects(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m, _ := NewSessionManager("s3cret", time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.Issue("volunteer@example.org")
	if err != nil {
		t.Fatal(err)
	}

	other, _ := NewSessionManager("another-secret", time.Hour)
	other.now = m.now

	expired, _ := NewSessionManager("s3cret", time.Hour)
	expired.now = func() time.Time { return issued.Add(2 * time.Hour) }

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{Email: "volunteer@example.org"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour))},
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		m     *SessionManager
		token string
	}{
		{"wrong secret", other, token},
		{"expired", expired, token},
		{"alg none", m, unsigned},
		{"missing email", m, noEmail},
		{"garbage", m, "abc.def.ghi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.m.Parse(tt.token)
			if !apperr.Is(err, apperr.KindUnauthorized) {
				t.Fatalf("err = %v, want unauthorized", err)
			}
		})
	}
}

func TestIssueRequiresEmail(t *testing.T) {
	m, _ := NewSessionManager("s3cret", time.Hour)
	if _, err := m.Issue("   "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v", err)
	}
}
