package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHMACVerifier_IssueAndVerify(t *testing.T) {
	v := NewHMACVerifier("test-secret")
	token, err := v.Issue("sub-123", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sub, err := v.Subject(context.Background(), token)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if sub != "sub-123" {
		t.Errorf("sub = %q, want sub-123", sub)
	}
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v := NewHMACVerifier("test-secret")
	expired, _ := v.Issue("sub-123", -time.Minute)
	otherKey, _ := NewHMACVerifier("other-secret").Issue("sub-123", time.Hour)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "sub-123",
	}).SignedString([]byte("test-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"expired", expired},
		{"wrong secret", otherKey},
		{"missing subject", noSubject},
		{"missing expiry", noExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Subject(context.Background(), tt.token); err == nil {
				t.Error("expected error")
			}
		})
	}
}
