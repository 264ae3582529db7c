package jwt

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "jwt-test-secret-jwt-test-secret-32"

func TestJWTService_AccessToken(t *testing.T) {
	s := NewJWTService(testSecret, time.Hour, 24*time.Hour)

	token, err := s.GenerateAccessToken(42, "ana@example.com", "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "ana@example.com" || claims.Role != "admin" || claims.Issuer != "popcorn" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := s.ValidateRefreshToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token accepted as refresh: %v", err)
	}
	if _, err := ParseUserToken(token, testSecret); err != nil {
		t.Errorf("ParseUserToken: %v", err)
	}
	if _, err := ParseUserToken(token, "another-secret-another-secret-000"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret err = %v", err)
	}
}

func TestJWTService_RefreshToken(t *testing.T) {
	s := NewJWTService(testSecret, time.Hour, 24*time.Hour)

	token, err := s.GenerateRefreshToken(7, "bob@example.com", "customer")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if _, err := s.ValidateRefreshToken(token); err != nil {
		t.Errorf("ValidateRefreshToken: %v", err)
	}
	if _, err := s.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token accepted as access: %v", err)
	}
}

func TestJWTService_Expired(t *testing.T) {
	s := NewJWTService(testSecret, -time.Minute, time.Hour)

	token, err := s.GenerateAccessToken(1, "a@example.com", "customer")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := s.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestJWTService_Malformed(t *testing.T) {
	s := NewJWTService(testSecret, time.Hour, time.Hour)
	for _, token := range []string{"", "abc", "a.b.c"} {
		if _, err := s.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ValidateToken(%q) err = %v", token, err)
		}
	}
}
