package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
    const secret = "test-secret"
    at, err := NewAccessToken(secret, 42, 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if at.Token == "" {
        t.Fatal("empty token")
    }
    if remaining := time.Until(at.Exp); remaining < 14*time.Minute || remaining > 16*time.Minute {
        t.Errorf("expiry %v not ~15m out", at.Exp)
    }

    tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
        if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
            t.Fatalf("unexpected signing method %v", tok.Method)
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        t.Fatalf("parse issued token: %v", err)
    }
    claims := tok.Claims.(jwt.MapClaims)
    if sub, ok := claims["sub"].(float64); !ok || uint64(sub) != 42 {
        t.Errorf("sub claim = %v, want 42", claims["sub"])
    }
    if _, hasRole := claims["role"]; hasRole {
        t.Error("token carries a role claim; authorization is per entity and must not live in the token")
    }
}

func TestNewAccessTokenWrongSecret(t *testing.T) {
    at, err := NewAccessToken("right", 1, 5)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
        return []byte("wrong"), nil
    })
    if err == nil && tok.Valid {
        t.Error("token validated with the wrong secret")
    }
}

func TestNewRefreshToken(t *testing.T) {
    a, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    b, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if a.Raw == b.Raw {
        t.Error("two refresh tokens are identical")
    }
    if len(a.Raw) != 96 {
        t.Errorf("raw length = %d, want 96 hex chars", len(a.Raw))
    }
}

func TestHashRefreshRawIsStable(t *testing.T) {
    h1 := HashRefreshRaw("abc")
    h2 := HashRefreshRaw("abc")
    if h1 != h2 {
        t.Error("hash of the same input differs")
    }
    if h1 == HashRefreshRaw("abd") {
        t.Error("hashes of different inputs collide")
    }
    if len(h1) != 64 {
        t.Errorf("hash length = %d, want 64 hex chars", len(h1))
    }
}

func TestNewReceiptCode(t *testing.T) {
    a, err := NewReceiptCode()
    if err != nil {
        t.Fatalf("NewReceiptCode: %v", err)
    }
    b, _ := NewReceiptCode()
    if a == b {
        t.Error("two receipt codes are identical")
    }
    if len(a) != 32 {
        t.Errorf("code length = %d, want 32 hex chars", len(a))
    }
}

func TestPasswordRoundTrip(t *testing.T) {
    hash, err := HashPassword("s3cret", 4)
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    if !VerifyPassword(hash, "s3cret") {
        t.Error("correct password rejected")
    }
    if VerifyPassword(hash, "wrong") {
        t.Error("wrong password accepted")
    }
}
