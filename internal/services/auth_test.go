package services

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	service := NewAuthService("test-secret", time.Hour)

	token, err := service.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := service.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("user_id в клейме %q, ожидалось u1", claims.UserID)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewAuthService("secret-a", time.Hour)
	verifier := NewAuthService("secret-b", time.Hour)

	token, err := issuer.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("токен с чужой подписью прошёл валидацию")
	}
}

func TestTokenExpired(t *testing.T) {
	service := NewAuthService("test-secret", -time.Minute)

	token, err := service.GenerateToken("u1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := service.ValidateToken(token); err == nil {
		t.Fatal("просроченный токен прошёл валидацию")
	}
}

func TestPasswordHash(t *testing.T) {
	service := NewAuthService("test-secret", time.Hour)

	hash, err := service.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("пароль сохранён открытым текстом")
	}

	if err := service.CheckPasswordHash("hunter2", hash); err != nil {
		t.Fatalf("верный пароль отклонён: %v", err)
	}
	if err := service.CheckPasswordHash("wrong", hash); err == nil {
		t.Fatal("неверный пароль принят")
	}
}
