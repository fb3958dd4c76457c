package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}

	if !strings.HasPrefix(key, APIKeyPrefix) {
		t.Errorf("Key should start with %q, got %s", APIKeyPrefix, key)
	}

	// prefix + raw base64 of 32 bytes = 4 + 43 chars
	if len(key) != 47 {
		t.Errorf("Key length = %d, want 47", len(key))
	}
}

func TestGenerateAPIKey_Uniqueness(t *testing.T) {
	keys := make(map[string]bool)

	for i := 0; i < 100; i++ {
		key, err := GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey() error = %v", err)
		}

		if keys[key] {
			t.Errorf("Duplicate key generated: %s", key)
		}
		keys[key] = true
	}
}

func TestHashAPIKey(t *testing.T) {
	key := "ajk_test123"

	hash1 := HashAPIKey(key)
	hash2 := HashAPIKey(key)

	if hash1 != hash2 {
		t.Errorf("HashAPIKey not deterministic: %s != %s", hash1, hash2)
	}

	if len(hash1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(hash1))
	}

	if hash1 == HashAPIKey("ajk_other") {
		t.Error("Different keys produced same hash")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	token, err := IssueToken("s3cret", "user-42", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	claims, err := verifyToken("s3cret", token)
	if err != nil {
		t.Fatalf("verifyToken() error = %v", err)
	}
	if claims["sub"] != "user-42" {
		t.Errorf("sub = %v, want user-42", claims["sub"])
	}

	if _, err := verifyToken("wrong", token); err == nil {
		t.Error("verifyToken() should fail with the wrong secret")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	token, err := IssueToken("s3cret", "user-42", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := verifyToken("s3cret", token); err == nil {
		t.Error("verifyToken() should reject an expired token")
	}
}
