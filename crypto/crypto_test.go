// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "12345678901234567890123456789012")
	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	crypto := NewCrypto()
	password := "testpassword123"

	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "" {
		t.Error("Hash should not be empty")
	}

	hash2, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("Second HashPassword failed: %v", err)
	}

	if hash == hash2 {
		t.Error("Two hashes of same password should be different (due to salt)")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "12345678901234567890123456789012")
	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	crypto := NewCrypto()
	password := "testpassword123"
	wrongPassword := "wrongpassword"

	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	err = crypto.VerifyPassword(password, hash)
	if err != nil {
		t.Errorf("VerifyPassword failed for correct password: %v", err)
	}

	err = crypto.VerifyPassword(wrongPassword, hash)
	if err == nil {
		t.Error("VerifyPassword should fail for wrong password")
	}

	err = crypto.VerifyPassword(password, "invalid-hash")
	if err == nil {
		t.Error("VerifyPassword should fail for invalid hash")
	}
}

func TestVerifyPasswordDifferentPepper(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "12345678901234567890123456789012")
	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	password := "testpassword123"

	hash, err := NewCrypto().HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	t.Setenv("HASHING_PEPPER", "a-completely-different-pepper-value")
	err = NewCrypto().VerifyPassword(password, hash)
	if err == nil {
		t.Error("VerifyPassword should fail when the pepper changes")
	}
}

func TestEncryptDecryptData(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "12345678901234567890123456789012")
	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	crypto := NewCrypto()
	testData := []byte("dg_live_9f86d081884c7d659a2feaa0c55ad015")

	encrypted, err := crypto.EncryptData(testData, "AES-GCM")
	if err != nil {
		t.Fatalf("EncryptData failed: %v", err)
	}

	if bytes.Equal(encrypted, testData) {
		t.Error("Encrypted data should be different from original")
	}

	decrypted, err := crypto.DecryptData(encrypted, "AES-GCM")
	if err != nil {
		t.Fatalf("DecryptData failed: %v", err)
	}

	if !bytes.Equal(decrypted, testData) {
		t.Error("Decrypted data should match original data")
	}

	_, err = crypto.EncryptData(testData, "UNSUPPORTED")
	if err == nil {
		t.Error("EncryptData should fail for unsupported algorithm")
	}

	_, err = crypto.DecryptData(encrypted, "UNSUPPORTED")
	if err == nil {
		t.Error("DecryptData should fail for unsupported algorithm")
	}
}

func TestDecryptDataCorrupted(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "12345678901234567890123456789012")
	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	crypto := NewCrypto()

	encrypted, err := crypto.EncryptData([]byte("some plaintext"), "AES-GCM")
	if err != nil {
		t.Fatalf("EncryptData failed: %v", err)
	}

	encrypted[len(encrypted)-1] ^= 0xff
	if _, err := crypto.DecryptData(encrypted, "AES-GCM"); err != ErrDecryptionFailed {
		t.Errorf("Expected ErrDecryptionFailed for tampered ciphertext, got %v", err)
	}

	if _, err := crypto.DecryptData([]byte{0x01, 0x02}, "AES-GCM"); err != ErrDecryptionFailed {
		t.Errorf("Expected ErrDecryptionFailed for truncated ciphertext, got %v", err)
	}
}

func TestDecryptDataShortKeyDerivation(t *testing.T) {
	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	t.Setenv("ENCRYPTION_KEY", "short-key-material")
	crypto := NewCrypto()
	testData := []byte("short key still encrypts")

	encrypted, err := crypto.EncryptData(testData, "AES-GCM")
	if err != nil {
		t.Fatalf("EncryptData with short key failed: %v", err)
	}

	decrypted, err := crypto.DecryptData(encrypted, "AES-GCM")
	if err != nil {
		t.Fatalf("DecryptData with short key failed: %v", err)
	}

	if !bytes.Equal(decrypted, testData) {
		t.Error("Decrypted data should match original data")
	}
}

func TestHashAPIKey(t *testing.T) {
	rawKey := "dg_live_9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	hash := HashAPIKey(rawKey)
	if len(hash) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(hash))
	}

	if hash != HashAPIKey(rawKey) {
		t.Error("Same key should produce same hash")
	}

	if hash == HashAPIKey(rawKey+"x") {
		t.Error("Different keys should produce different hashes")
	}
}

func TestHashAPIKeyManyKeys(t *testing.T) {
	seen := make(map[string]string, 10000)
	for i := 0; i < 10000; i++ {
		key, err := GenerateRandomString("dg_live_", 32, "hex")
		if err != nil {
			t.Fatalf("GenerateRandomString failed: %v", err)
		}
		hash := HashAPIKey(key)
		if prev, ok := seen[hash]; ok && prev != key {
			t.Fatalf("Hash collision between %s and %s", prev, key)
		}
		seen[hash] = key
		if hash != HashAPIKey(key) {
			t.Fatalf("Hash of %s is not stable", key)
		}
	}
}

func TestMaskKey(t *testing.T) {
	rawKey := "dg_live_9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

	masked := MaskKey(rawKey, 4)
	if !strings.HasPrefix(masked, "dg_live_") {
		t.Errorf("Masked key should keep the prefix, got %s", masked)
	}
	if !strings.HasSuffix(masked, rawKey[len(rawKey)-4:]) {
		t.Errorf("Masked key should keep the last 4 characters, got %s", masked)
	}
	if strings.Contains(masked, rawKey[8:len(rawKey)-4]) {
		t.Error("Masked key should not contain the hidden middle")
	}

	short := MaskKey("tiny", 4)
	if short != "****" {
		t.Errorf("Short keys should be fully masked, got %s", short)
	}
}

func TestGenerateRandomString(t *testing.T) {
	s, err := GenerateRandomString("dg_", 16, "hex")
	if err != nil {
		t.Fatalf("GenerateRandomString failed: %v", err)
	}
	if !strings.HasPrefix(s, "dg_") {
		t.Errorf("Expected dg_ prefix, got %s", s)
	}
	if len(s) != 3+32 {
		t.Errorf("Expected 35 characters, got %d", len(s))
	}

	s2, err := GenerateRandomString("dg_", 16, "hex")
	if err != nil {
		t.Fatalf("Second GenerateRandomString failed: %v", err)
	}
	if s == s2 {
		t.Error("Two random strings should differ")
	}

	if _, err := GenerateRandomString("", 16, "unsupported"); err == nil {
		t.Error("GenerateRandomString should fail for unsupported encoding")
	}
}

func TestCheck(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "12345678901234567890123456789012")
	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	if err := NewCrypto().Check(); err != nil {
		t.Errorf("Check should pass with valid configuration: %v", err)
	}

	t.Setenv("HASHING_PEPPER", "")
	if err := NewCrypto().Check(); err == nil {
		t.Error("Check should fail without a pepper")
	}

	t.Setenv("HASHING_PEPPER", "too-short")
	if err := NewCrypto().Check(); err == nil {
		t.Error("Check should fail with a short pepper")
	}

	t.Setenv("HASHING_PEPPER", "test-pepper-for-hashing-operations")
	t.Setenv("ENCRYPTION_KEY", "")
	if err := NewCrypto().Check(); err == nil {
		t.Error("Check should fail without an encryption key")
	}
}
