// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"docgate-server/commons"

	"github.com/alexedwards/argon2id"
)

const aesKeyLen = 32

// ErrDecryptionFailed is returned when ciphertext cannot be authenticated or
// decrypted. Callers must never treat the output of a failed decryption as
// plaintext.
var ErrDecryptionFailed = errors.New("decryption failed")

func NewCrypto() *Crypto {
	var (
		argonTime    uint32
		argonMemory  uint32
		argonThreads uint8
		argonKeyLen  uint32
		argonSaltLen uint32
	)
	if v := commons.GetEnv("ARGON2_TIME", "3"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			argonTime = uint32(i)
		}
	}
	if v := commons.GetEnv("ARGON2_MEMORY", "65536"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			argonMemory = uint32(i)
		}
	}
	if v := commons.GetEnv("ARGON2_THREADS", "1"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			argonThreads = uint8(i)
		}
	}
	if v := commons.GetEnv("ARGON2_KEYLEN", "32"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			argonKeyLen = uint32(i)
		}
	}
	if v := commons.GetEnv("ARGON2_SALTLEN", "16"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			argonSaltLen = uint32(i)
		}
	}
	return &Crypto{
		ArgonTime:     argonTime,
		ArgonMemory:   argonMemory,
		ArgonThreads:  argonThreads,
		ArgonKeyLen:   argonKeyLen,
		ArgonSaltLen:  argonSaltLen,
		EncryptionKey: commons.GetEnv("ENCRYPTION_KEY"),
		HashingPepper: commons.GetEnv("HASHING_PEPPER"),
	}
}

// Check validates process-wide secret material. Misconfiguration is fatal at
// startup, never surfaced per request.
func (c *Crypto) Check() error {
	if c.HashingPepper == "" {
		return errors.New("HASHING_PEPPER environment variable is required")
	}
	if len(c.HashingPepper) < 16 {
		return errors.New("HASHING_PEPPER must be at least 16 characters")
	}
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY environment variable is required")
	}
	if len(c.EncryptionKey) < 16 {
		return errors.New("ENCRYPTION_KEY must be at least 16 characters")
	}
	return nil
}

func (c *Crypto) HashPassword(password string) (string, error) {
	commons.Logger.Debug("Hashing password")
	params := &argon2id.Params{
		Memory:      c.ArgonMemory,
		Iterations:  c.ArgonTime,
		Parallelism: c.ArgonThreads,
		SaltLength:  c.ArgonSaltLen,
		KeyLength:   c.ArgonKeyLen,
	}
	hash, err := argon2id.CreateHash(password+c.HashingPepper, params)
	if err != nil {
		return "", err
	}
	commons.Logger.Debug("Password hashed")
	return hash, nil
}

// VerifyPassword returns a generic error on mismatch. Malformed stored hashes
// are reported the same way so the caller cannot distinguish them.
func (c *Crypto) VerifyPassword(password, encodedHash string) error {
	commons.Logger.Debug("Verifying password")
	match, err := argon2id.ComparePasswordAndHash(password+c.HashingPepper, encodedHash)
	if err != nil || !match {
		return fmt.Errorf("password verification failed")
	}
	return nil
}

// HashAPIKey is a deterministic digest used purely as a storage lookup key.
// Raw API keys carry 256 bits of entropy, so a memory-hard hash would only
// add validation latency.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// deriveAESKey stretches key material shorter than 32 bytes via SHA-256 and
// truncates longer material to 32 bytes. The asymmetry is long-standing
// behavior; changing either side silently re-keys every stored ciphertext.
func deriveAESKey(material string) []byte {
	if len(material) < aesKeyLen {
		sum := sha256.Sum256([]byte(material))
		return sum[:]
	}
	return []byte(material)[:aesKeyLen]
}

func (c *Crypto) EncryptData(data []byte, algorithm string) ([]byte, error) {
	switch algorithm {
	case "AES-GCM":
		block, err := aes.NewCipher(deriveAESKey(c.EncryptionKey))
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		nonce := make([]byte, gcm.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return nil, err
		}
		return gcm.Seal(nonce, nonce, data, nil), nil
	default:
		return nil, fmt.Errorf("unsupported encryption algorithm: %s", algorithm)
	}
}

func (c *Crypto) DecryptData(data []byte, algorithm string) ([]byte, error) {
	switch algorithm {
	case "AES-GCM":
		block, err := aes.NewCipher(deriveAESKey(c.EncryptionKey))
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		if len(data) < gcm.NonceSize() {
			return nil, ErrDecryptionFailed
		}
		nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
		plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
		if err != nil {
			return nil, ErrDecryptionFailed
		}
		return plaintext, nil
	default:
		return nil, fmt.Errorf("unsupported decryption algorithm: %s", algorithm)
	}
}

// MaskKey produces a display form of a raw API key: fixed-length prefix and
// suffix with the middle replaced. Never usable for lookups.
func MaskKey(rawKey string, visibleSuffixLen int) string {
	if len(rawKey) <= 8+visibleSuffixLen {
		return strings.Repeat("*", len(rawKey))
	}
	return rawKey[:8] + strings.Repeat("*", 8) + rawKey[len(rawKey)-visibleSuffixLen:]
}

func GenerateRandomString(prefix string, length int, encoding string) (string, error) {
	supported_encodings := []string{"hex", "base64"}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	switch encoding {
	case "hex":
		return prefix + hex.EncodeToString(b), nil
	case "base64":
		return prefix + base64.StdEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s, Supported encodings are: %s", encoding, supported_encodings)
	}
}
