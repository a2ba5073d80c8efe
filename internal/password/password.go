// Package password implements the Argon2id hash store used to gate inbound
// connections (spec.md §3, §6, §9 Open Question 1).
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// MinLength is the shortest accepted plaintext password.
	MinLength = 6
	// MaxLength is the longest accepted plaintext password.
	MaxLength = 128

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// Hash derives a PHC-formatted Argon2id hash from password.
func Hash(password string) (string, error) {
	if err := validateLength(password); err != nil {
		return "", err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether password matches the PHC-formatted Argon2id hash.
func Verify(hash, password string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false
	}

	var memory uint32
	var time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func validateLength(password string) error {
	if len(password) < MinLength {
		return fmt.Errorf("password: must be at least %d characters", MinLength)
	}
	if len(password) > MaxLength {
		return fmt.Errorf("password: must be at most %d characters", MaxLength)
	}
	return nil
}

// IsSet reports whether a password hash file exists at path (spec.md §6:
// presence of password.hash enables password mode).
func IsSet(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads the PHC hash string stored at path.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("password: read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Set hashes password and persists it to path (owner-only permissions).
func Set(path, plaintext string) error {
	hash, err := Hash(plaintext)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(hash), 0600)
}

// Remove deletes the password hash file at path, disabling password mode.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// VerifyFromFile loads the hash at path and verifies password against it.
func VerifyFromFile(path, password string) (bool, error) {
	hash, err := Load(path)
	if err != nil {
		return false, err
	}
	return Verify(hash, password), nil
}

// WireDigest computes the spec.md §6 on-the-wire digest:
// SHA-256(password_bytes || remote_device_id_u32_le).
func WireDigest(password string, remoteDeviceID uint32) [32]byte {
	buf := make([]byte, 0, len(password)+4)
	buf = append(buf, []byte(password)...)
	buf = append(buf,
		byte(remoteDeviceID),
		byte(remoteDeviceID>>8),
		byte(remoteDeviceID>>16),
		byte(remoteDeviceID>>24),
	)
	return sha256.Sum256(buf)
}
