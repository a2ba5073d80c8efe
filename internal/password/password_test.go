package password

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hash, err := Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash %q missing argon2id prefix", hash)
	}
	if !Verify(hash, "correct-horse") {
		t.Error("Verify should accept the correct password")
	}
	if Verify(hash, "wrong-password") {
		t.Error("Verify should reject an incorrect password")
	}
}

func TestHashLengthBounds(t *testing.T) {
	if _, err := Hash("short"); err == nil {
		t.Error("Hash should reject passwords shorter than MinLength")
	}
	if _, err := Hash(strings.Repeat("a", MaxLength+1)); err == nil {
		t.Error("Hash should reject passwords longer than MaxLength")
	}
}

func TestFileLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "password.hash")

	if IsSet(path) {
		t.Fatal("IsSet should be false before Set")
	}
	if err := Set(path, "hunter2!"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !IsSet(path) {
		t.Fatal("IsSet should be true after Set")
	}

	ok, err := VerifyFromFile(path, "hunter2!")
	if err != nil || !ok {
		t.Fatalf("VerifyFromFile(correct) = %v, %v", ok, err)
	}
	ok, err = VerifyFromFile(path, "wrong")
	if err != nil || ok {
		t.Fatalf("VerifyFromFile(wrong) = %v, %v", ok, err)
	}

	if err := Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if IsSet(path) {
		t.Fatal("IsSet should be false after Remove")
	}
}

func TestWireDigestDeterministic(t *testing.T) {
	a := WireDigest("secret", 123456789)
	b := WireDigest("secret", 123456789)
	if a != b {
		t.Error("WireDigest should be deterministic for the same inputs")
	}
	c := WireDigest("secret", 987654321)
	if a == c {
		t.Error("WireDigest should differ across remote device ids")
	}
}
