package certstore

import (
	"path/filepath"
	"testing"
)

func TestEnsureCertificateGeneratesAndReloads(t *testing.T) {
	dir := t.TempDir()

	first, err := EnsureCertificate(dir, 123456789)
	if err != nil {
		t.Fatalf("EnsureCertificate (generate): %v", err)
	}
	if first.Cert.Subject.CommonName != "RemoteDesk-123456789" {
		t.Errorf("CommonName = %q, want RemoteDesk-123456789", first.Cert.Subject.CommonName)
	}

	second, err := EnsureCertificate(dir, 123456789)
	if err != nil {
		t.Fatalf("EnsureCertificate (reload): %v", err)
	}
	if !second.Cert.NotBefore.Equal(first.Cert.NotBefore) {
		t.Errorf("expected the persisted certificate to be reloaded, not regenerated")
	}
}

func TestEnsureCertificateSANs(t *testing.T) {
	dir := t.TempDir()
	pair, err := EnsureCertificate(dir, 111111111)
	if err != nil {
		t.Fatalf("EnsureCertificate: %v", err)
	}

	if len(pair.Cert.DNSNames) != 1 || pair.Cert.DNSNames[0] != "localhost" {
		t.Errorf("DNSNames = %v, want [localhost]", pair.Cert.DNSNames)
	}
	if len(pair.Cert.IPAddresses) != 2 {
		t.Errorf("IPAddresses = %v, want 2 loopback entries", pair.Cert.IPAddresses)
	}
}

func TestLoadMissingFails(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "nonexistent")); err == nil {
		t.Fatal("Load on missing directory should fail")
	}
}
