// Package certstore manages the self-signed identity certificate described
// in spec.md §3 (Certificate material).
package certstore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/tanujdesk/remotedesk/internal/logging"
)

const (
	validityDays = 365
	orgName      = "RemoteDesk"

	certFileName = "server.crt"
	keyFileName  = "server.key"
)

var log = logging.L("certstore")

// Pair is a loaded or freshly generated self-signed identity, ready to hand
// to tls.Config.Certificates.
type Pair struct {
	Cert    *x509.Certificate
	TLSCert tls.Certificate
}

// generate creates a fresh ECDSA P-256 self-signed certificate embedding
// deviceID in its Common Name, valid for 365 days from now, with
// localhost/loopback Subject Alternative Names.
func generate(deviceID uint32) (*Pair, []byte, []byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("certstore: generate key: %w", err)
	}

	serialNumber, err := newSerial()
	if err != nil {
		return nil, nil, nil, err
	}

	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{orgName},
			CommonName:   fmt.Sprintf("RemoteDesk-%d", deviceID),
		},
		NotBefore:             now,
		NotAfter:              now.Add(validityDays * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("certstore: create certificate: %w", err)
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("certstore: parse generated certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("certstore: marshal private key: %w", err)
	}

	pair := &Pair{
		Cert: cert,
		TLSCert: tls.Certificate{
			Certificate: [][]byte{der},
			PrivateKey:  priv,
			Leaf:        cert,
		},
	}
	return pair, der, keyDER, nil
}

func newSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	return rand.Int(rand.Reader, limit)
}

// EnsureCertificate loads the certificate pair from dir, generating and
// persisting one if absent or unreadable (spec.md §3 lifecycle: generated
// on first start, reloaded thereafter, regenerated if load fails).
func EnsureCertificate(dir string, deviceID uint32) (*Pair, error) {
	pair, err := Load(dir)
	if err == nil {
		log.Info("loaded existing certificate", "dir", dir)
		return pair, nil
	}
	log.Warn("could not load existing certificate, generating new one", logging.KeyError, err)

	pair, certDER, keyDER, genErr := generate(deviceID)
	if genErr != nil {
		return nil, genErr
	}
	if saveErr := save(dir, certDER, keyDER); saveErr != nil {
		log.Warn("failed to persist certificate, will regenerate on next start", logging.KeyError, saveErr)
	}
	return pair, nil
}

// Load reads an existing certificate pair from dir. Returns an error if
// either file is missing or invalid.
func Load(dir string) (*Pair, error) {
	certPath := filepath.Join(dir, certFileName)
	keyPath := filepath.Join(dir, keyFileName)

	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("certstore: read %s: %w", certPath, err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("certstore: read %s: %w", keyPath, err)
	}

	tlsCert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("certstore: parse key pair: %w", err)
	}

	cert, err := x509.ParseCertificate(tlsCert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("certstore: parse certificate: %w", err)
	}
	tlsCert.Leaf = cert

	return &Pair{Cert: cert, TLSCert: tlsCert}, nil
}

func save(dir string, certDER, keyDER []byte) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("certstore: mkdir %s: %w", dir, err)
	}

	certPath := filepath.Join(dir, certFileName)
	keyPath := filepath.Join(dir, keyFileName)

	certOut := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	if err := os.WriteFile(certPath, certOut, 0644); err != nil {
		return fmt.Errorf("certstore: write %s: %w", certPath, err)
	}

	keyOut := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(keyPath, keyOut, 0600); err != nil {
		return fmt.Errorf("certstore: write %s: %w", keyPath, err)
	}

	log.Info("saved certificate", "dir", dir)
	return nil
}

// ClientTLSConfig returns a trust-on-handshake client TLS config: it accepts
// any certificate the peer presents. Application-layer authentication is
// performed separately via the password hash check (internal/connmgr).
func ClientTLSConfig(nextProtos []string) *tls.Config {
	return &tls.Config{
		InsecureSkipVerify:    true,
		NextProtos:            nextProtos,
		VerifyPeerCertificate: func(_ [][]byte, _ [][]*x509.Certificate) error { return nil },
	}
}

// ServerTLSConfig returns a tls.Config presenting pair's certificate.
func ServerTLSConfig(pair *Pair, nextProtos []string) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{pair.TLSCert},
		NextProtos:   nextProtos,
	}
}
