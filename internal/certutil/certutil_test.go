package certutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/ProtonVPN/vpn-session-core/internal/keymgr"
)

// selfSignedCert builds a minimal self-signed X.509 certificate over pub,
// valid for [notBefore, notAfter), and returns its PEM encoding.
func selfSignedCert(t *testing.T, pub ed25519.PublicKey, priv ed25519.PrivateKey, notBefore, notAfter time.Time) string {
	t.Helper()

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-client"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestParseAndValidityWindow(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	notBefore := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	notAfter := notBefore.Add(24 * time.Hour)
	pemText := selfSignedCert(t, pub, priv, notBefore, notAfter)

	cert, err := Parse(pemText)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cert.PEM() != pemText {
		t.Error("PEM() did not return the original input text")
	}
	if !cert.NotBefore().Equal(notBefore) {
		t.Errorf("NotBefore() = %v, want %v", cert.NotBefore(), notBefore)
	}
	if !cert.NotAfter().Equal(notAfter) {
		t.Errorf("NotAfter() = %v, want %v", cert.NotAfter(), notAfter)
	}

	if !cert.IsCurrentlyValid(notBefore.Add(time.Hour)) {
		t.Error("expected certificate to be valid one hour in")
	}
	if cert.IsCurrentlyValid(notBefore.Add(-time.Minute)) {
		t.Error("expected certificate to be invalid before NotBefore")
	}
	if cert.IsCurrentlyValid(notAfter) {
		t.Error("expected certificate to be invalid at or after NotAfter")
	}

	remaining := cert.RemainingValiditySeconds(notBefore.Add(time.Hour))
	if remaining <= 0 || remaining > 24*3600 {
		t.Errorf("RemainingValiditySeconds = %v, want a value in (0, 86400]", remaining)
	}

	if got, want := cert.DurationSeconds(), float64(24*3600); got != want {
		t.Errorf("DurationSeconds() = %v, want %v", got, want)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not a pem block"); err == nil {
		t.Error("expected error for non-PEM input, got nil")
	}
}

// TestServiceFingerprintMatchesKeymgr checks that the public-key-only
// Edwards-to-Montgomery conversion here agrees with keymgr's
// private-scalar derivation for the same key pair — the two halves of the
// same birational map must always produce the same X25519 public key,
// and therefore the same fingerprint.
func TestServiceFingerprintMatchesKeymgr(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	handler, err := keymgr.FromSeed(priv.Seed())
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}

	notBefore := time.Now()
	pemText := selfSignedCert(t, pub, priv, notBefore, notBefore.Add(time.Hour))

	cert, err := Parse(pemText)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got, err := cert.ServiceFingerprint()
	if err != nil {
		t.Fatalf("ServiceFingerprint: %v", err)
	}

	if want := handler.Fingerprint(); got != want {
		t.Errorf("certificate-derived fingerprint %q does not match key-derived fingerprint %q", got, want)
	}
}
