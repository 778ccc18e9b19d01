package credentials

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnerrors"
)

// newBundle builds a Bundle whose certificate is valid for [now, now+ttl),
// with secrets whose Ed25519 seed matches the certified key so New's
// fingerprint check passes.
func newBundle(t *testing.T, now time.Time, ttl time.Duration) *Bundle {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-client"},
		NotBefore:    now,
		NotAfter:     now.Add(ttl),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	certPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))

	secrets := apitypes.VPNSecrets{
		WireGuardPrivateKey: "wg-private-key-placeholder",
		OpenVPNPrivateKey:   "openvpn-private-key-placeholder",
		Ed25519PrivateKey:   base64.StdEncoding.EncodeToString(priv.Seed()),
	}

	b, err := New(certPEM, secrets, "", true, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestNewRejectsFingerprintMismatchWhenStrict(t *testing.T) {
	now := time.Now()

	_, certPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	certPub := certPriv.Public().(ed25519.PublicKey)
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-client"},
		NotBefore:    now,
		NotAfter:     now.Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, certPub, certPriv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	certPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))

	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	secrets := apitypes.VPNSecrets{
		Ed25519PrivateKey: base64.StdEncoding.EncodeToString(otherPriv.Seed()),
	}

	if _, err := New(certPEM, secrets, "", true, nil); !errors.Is(err, vpnerrors.ErrFingerprintMismatch) {
		t.Errorf("expected ErrFingerprintMismatch, got %v", err)
	}

	if _, err := New(certPEM, secrets, "", false, nil); err != nil {
		t.Errorf("non-strict mode should tolerate a mismatch, got %v", err)
	}
}

func TestNewToleratesWireFingerprintMismatch(t *testing.T) {
	now := time.Now()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-client"},
		NotBefore:    now,
		NotAfter:     now.Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, pub, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	certPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	secrets := apitypes.VPNSecrets{
		Ed25519PrivateKey: base64.StdEncoding.EncodeToString(priv.Seed()),
	}

	// A wire fingerprint that disagrees with the certificate is logged, not
	// fatal: construction still succeeds.
	if _, err := New(certPEM, secrets, "not-a-real-fingerprint", true, nil); err != nil {
		t.Errorf("wire fingerprint mismatch should not block construction, got %v", err)
	}
}

func TestAccessorsWithinFullValidity(t *testing.T) {
	now := time.Now()
	b := newBundle(t, now, time.Hour)
	b.withClock(func() time.Time { return now.Add(time.Minute) })

	if _, err := b.CertificatePEM(); err != nil {
		t.Errorf("CertificatePEM: %v", err)
	}
	if _, err := b.WireGuardPrivateKey(); err != nil {
		t.Errorf("WireGuardPrivateKey: %v", err)
	}
	if _, err := b.OpenVPNPrivateKey(); err != nil {
		t.Errorf("OpenVPNPrivateKey: %v", err)
	}
}

func TestCertificateFloorBlocksWireGuardButNotOpenVPN(t *testing.T) {
	now := time.Now()
	b := newBundle(t, now, time.Hour)
	// 200s remaining: below CertificateRefreshFloor (300s) but above
	// OpenVPNKeyRefreshFloor (60s).
	b.withClock(func() time.Time { return now.Add(time.Hour - 200*time.Second) })

	if _, err := b.WireGuardPrivateKey(); !errors.Is(err, vpnerrors.ErrNeedsRefresh) {
		t.Errorf("WireGuardPrivateKey: expected ErrNeedsRefresh, got %v", err)
	}
	if _, err := b.CertificatePEM(); !errors.Is(err, vpnerrors.ErrNeedsRefresh) {
		t.Errorf("CertificatePEM: expected ErrNeedsRefresh, got %v", err)
	}
	if _, err := b.OpenVPNPrivateKey(); err != nil {
		t.Errorf("OpenVPNPrivateKey should still be served above its own floor, got %v", err)
	}
}

func TestBothFloorsBlockWhenNearExpiry(t *testing.T) {
	now := time.Now()
	b := newBundle(t, now, time.Hour)
	b.withClock(func() time.Time { return now.Add(time.Hour - 30*time.Second) })

	if _, err := b.WireGuardPrivateKey(); !errors.Is(err, vpnerrors.ErrNeedsRefresh) {
		t.Errorf("WireGuardPrivateKey: expected ErrNeedsRefresh, got %v", err)
	}
	if _, err := b.OpenVPNPrivateKey(); !errors.Is(err, vpnerrors.ErrNeedsRefresh) {
		t.Errorf("OpenVPNPrivateKey: expected ErrNeedsRefresh, got %v", err)
	}
}

func TestExpiredCertificateBlocksEverything(t *testing.T) {
	now := time.Now()
	b := newBundle(t, now, time.Hour)
	b.withClock(func() time.Time { return now.Add(2 * time.Hour) })

	if _, err := b.WireGuardPrivateKey(); !errors.Is(err, vpnerrors.ErrExpired) {
		t.Errorf("WireGuardPrivateKey: expected ErrExpired, got %v", err)
	}
	if _, err := b.OpenVPNPrivateKey(); !errors.Is(err, vpnerrors.ErrExpired) {
		t.Errorf("OpenVPNPrivateKey: expected ErrExpired, got %v", err)
	}

	// Raw accessors bypass the floor/expiry check entirely, for persistence.
	if _, err := b.RawCertificatePEM(); err != nil {
		t.Errorf("RawCertificatePEM should ignore expiry, got %v", err)
	}
	if _, err := b.RawSecrets(); err != nil {
		t.Errorf("RawSecrets should ignore expiry, got %v", err)
	}
}

func TestRemainingAndDurationSeconds(t *testing.T) {
	now := time.Now()
	b := newBundle(t, now, time.Hour)
	b.withClock(func() time.Time { return now.Add(10 * time.Minute) })

	remaining, ok := b.RemainingValiditySeconds()
	if !ok {
		t.Fatal("expected RemainingValiditySeconds to report ok=true")
	}
	if remaining <= 0 || remaining > 3600 {
		t.Errorf("RemainingValiditySeconds = %v, want in (0, 3600]", remaining)
	}

	duration, ok := b.DurationSeconds()
	if !ok {
		t.Fatal("expected DurationSeconds to report ok=true")
	}
	if duration != 3600 {
		t.Errorf("DurationSeconds = %v, want 3600", duration)
	}
}

func TestEd25519PrivateKeyRawHasNoFloor(t *testing.T) {
	now := time.Now()
	b := newBundle(t, now, time.Hour)
	b.withClock(func() time.Time { return now.Add(2 * time.Hour) })

	if _, err := b.Ed25519PrivateKeyRaw(); err != nil {
		t.Errorf("Ed25519PrivateKeyRaw should ignore expiry, got %v", err)
	}
}
