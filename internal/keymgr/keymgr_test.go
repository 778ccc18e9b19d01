package keymgr

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"testing"
)

func TestGenerateRoundTripsThroughSeed(t *testing.T) {
	k, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	seed := k.Ed25519PrivateKeyRaw()
	if len(seed) != ed25519.SeedSize {
		t.Fatalf("expected %d-byte seed, got %d", ed25519.SeedSize, len(seed))
	}

	reconstructed, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}

	if !bytes.Equal(k.Ed25519PublicKeyRaw(), reconstructed.Ed25519PublicKeyRaw()) {
		t.Error("reconstructed Ed25519 public key does not match original")
	}
	if !bytes.Equal(k.X25519PrivateKeyRaw(), reconstructed.X25519PrivateKeyRaw()) {
		t.Error("reconstructed X25519 private key does not match original")
	}
	if k.Fingerprint() != reconstructed.Fingerprint() {
		t.Error("reconstructed fingerprint does not match original")
	}
}

func TestFromBase64SeedMatchesFromSeed(t *testing.T) {
	k, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	b64 := k.Ed25519PrivateKeyBase64()
	fromB64, err := FromBase64Seed(b64)
	if err != nil {
		t.Fatalf("FromBase64Seed: %v", err)
	}

	direct, err := FromSeed(k.Ed25519PrivateKeyRaw())
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}

	if fromB64.X25519PrivateKeyBase64() != direct.X25519PrivateKeyBase64() {
		t.Error("FromBase64Seed and FromSeed derived different X25519 keys")
	}
}

func TestFromSeedRejectsWrongLength(t *testing.T) {
	if _, err := FromSeed(make([]byte, 16)); err == nil {
		t.Error("expected error for short seed, got nil")
	}
}

func TestFromBase64SeedRejectsInvalidBase64(t *testing.T) {
	if _, err := FromBase64Seed("not-valid-base64!!!"); err == nil {
		t.Error("expected error for invalid base64, got nil")
	}
}

func TestPEMRoundTrip(t *testing.T) {
	k, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	pemText, err := k.Ed25519PrivateKeyPEM()
	if err != nil {
		t.Fatalf("Ed25519PrivateKeyPEM: %v", err)
	}

	reconstructed, err := FromPEM([]byte(pemText))
	if err != nil {
		t.Fatalf("FromPEM: %v", err)
	}

	if k.Ed25519PrivateKeyBase64() != reconstructed.Ed25519PrivateKeyBase64() {
		t.Error("PEM round trip changed the Ed25519 private key")
	}
}

func TestFromPEMRejectsGarbage(t *testing.T) {
	if _, err := FromPEM([]byte("not a pem block")); err == nil {
		t.Error("expected error for non-PEM input, got nil")
	}
}

func TestFingerprintIsDeterministic(t *testing.T) {
	k, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	fp1 := k.Fingerprint()
	fp2 := FingerprintOfX25519PublicKey(k.X25519PublicKeyRaw())
	if fp1 != fp2 {
		t.Errorf("Fingerprint() = %q, FingerprintOfX25519PublicKey(pub) = %q", fp1, fp2)
	}

	if _, err := base64.StdEncoding.DecodeString(fp1); err != nil {
		t.Errorf("fingerprint is not valid base64: %v", err)
	}
}

func TestTwoGeneratedKeysDiffer(t *testing.T) {
	k1, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	k2, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if k1.Fingerprint() == k2.Fingerprint() {
		t.Error("two independently generated keys produced the same fingerprint")
	}
}
