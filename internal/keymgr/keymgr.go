// Package keymgr owns one Ed25519 private/public key pair and its X25519
// equivalent, and computes the service fingerprint used to cross-validate
// secrets against a certificate (spec.md §4.1).
package keymgr

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/ProtonVPN/vpn-session-core/internal/vpnerrors"
)

// KeyHandler holds one Ed25519 key pair and its derived X25519 equivalent.
// Instances are ephemeral: constructed, used to compute fingerprints or
// encodings, then dropped (spec.md §3, "Ownership and lifetimes").
type KeyHandler struct {
	ed25519Priv ed25519.PrivateKey
	ed25519Pub  ed25519.PublicKey
	x25519Priv  [32]byte
	x25519Pub   [32]byte
}

// Generate produces a fresh random Ed25519 pair and derives its X25519
// equivalent.
func Generate() (*KeyHandler, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: generating ed25519 key: %v", vpnerrors.ErrKeyDecode, err)
	}
	return fromEd25519(priv, pub)
}

// FromSeed reconstructs the pair deterministically from a 32-byte Ed25519
// seed.
func FromSeed(seed []byte) (*KeyHandler, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: ed25519 seed must be %d bytes, got %d", vpnerrors.ErrKeyDecode, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return fromEd25519(priv, pub)
}

// FromBase64Seed reconstructs the pair from a base64-encoded 32-byte seed,
// the format the secrets record persists under "ed25519_privatekey".
func FromBase64Seed(b64Seed string) (*KeyHandler, error) {
	seed, err := base64.StdEncoding.DecodeString(b64Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding base64 ed25519 seed: %v", vpnerrors.ErrKeyDecode, err)
	}
	return FromSeed(seed)
}

// FromPEM parses a PKCS#8 PEM-encoded Ed25519 private key, e.g. loaded
// from a file on disk.
func FromPEM(pemBytes []byte) (*KeyHandler, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", vpnerrors.ErrKeyDecode)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing PKCS8 private key: %v", vpnerrors.ErrKeyDecode, err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM key is not an Ed25519 private key", vpnerrors.ErrKeyDecode)
	}
	pub := priv.Public().(ed25519.PublicKey)
	return fromEd25519(priv, pub)
}

func fromEd25519(priv ed25519.PrivateKey, pub ed25519.PublicKey) (*KeyHandler, error) {
	xPriv := privateKeyToCurve25519(priv)

	xPubSlice, err := curve25519.X25519(xPriv[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: deriving x25519 public key: %v", vpnerrors.ErrKeyDecode, err)
	}
	var xPub [32]byte
	copy(xPub[:], xPubSlice)

	return &KeyHandler{
		ed25519Priv: priv,
		ed25519Pub:  pub,
		x25519Priv:  xPriv,
		x25519Pub:   xPub,
	}, nil
}

// Ed25519PrivateKeyRaw returns the raw 32-byte Ed25519 seed.
func (k *KeyHandler) Ed25519PrivateKeyRaw() []byte {
	return append([]byte(nil), k.ed25519Priv.Seed()...)
}

// Ed25519PrivateKeyBase64 returns the Ed25519 seed, base64-encoded.
func (k *KeyHandler) Ed25519PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.Ed25519PrivateKeyRaw())
}

// Ed25519PublicKeyRaw returns the raw 32-byte Ed25519 public key.
func (k *KeyHandler) Ed25519PublicKeyRaw() []byte {
	return append([]byte(nil), k.ed25519Pub...)
}

// Ed25519PublicKeyBase64 returns the Ed25519 public key, base64-encoded.
func (k *KeyHandler) Ed25519PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.ed25519Pub)
}

// Ed25519PrivateKeyPEM renders the Ed25519 private key as a PKCS#8 PEM
// block, the format used by the OpenVPN-key accessor.
func (k *KeyHandler) Ed25519PrivateKeyPEM() (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.ed25519Priv)
	if err != nil {
		return "", fmt.Errorf("%w: marshalling PKCS8 private key: %v", vpnerrors.ErrKeyDecode, err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})), nil
}

// Ed25519PublicKeyPEM renders the Ed25519 public key as a
// SubjectPublicKeyInfo PEM block, the format sent as ClientPublicKey.
func (k *KeyHandler) Ed25519PublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(k.ed25519Pub)
	if err != nil {
		return "", fmt.Errorf("%w: marshalling SPKI public key: %v", vpnerrors.ErrKeyDecode, err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// X25519PrivateKeyRaw returns the derived X25519 private scalar.
func (k *KeyHandler) X25519PrivateKeyRaw() []byte {
	out := make([]byte, 32)
	copy(out, k.x25519Priv[:])
	return out
}

// X25519PrivateKeyBase64 returns the derived X25519 private scalar,
// base64-encoded — the WireGuard private key format.
func (k *KeyHandler) X25519PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.x25519Priv[:])
}

// X25519PublicKeyRaw returns the derived X25519 public key (Montgomery form).
func (k *KeyHandler) X25519PublicKeyRaw() []byte {
	out := make([]byte, 32)
	copy(out, k.x25519Pub[:])
	return out
}

// X25519PublicKeyBase64 returns the derived X25519 public key, base64-encoded.
func (k *KeyHandler) X25519PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(k.x25519Pub[:])
}

// Fingerprint returns the service fingerprint for this key pair:
// base64(SHA-512(x25519 public key bytes)), per spec.md §4.1/GLOSSARY.
func (k *KeyHandler) Fingerprint() string {
	return FingerprintOfX25519PublicKey(k.x25519Pub[:])
}

// FingerprintOfX25519PublicKey computes the service fingerprint for an
// arbitrary X25519 public key, e.g. one recovered from a certificate.
func FingerprintOfX25519PublicKey(x25519Pub []byte) string {
	sum := sha512.Sum512(x25519Pub)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// privateKeyToCurve25519 converts an Ed25519 private key into its X25519
// scalar, following the standard clamped-hash derivation used throughout
// the ecosystem (age, WireGuard tooling, ProtonMail's go-crypto): the
// X25519 scalar is SHA-512(seed)[:32] with the usual clamping applied.
func privateKeyToCurve25519(priv ed25519.PrivateKey) [32]byte {
	h := sha512.Sum512(priv.Seed())
	var scalar [32]byte
	copy(scalar[:], h[:32])
	scalar[0] &= 248
	scalar[31] &= 127
	scalar[31] |= 64
	return scalar
}
