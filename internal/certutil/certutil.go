// Package certutil parses the X.509 client certificate issued by the
// certificate endpoint and exposes the validity-window and fingerprint
// operations the credentials bundle needs (spec.md §4.2).
package certutil

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/ProtonVPN/vpn-session-core/internal/keymgr"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnerrors"
)

// curve25519P is the field prime 2^255 - 19 used by both Ed25519 and X25519.
var curve25519P = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 255)
	return p.Sub(p, big.NewInt(19))
}()

// Certificate wraps one parsed X.509 client certificate.
type Certificate struct {
	pemText string
	x509Cer *x509.Certificate
}

// Parse decodes a PEM-encoded X.509 certificate.
func Parse(pemText string) (*Certificate, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", vpnerrors.ErrCertificateDecode)
	}
	cer, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing x509 certificate: %v", vpnerrors.ErrCertificateDecode, err)
	}
	return &Certificate{pemText: pemText, x509Cer: cer}, nil
}

// PEM returns the original PEM text this certificate was parsed from.
func (c *Certificate) PEM() string {
	return c.pemText
}

// NotBefore returns the certificate's validity start.
func (c *Certificate) NotBefore() time.Time {
	return c.x509Cer.NotBefore
}

// NotAfter returns the certificate's validity end.
func (c *Certificate) NotAfter() time.Time {
	return c.x509Cer.NotAfter
}

// IsCurrentlyValid reports whether now falls within [NotBefore, NotAfter).
func (c *Certificate) IsCurrentlyValid(now time.Time) bool {
	return !now.Before(c.x509Cer.NotBefore) && now.Before(c.x509Cer.NotAfter)
}

// RemainingValiditySeconds returns the seconds left until NotAfter, as
// measured from now. Negative once expired.
func (c *Certificate) RemainingValiditySeconds(now time.Time) float64 {
	return c.x509Cer.NotAfter.Sub(now).Seconds()
}

// DurationSeconds returns the full validity window's length in seconds.
func (c *Certificate) DurationSeconds() float64 {
	return c.x509Cer.NotAfter.Sub(c.x509Cer.NotBefore).Seconds()
}

// ServiceFingerprint extracts the certified public key and returns its
// service fingerprint (spec.md §4.1/§4.2), reducing an embedded Ed25519
// key to its X25519 equivalent first since the fingerprint is always
// taken over the Montgomery-form key.
func (c *Certificate) ServiceFingerprint() (string, error) {
	switch pub := c.x509Cer.PublicKey.(type) {
	case ed25519.PublicKey:
		xPub, err := publicKeyToCurve25519(pub)
		if err != nil {
			return "", fmt.Errorf("%w: converting certified ed25519 key to x25519: %v", vpnerrors.ErrCertificateDecode, err)
		}
		return keymgr.FingerprintOfX25519PublicKey(xPub), nil
	default:
		return "", fmt.Errorf("%w: unsupported certified public key type %T", vpnerrors.ErrCertificateDecode, pub)
	}
}

// publicKeyToCurve25519 converts an Ed25519 public key (a compressed
// Edwards point) into its birationally equivalent X25519 public key (a
// Montgomery u-coordinate), via u = (1+y)/(1-y) mod p.
func publicKeyToCurve25519(pub ed25519.PublicKey) ([]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}

	// The Edwards point is stored little-endian with the sign bit of x
	// packed into the top bit of the last byte; clear it to recover y.
	var yLE [32]byte
	copy(yLE[:], pub)
	yLE[31] &= 0x7f

	y := new(big.Int).SetBytes(reverseBytes(yLE[:]))

	numerator := new(big.Int).Add(big.NewInt(1), y)
	numerator.Mod(numerator, curve25519P)

	denominator := new(big.Int).Sub(big.NewInt(1), y)
	denominator.Mod(denominator, curve25519P)
	if denominator.ModInverse(denominator, curve25519P) == nil {
		return nil, fmt.Errorf("y coordinate has no modular inverse")
	}

	u := new(big.Int).Mul(numerator, denominator)
	u.Mod(u, curve25519P)

	out := make([]byte, 32)
	uBytes := u.Bytes()
	copy(out[32-len(uBytes):], uBytes)
	return reverseBytes(out), nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
