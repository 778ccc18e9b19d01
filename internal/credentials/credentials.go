// Package credentials holds the VPN public-key credentials bundle: a
// certificate paired with the secrets that back it, plus the
// expired/needs-refresh/valid state machine every accessor enforces
// (spec.md §4.4).
package credentials

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/certutil"
	"github.com/ProtonVPN/vpn-session-core/internal/keymgr"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnerrors"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnlog"
)

// Per-accessor validity floors (spec.md §9 Open Question 1): each accessor
// refuses to hand back key material once the certificate's remaining
// validity drops to or below its own floor, so a future policy change for
// one protocol never silently affects another.
const (
	// CertificateRefreshFloor guards CertificatePEM and WireGuardPrivateKey.
	CertificateRefreshFloor = 300 * time.Second
	// OpenVPNKeyRefreshFloor guards OpenVPNPrivateKey.
	OpenVPNKeyRefreshFloor = 60 * time.Second
)

// Bundle pairs one parsed certificate with the secrets that were issued
// alongside it. Constructed only via New, which enforces the fingerprint
// invariant at build time.
type Bundle struct {
	cert    *certutil.Certificate
	secrets apitypes.VPNSecrets
	now     func() time.Time
}

// New builds a Bundle from a certificate/secrets pair, verifying that the
// locally-derived fingerprint (from the Ed25519 seed in secrets) agrees
// with the fingerprint of the certificate's certified public key.
//
// When strict is true a mismatch is fatal (vpnerrors.ErrFingerprintMismatch).
// When strict is false the mismatch is logged and construction proceeds.
// Both callers in this module (session.Core.doRefresh and account.FromMap,
// which restores a persisted bundle) construct in strict mode.
//
// wireClientKeyFingerprint is the ClientKeyFingerprint field carried on the
// certificate response, which is itself a function of the certified public
// key (spec.md §9 Open Question). It is not separately required to match —
// only logged as a warning on disagreement — since strict mode's
// locally-derived-vs-certificate-derived check above is the one the
// construction actually depends on.
func New(certPEM string, secrets apitypes.VPNSecrets, wireClientKeyFingerprint string, strict bool, log *vpnlog.Logger) (*Bundle, error) {
	seed, err := base64.StdEncoding.DecodeString(secrets.Ed25519PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding ed25519 secret: %v", vpnerrors.ErrKeyDecode, err)
	}
	handler, err := keymgr.FromSeed(seed)
	if err != nil {
		return nil, err
	}

	cert, err := certutil.Parse(certPEM)
	if err != nil {
		return nil, err
	}

	fingerprintFromSecrets := handler.Fingerprint()
	fingerprintFromCert, err := cert.ServiceFingerprint()
	if err != nil {
		return nil, err
	}

	if fingerprintFromSecrets != fingerprintFromCert {
		if strict {
			return nil, fmt.Errorf("%w: secrets fingerprint %q != certificate fingerprint %q",
				vpnerrors.ErrFingerprintMismatch, fingerprintFromSecrets, fingerprintFromCert)
		}
		if log != nil {
			log.Warn("certificate/secrets fingerprint mismatch tolerated in non-strict mode",
				"category", "credentials", "event", "fingerprint_mismatch")
		}
	}

	if wireClientKeyFingerprint != "" && wireClientKeyFingerprint != fingerprintFromCert {
		if log != nil {
			log.Warn("wire ClientKeyFingerprint disagrees with certificate-derived fingerprint",
				"category", "credentials", "event", "wire_fingerprint_mismatch",
				"wire_fingerprint", wireClientKeyFingerprint, "certificate_fingerprint", fingerprintFromCert)
		}
	}

	return &Bundle{cert: cert, secrets: secrets, now: time.Now}, nil
}

// withClock overrides the time source, for deterministic tests.
func (b *Bundle) withClock(now func() time.Time) *Bundle {
	b.now = now
	return b
}

func (b *Bundle) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

// remaining returns the certificate's remaining validity at the current
// clock reading, or an ErrExpired/ErrNotAvailable error if it cannot be
// used at all.
func (b *Bundle) remaining() (time.Duration, error) {
	if b == nil || b.cert == nil {
		return 0, vpnerrors.ErrNotAvailable
	}
	now := b.clock()
	if !b.cert.IsCurrentlyValid(now) {
		return 0, vpnerrors.ErrExpired
	}
	return time.Duration(b.cert.RemainingValiditySeconds(now) * float64(time.Second)), nil
}

// checkFloor enforces one accessor's validity floor, mapping "past floor
// but not yet expired" to ErrNeedsRefresh.
func (b *Bundle) checkFloor(floor time.Duration) error {
	remaining, err := b.remaining()
	if err != nil {
		return err
	}
	if remaining <= floor {
		return vpnerrors.ErrNeedsRefresh
	}
	return nil
}

// CertificatePEM returns the X.509 client certificate in PEM form, usable
// for client-certificate authentication to the local agent.
func (b *Bundle) CertificatePEM() (string, error) {
	if err := b.checkFloor(CertificateRefreshFloor); err != nil {
		return "", err
	}
	return b.cert.PEM(), nil
}

// WireGuardPrivateKey returns the base64-encoded WireGuard private key
// tied to the current certificate.
func (b *Bundle) WireGuardPrivateKey() (string, error) {
	if err := b.checkFloor(CertificateRefreshFloor); err != nil {
		return "", err
	}
	return b.secrets.WireGuardPrivateKey, nil
}

// OpenVPNPrivateKey returns the PEM-encoded OpenVPN private key tied to
// the current certificate. OpenVPN tolerates a shorter remaining-validity
// floor than WireGuard/certificate access (spec.md §4.4).
func (b *Bundle) OpenVPNPrivateKey() (string, error) {
	if err := b.checkFloor(OpenVPNKeyRefreshFloor); err != nil {
		return "", err
	}
	return b.secrets.OpenVPNPrivateKey, nil
}

// Ed25519PrivateKeyRaw returns the raw Ed25519 seed, with no validity
// floor applied (the key material itself never expires, only the
// certificate attesting to it).
func (b *Bundle) Ed25519PrivateKeyRaw() ([]byte, error) {
	if b == nil || b.cert == nil {
		return nil, vpnerrors.ErrNotAvailable
	}
	return base64.StdEncoding.DecodeString(b.secrets.Ed25519PrivateKey)
}

// RawCertificatePEM returns the certificate PEM with no validity-floor
// check applied, for persistence: the cache stores whatever was last
// issued regardless of how close it is to expiry.
func (b *Bundle) RawCertificatePEM() (string, error) {
	if b == nil || b.cert == nil {
		return "", vpnerrors.ErrNotAvailable
	}
	return b.cert.PEM(), nil
}

// RawSecrets returns the secrets record with no validity-floor check
// applied, for persistence.
func (b *Bundle) RawSecrets() (apitypes.VPNSecrets, error) {
	if b == nil || b.cert == nil {
		return apitypes.VPNSecrets{}, vpnerrors.ErrNotAvailable
	}
	return b.secrets, nil
}

// RemainingValiditySeconds reports the certificate's remaining validity,
// negative once expired, or false if no certificate is loaded at all.
func (b *Bundle) RemainingValiditySeconds() (float64, bool) {
	if b == nil || b.cert == nil {
		return 0, false
	}
	return b.cert.RemainingValiditySeconds(b.clock()), true
}

// DurationSeconds reports the certificate's total validity window, or
// false if no certificate is loaded.
func (b *Bundle) DurationSeconds() (float64, bool) {
	if b == nil || b.cert == nil {
		return 0, false
	}
	return b.cert.DurationSeconds(), true
}
