// Package account holds the VPNAccount aggregate: account info, the
// pubkey-credentials bundle, and location, persisted as one unit to the
// keyring (spec.md §4.5).
package account

import (
	"encoding/json"
	"fmt"

	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/credentials"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnerrors"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnlog"
)

// UserPassCredentials is the plain username/password pair usable for
// OpenVPN username/password authentication.
type UserPassCredentials struct {
	Username string
	Password string
}

// Account aggregates the three pieces of state SessionCore persists as a
// unit: account info, pubkey credentials, and location. It is created on
// first successful refresh and mutated only by full sub-field replacement,
// never in place (spec.md §3).
type Account struct {
	Info        apitypes.VPNInfo
	Credentials *credentials.Bundle
	Location    apitypes.VPNLocation
}

// New builds an Account from its three components.
func New(info apitypes.VPNInfo, creds *credentials.Bundle, location apitypes.VPNLocation) *Account {
	return &Account{Info: info, Credentials: creds, Location: location}
}

// MaxTier returns the account's max VPN tier.
func (a *Account) MaxTier() int {
	return a.Info.MaxTier
}

// MaxConnections returns the account's max simultaneous connection count.
func (a *Account) MaxConnections() int {
	return a.Info.MaxConnect
}

// Delinquent reports the account's delinquency projection.
func (a *Account) Delinquent() bool {
	return a.Info.IsDelinquent()
}

// GetLocation returns the last-fetched physical location.
func (a *Account) GetLocation() apitypes.VPNLocation {
	return a.Location
}

// PubkeyCredentials returns the certificate/secrets bundle.
func (a *Account) PubkeyCredentials() *credentials.Bundle {
	return a.Credentials
}

// UserPassCredentials returns the OpenVPN username/password pair derived
// from the account's VPN info.
func (a *Account) UserPassCredentials() UserPassCredentials {
	return UserPassCredentials{Username: a.Info.Name, Password: a.Info.Password}
}

// persistedState mirrors the original session's nested "vpn" map:
// {"vpn": {"vpninfo": ..., "certcreds": {"api_certificate": ..., "secrets": ...}, "location": ...}}.
type persistedState struct {
	VPN persistedVPN `json:"vpn"`
}

type persistedVPN struct {
	VPNInfo   apitypes.VPNInfoResponse `json:"vpninfo"`
	CertCreds persistedCertCreds       `json:"certcreds"`
	Location  apitypes.VPNLocation     `json:"location"`
}

type persistedCertCreds struct {
	APICertificate apitypes.CertificateResponse `json:"api_certificate"`
	Secrets        apitypes.VPNSecrets          `json:"secrets"`
}

// ToMap serializes the account to the persisted-state JSON shape stored in
// the keyring (spec.md §6.5).
func (a *Account) ToMap() (map[string]interface{}, error) {
	certResp := apitypes.CertificateResponse{}
	var secrets apitypes.VPNSecrets
	if a.Credentials != nil {
		certPEM, err := a.Credentials.RawCertificatePEM()
		if err != nil {
			return nil, err
		}
		certResp.Certificate = certPEM
		secrets, err = a.Credentials.RawSecrets()
		if err != nil {
			return nil, err
		}
	}

	state := persistedState{
		VPN: persistedVPN{
			VPNInfo: apitypes.VPNInfoResponse{
				VPN: apitypes.VPNAccountInfo{
					Name:           a.Info.Name,
					Password:       a.Info.Password,
					PlanName:       a.Info.PlanName,
					MaxTier:        a.Info.MaxTier,
					MaxConnect:     a.Info.MaxConnect,
					Groups:         a.Info.Groups,
					ExpirationTime: a.Info.ExpirationTime,
				},
				Delinquent: a.Info.Delinquent,
			},
			CertCreds: persistedCertCreds{
				APICertificate: certResp,
				Secrets:        secrets,
			},
			Location: a.Location,
		},
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshalling account state: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("round-tripping account state: %w", err)
	}
	return out, nil
}

// FromMap reconstructs an Account from the persisted-state map, re-running
// the strict fingerprint check on the restored certificate/secrets pair
// (spec.md §6.5): a tampered or corrupted cache fails loudly rather than
// silently installing mismatched key material.
func FromMap(raw map[string]interface{}, log *vpnlog.Logger) (*Account, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: re-encoding persisted state: %v", vpnerrors.ErrNotAvailable, err)
	}
	var state persistedState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("%w: decoding persisted state: %v", vpnerrors.ErrNotAvailable, err)
	}

	info := apitypes.NewVPNInfo(state.VPN.VPNInfo)

	var bundle *credentials.Bundle
	if state.VPN.CertCreds.APICertificate.Certificate != "" {
		bundle, err = credentials.New(
			state.VPN.CertCreds.APICertificate.Certificate,
			state.VPN.CertCreds.Secrets,
			state.VPN.CertCreds.APICertificate.ClientKeyFingerprint,
			true,
			log,
		)
		if err != nil {
			return nil, err
		}
	}

	return New(info, bundle, state.VPN.Location), nil
}
