// Package fetcher issues the REST calls against the authenticated-session
// collaborator and maps responses onto typed apitypes records
// (spec.md §4.3).
package fetcher

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/authsession"
	"github.com/ProtonVPN/vpn-session-core/internal/clientconfig"
	"github.com/ProtonVPN/vpn-session-core/internal/constants"
)

// DefaultCertificateDuration is the default certificate lifetime requested
// from the certificate endpoint (spec.md §4.3).
const DefaultCertificateDuration = 1440

// Fetcher issues the VPN account REST calls over an AuthenticatedSession.
type Fetcher struct {
	sess authsession.AuthenticatedSession
}

// New builds a Fetcher over the given authenticated session.
func New(sess authsession.AuthenticatedSession) *Fetcher {
	return &Fetcher{sess: sess}
}

// FetchVPNInfo fetches the account's VPN settings.
func (f *Fetcher) FetchVPNInfo(ctx context.Context) (apitypes.VPNInfo, error) {
	var resp apitypes.VPNInfoResponse
	if err := f.sess.AsyncRequest(ctx, "GET", constants.VPNInfoPath, nil, &resp); err != nil {
		return apitypes.VPNInfo{}, fmt.Errorf("fetching vpn info: %w", err)
	}
	return apitypes.NewVPNInfo(resp), nil
}

// FetchCertificate requests a fresh client certificate signed over
// clientPublicKeyPEM (the Ed25519 SPKI PEM block).
func (f *Fetcher) FetchCertificate(ctx context.Context, clientPublicKeyPEM string, durationMinutes int, features map[string]interface{}) (apitypes.VPNCertificate, error) {
	if durationMinutes <= 0 {
		durationMinutes = DefaultCertificateDuration
	}
	req := apitypes.CertificateRequest{
		ClientPublicKey: clientPublicKeyPEM,
		Duration:        fmt.Sprintf("%d min", durationMinutes),
		Features:        features,
	}
	var resp apitypes.CertificateResponse
	if err := f.sess.AsyncRequest(ctx, "POST", constants.CertificatePath, req, &resp); err != nil {
		return apitypes.VPNCertificate{}, fmt.Errorf("fetching certificate: %w", err)
	}
	return apitypes.NewVPNCertificate(resp), nil
}

// FetchLocation fetches the physical location the client is connecting
// from.
func (f *Fetcher) FetchLocation(ctx context.Context) (apitypes.VPNLocation, error) {
	var loc apitypes.VPNLocation
	if err := f.sess.AsyncRequest(ctx, "GET", constants.LocationPath, nil, &loc); err != nil {
		return apitypes.VPNLocation{}, fmt.Errorf("fetching location: %w", err)
	}
	return loc, nil
}

// FetchActiveSessions fetches the informational list of active VPN
// data-plane sessions for the account (spec.md §4.3).
func (f *Fetcher) FetchActiveSessions(ctx context.Context) ([]apitypes.APIVPNSession, error) {
	var resp apitypes.VPNSessionsResponse
	if err := f.sess.AsyncRequest(ctx, "GET", constants.ActiveSessionPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching active sessions: %w", err)
	}
	return resp.Sessions, nil
}

// FetchClientConfig fetches the ancillary client configuration (default
// OpenVPN ports, WireGuard hole-punch IPs, feature flags).
func (f *Fetcher) FetchClientConfig(ctx context.Context) (clientconfig.ClientConfig, error) {
	cfg, err := clientconfig.Fetch(ctx, f.sess)
	if err != nil {
		return clientconfig.ClientConfig{}, fmt.Errorf("fetching client configuration: %w", err)
	}
	return cfg, nil
}

// RefreshBundle is the parallel fetch result for the four calls a
// SessionCore refresh issues together.
type RefreshBundle struct {
	Info         apitypes.VPNInfo
	Certificate  apitypes.VPNCertificate
	Location     apitypes.VPNLocation
	ClientConfig clientconfig.ClientConfig
}

// Refresh fetches VPN info, a fresh certificate, location, and the client
// configuration in parallel, aborting all four on the first failure
// (spec.md §4.6, "partial success aborts the whole refresh").
func (f *Fetcher) Refresh(ctx context.Context, clientPublicKeyPEM string, durationMinutes int, features map[string]interface{}) (RefreshBundle, error) {
	g, gctx := errgroup.WithContext(ctx)

	var bundle RefreshBundle
	g.Go(func() error {
		info, err := f.FetchVPNInfo(gctx)
		if err != nil {
			return err
		}
		bundle.Info = info
		return nil
	})
	g.Go(func() error {
		cert, err := f.FetchCertificate(gctx, clientPublicKeyPEM, durationMinutes, features)
		if err != nil {
			return err
		}
		bundle.Certificate = cert
		return nil
	})
	g.Go(func() error {
		loc, err := f.FetchLocation(gctx)
		if err != nil {
			return err
		}
		bundle.Location = loc
		return nil
	})
	g.Go(func() error {
		cfg, err := f.FetchClientConfig(gctx)
		if err != nil {
			return err
		}
		bundle.ClientConfig = cfg
		return nil
	})

	if err := g.Wait(); err != nil {
		return RefreshBundle{}, err
	}
	return bundle, nil
}
