// Package clientconfig holds the opaque client-configuration record
// fetched from GET /vpn/clientconfig: default OpenVPN ports, WireGuard
// hole-punch IPs, the server-list refresh interval, and feature flags
// (spec.md §6.6). Dropped by the distillation and supplemented here from
// the upstream client_config.py this spec was distilled from.
package clientconfig

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ProtonVPN/vpn-session-core/internal/authsession"
	"github.com/ProtonVPN/vpn-session-core/internal/constants"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnerrors"
)

// RefreshInterval is the nominal interval between client-config refreshes.
const RefreshInterval = 3 * time.Hour

// RefreshRandomness is the jitter fraction applied around RefreshInterval.
const RefreshRandomness = 0.22

// OpenVPNPorts lists the default OpenVPN UDP/TCP ports.
type OpenVPNPorts struct {
	UDP []int
	TCP []int
}

// FeatureFlags mirrors the server-advertised feature toggles for the
// account/client combination.
type FeatureFlags struct {
	NetShield              bool
	GuestHoles             bool
	ServerRefresh          bool
	StreamingServicesLogos bool
	PortForwarding         bool
	ModerateNAT            bool
	SafeMode               bool
	StartConnectOnBoot     bool
	PollNotificationAPI    bool
	VPNAccelerator         bool
	SmartReconnect         bool
	PromoCode              bool
	WireGuardTLS           bool
}

// ClientConfig is the parsed, immutable client-configuration record.
type ClientConfig struct {
	OpenVPNPorts          OpenVPNPorts
	HolesIPs              []string
	ServerRefreshInterval int
	FeatureFlags          FeatureFlags
	ExpirationTime        float64
}

// wireClientConfig is the raw JSON envelope returned by the endpoint.
type wireClientConfig struct {
	OpenVPNConfig struct {
		DefaultPorts struct {
			UDP []int `json:"UDP"`
			TCP []int `json:"TCP"`
		} `json:"DefaultPorts"`
	} `json:"OpenVPNConfig"`
	HolesIPs              []string `json:"HolesIPs"`
	ServerRefreshInterval int      `json:"ServerRefreshInterval"`
	FeatureFlags          struct {
		NetShield              int `json:"NetShield"`
		GuestHoles              int `json:"GuestHoles"`
		ServerRefresh           int `json:"ServerRefresh"`
		StreamingServicesLogos  int `json:"StreamingServicesLogos"`
		PortForwarding          int `json:"PortForwarding"`
		ModerateNAT             int `json:"ModerateNAT"`
		SafeMode                int `json:"SafeMode"`
		StartConnectOnBoot      int `json:"StartConnectOnBoot"`
		PollNotificationAPI     int `json:"PollNotificationAPI"`
		VpnAccelerator          int `json:"VpnAccelerator"`
		SmartReconnect          int `json:"SmartReconnect"`
		PromoCode               int `json:"PromoCode"`
		WireGuardTls            int `json:"WireGuardTls"`
	} `json:"FeatureFlags"`
	ExpirationTime float64 `json:"ExpirationTime,omitempty"`
}

var defaultWireConfig = wireClientConfig{
	HolesIPs:             []string{"62.112.9.168", "104.245.144.186"},
	ServerRefreshInterval: 10,
}

func init() {
	defaultWireConfig.OpenVPNConfig.DefaultPorts.UDP = []int{80, 51820, 4569, 1194, 5060}
	defaultWireConfig.OpenVPNConfig.DefaultPorts.TCP = []int{443, 7770, 8443}
	defaultWireConfig.FeatureFlags.ServerRefresh = 1
	defaultWireConfig.FeatureFlags.StreamingServicesLogos = 1
	defaultWireConfig.FeatureFlags.ModerateNAT = 1
	defaultWireConfig.FeatureFlags.StartConnectOnBoot = 1
	defaultWireConfig.FeatureFlags.PollNotificationAPI = 1
	defaultWireConfig.FeatureFlags.VpnAccelerator = 1
	defaultWireConfig.FeatureFlags.SmartReconnect = 1
	defaultWireConfig.FeatureFlags.WireGuardTls = 1
}

func fromWire(w wireClientConfig) ClientConfig {
	return ClientConfig{
		OpenVPNPorts: OpenVPNPorts{
			UDP: append([]int(nil), w.OpenVPNConfig.DefaultPorts.UDP...),
			TCP: append([]int(nil), w.OpenVPNConfig.DefaultPorts.TCP...),
		},
		HolesIPs:              append([]string(nil), w.HolesIPs...),
		ServerRefreshInterval: w.ServerRefreshInterval,
		FeatureFlags: FeatureFlags{
			NetShield:              w.FeatureFlags.NetShield != 0,
			GuestHoles:             w.FeatureFlags.GuestHoles != 0,
			ServerRefresh:          w.FeatureFlags.ServerRefresh != 0,
			StreamingServicesLogos: w.FeatureFlags.StreamingServicesLogos != 0,
			PortForwarding:         w.FeatureFlags.PortForwarding != 0,
			ModerateNAT:            w.FeatureFlags.ModerateNAT != 0,
			SafeMode:               w.FeatureFlags.SafeMode != 0,
			StartConnectOnBoot:     w.FeatureFlags.StartConnectOnBoot != 0,
			PollNotificationAPI:    w.FeatureFlags.PollNotificationAPI != 0,
			VPNAccelerator:         w.FeatureFlags.VpnAccelerator != 0,
			SmartReconnect:         w.FeatureFlags.SmartReconnect != 0,
			PromoCode:              w.FeatureFlags.PromoCode != 0,
			WireGuardTLS:           w.FeatureFlags.WireGuardTls != 0,
		},
		ExpirationTime: w.ExpirationTime,
	}
}

// Default returns the built-in fallback configuration for a caller that
// has no fetched or cached client configuration. Nothing in this module
// falls back to it on its own.
func Default() ClientConfig {
	cfg := defaultWireConfig
	cfg.ExpirationTime = ExpirationTime(time.Now())
	return fromWire(cfg)
}

// IsExpired reports whether the configuration is past its expiration
// time as of now.
func (c ClientConfig) IsExpired(now time.Time) bool {
	return float64(now.Unix()) > c.ExpirationTime
}

// SecondsUntilExpiration returns the seconds left until the configuration
// should be refetched, floored at zero.
func (c ClientConfig) SecondsUntilExpiration(now time.Time) float64 {
	remaining := c.ExpirationTime - float64(now.Unix())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RandomizedRefreshInterval returns RefreshInterval jittered by
// ±RefreshRandomness, the same "1 ± 0.22*rand" shape the original uses.
func RandomizedRefreshInterval() time.Duration {
	component := 1 + RefreshRandomness*(2*rand.Float64()-1)
	return time.Duration(float64(RefreshInterval) * component)
}

// ExpirationTime computes the absolute expiration timestamp (Unix
// seconds) for a configuration fetched at `from`.
func ExpirationTime(from time.Time) float64 {
	return float64(from.Add(RandomizedRefreshInterval()).Unix())
}

// Fetch retrieves the client configuration over an authenticated session.
func Fetch(ctx context.Context, sess authsession.AuthenticatedSession) (ClientConfig, error) {
	var wire wireClientConfig
	if err := sess.AsyncRequest(ctx, "GET", constants.ClientConfigPath, nil, &wire); err != nil {
		return ClientConfig{}, err
	}
	if wire.ExpirationTime == 0 {
		wire.ExpirationTime = ExpirationTime(time.Now())
	}
	if len(wire.OpenVPNConfig.DefaultPorts.UDP) == 0 && len(wire.OpenVPNConfig.DefaultPorts.TCP) == 0 {
		return ClientConfig{}, vpnerrors.ErrClientConfigDecode
	}
	return fromWire(wire), nil
}
