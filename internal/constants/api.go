// Package constants defines constants used throughout the application.
package constants

// API endpoints
const (
	DefaultAPIURL     = "https://vpn-api.proton.me"
	AuthInfoPath      = "/core/v4/auth/info"
	AuthPath          = "/core/v4/auth"
	TwoFactorPath     = "/core/v4/auth/2fa"
	RefreshPath       = "/auth/refresh"
	VPNInfoPath       = "/vpn"
	CertificatePath   = "/vpn/v1/certificate"
	LogicalsPath      = "/vpn/v1/logicals"
	LocationPath      = "/vpn/location"
	ActiveSessionPath = "/vpn/sessions"
	ClientConfigPath  = "/vpn/clientconfig"
)

// API version headers - can be overridden at build time via ldflags:
// go build -ldflags "-X .../internal/constants.AppVersion=linux-vpn@X.Y.Z"
var (
	AppVersion = "linux-vpn@4.13.1"
	UserAgent  = "ProtonVPN/4.13.1 (Linux; Ubuntu)"
)

// API response codes
// Reference: proton-python-client/proton/api.py checks for codes 1000 and 1001
const (
	APICodeSuccess     = 1000
	APICodeMultiStatus = 1001 // Also indicates success in some contexts
)

// IsSuccessCode checks if an API response code indicates success
func IsSuccessCode(code int) bool {
	return code == APICodeSuccess || code == APICodeMultiStatus
}

// Server/feature status values
const (
	StatusOnline = 1
	EnabledTrue  = 1
)

// WireGuard interface defaults for the rendered client configuration.
const (
	WireGuardPort = 51820
	WireGuardIPv4 = "10.2.0.2/32"
	WireGuardIPv6 = "2a07:b944::2:2/128"
)

// Default DNS/allowed-IPs lists, selected by the -ipv6 flag.
const (
	DefaultDNSIPv4        = "10.2.0.1"
	DefaultDNSIPv6        = "fd00::1"
	DefaultAllowedIPsIPv4 = "0.0.0.0/0"
	DefaultAllowedIPsIPv6 = "::/0"
)

// Misc command-line defaults.
const (
	DefaultP2POnly      = false
	DefaultCertDuration = "24h"
)

// On-disk session cache file (SessionStore), separate from the OS-keyring
// persisted VPNAccount.
const (
	SessionFileName = ".protonvpn-session-cache.json"
	SessionFileMode = 0o600
)
