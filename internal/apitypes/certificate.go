package apitypes

// CertificateRequest is the body posted to POST /vpn/v1/certificate.
// Field names are bit-exact with the API (spec.md §4.3/§6).
type CertificateRequest struct {
	ClientPublicKey     string                 `json:"ClientPublicKey"`
	ClientPublicKeyMode string                 `json:"ClientPublicKeyMode,omitempty"`
	Mode                string                 `json:"Mode,omitempty"`
	DeviceName          string                 `json:"DeviceName,omitempty"`
	Duration            string                 `json:"Duration"`
	Features            map[string]interface{} `json:"Features,omitempty"`
}

// CertificateResponse is the raw JSON envelope returned by the certificate
// endpoint: a response-code envelope flattened onto the certificate fields.
type CertificateResponse struct {
	Code                 int    `json:"Code"`
	Error                string `json:"Error,omitempty"`
	SerialNumber         string `json:"SerialNumber"`
	ClientKeyFingerprint string `json:"ClientKeyFingerprint"`
	ClientKey            string `json:"ClientKey"`
	Certificate          string `json:"Certificate"`
	ExpirationTime       int64  `json:"ExpirationTime"`
	RefreshTime          int64  `json:"RefreshTime"`
	Mode                 string `json:"Mode"`
	DeviceName           string `json:"DeviceName"`
	ServerPublicKeyMode  string `json:"ServerPublicKeyMode"`
	ServerPublicKey      string `json:"ServerPublicKey"`
}

// VPNCertificate is the immutable wire record for a client certificate
// (spec.md §3).
type VPNCertificate struct {
	SerialNumber         string
	ClientKeyFingerprint string
	ClientKey            string
	Certificate          string
	ExpirationTime       int64
	RefreshTime          int64
	Mode                 string
	DeviceName           string
	ServerPublicKeyMode  string
	ServerPublicKey      string
}

// NewVPNCertificate builds the immutable record from the raw response.
func NewVPNCertificate(resp CertificateResponse) VPNCertificate {
	return VPNCertificate{
		SerialNumber:         resp.SerialNumber,
		ClientKeyFingerprint: resp.ClientKeyFingerprint,
		ClientKey:            resp.ClientKey,
		Certificate:          resp.Certificate,
		ExpirationTime:       resp.ExpirationTime,
		RefreshTime:          resp.RefreshTime,
		Mode:                 resp.Mode,
		DeviceName:           resp.DeviceName,
		ServerPublicKeyMode:  resp.ServerPublicKeyMode,
		ServerPublicKey:      resp.ServerPublicKey,
	}
}

// VPNSecrets holds the three parallel encodings of one locally generated
// Ed25519 private key (spec.md §3). Never sent to the server.
type VPNSecrets struct {
	WireGuardPrivateKey string `json:"wireguard_privatekey"`
	OpenVPNPrivateKey   string `json:"openvpn_privatekey"`
	Ed25519PrivateKey   string `json:"ed25519_privatekey"`
}

// Equal reports whether two secrets records encode the same key material.
func (s VPNSecrets) Equal(o VPNSecrets) bool {
	return s.WireGuardPrivateKey == o.WireGuardPrivateKey &&
		s.OpenVPNPrivateKey == o.OpenVPNPrivateKey &&
		s.Ed25519PrivateKey == o.Ed25519PrivateKey
}
