package apitypes

// APIVPNSession describes one active VPN data-plane session for the
// account, as returned within GET /vpn/sessions (informational only,
// spec.md §4.3).
type APIVPNSession struct {
	SessionID string `json:"SessionID"`
	ExitIP    string `json:"ExitIP"`
	Protocol  string `json:"Protocol"`
}

// VPNSessionsResponse is the raw JSON envelope for GET /vpn/sessions.
type VPNSessionsResponse struct {
	Code     int             `json:"Code"`
	Sessions []APIVPNSession `json:"Sessions"`
}
