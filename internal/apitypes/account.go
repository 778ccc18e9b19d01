// Package apitypes holds the wire records exchanged with the ProtonVPN
// REST API and the plain immutable domain types built from them. JSON
// field names are bit-exact with the remote API and must not be renamed.
package apitypes

// VPNAccountInfo is the nested "VPN" object of the /vpn response.
type VPNAccountInfo struct {
	Name                     string   `json:"Name"`
	Password                 string   `json:"Password"`
	GroupID                  string   `json:"GroupID"`
	Status                   int      `json:"Status"`
	PlanName                 string   `json:"PlanName"`
	PlanTitle                string   `json:"PlanTitle"`
	MaxTier                  int      `json:"MaxTier"`
	MaxConnect               int      `json:"MaxConnect"`
	Groups                   []string `json:"Groups"`
	NeedConnectionAllocation bool     `json:"NeedConnectionAllocation"`
	ExpirationTime           int64    `json:"ExpirationTime"`
}

// VPNInfoResponse is the raw JSON envelope returned by GET /vpn.
type VPNInfoResponse struct {
	Code             int            `json:"Code"`
	VPN              VPNAccountInfo `json:"VPN"`
	Services         int            `json:"Services"`
	Subscribed       int            `json:"Subscribed"`
	Delinquent       int            `json:"Delinquent"`
	HasPaymentMethod int            `json:"HasPaymentMethod"`
	Credit           int            `json:"Credit"`
	Currency         string         `json:"Currency"`
	Warnings         []string       `json:"Warnings"`
}

// VPNInfo is the immutable, flattened account record consumed by the rest
// of the core (spec.md §3). It is replaced wholesale on every refresh.
type VPNInfo struct {
	Name           string
	Password       string
	PlanName       string
	MaxTier        int
	MaxConnect     int
	Groups         []string
	Delinquent     int
	ExpirationTime int64
}

// NewVPNInfo flattens a raw /vpn response into the immutable domain record.
func NewVPNInfo(resp VPNInfoResponse) VPNInfo {
	groups := make([]string, len(resp.VPN.Groups))
	copy(groups, resp.VPN.Groups)
	return VPNInfo{
		Name:           resp.VPN.Name,
		Password:       resp.VPN.Password,
		PlanName:       resp.VPN.PlanName,
		MaxTier:        resp.VPN.MaxTier,
		MaxConnect:     resp.VPN.MaxConnect,
		Groups:         groups,
		Delinquent:     resp.Delinquent,
		ExpirationTime: resp.VPN.ExpirationTime,
	}
}

// IsDelinquent reports the delinquency projection per spec.md §4.5/§8.
func (v VPNInfo) IsDelinquent() bool {
	return v.Delinquent > 2
}
