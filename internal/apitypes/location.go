package apitypes

// VPNLocation describes the physical location the client is connecting
// from, as returned by GET /vpn/location (spec.md §3).
type VPNLocation struct {
	IP      string  `json:"IP"`
	Lat     float64 `json:"Lat"`
	Long    float64 `json:"Long"`
	Country string  `json:"Country"`
	ISP     string  `json:"ISP"`
}
