// Package vpn selects a server from the VPN server catalog — the
// collaborator named in spec.md §1 as explicitly out of core scope.
package vpn

import (
	"context"
	"fmt"

	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/authsession"
	"github.com/ProtonVPN/vpn-session-core/internal/constants"
)

// Client fetches the server catalog over an authenticated session.
type Client struct {
	sess authsession.AuthenticatedSession
}

// NewClient builds a Client over the given authenticated session.
func NewClient(sess authsession.AuthenticatedSession) *Client {
	return &Client{sess: sess}
}

// GetServers fetches the list of VPN logical servers.
func (c *Client) GetServers(ctx context.Context) ([]apitypes.LogicalServer, error) {
	var resp apitypes.LogicalsResponse
	if err := c.sess.AsyncRequest(ctx, "GET", constants.LogicalsPath, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching server catalog: %w", err)
	}
	if !constants.IsSuccessCode(resp.Code) {
		return nil, fmt.Errorf("API returned error code: %d", resp.Code)
	}
	return resp.LogicalServers, nil
}
