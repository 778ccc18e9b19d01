// Package authsession defines the authenticated-session collaborator
// contract shared by session.Core and its REST-facing consumers
// (internal/fetcher, internal/clientconfig, internal/vpn). It is split out
// from internal/session so those consumers can depend on the contract
// without session depending back on them.
package authsession

import "context"

// AuthenticatedSession is the external collaborator SessionCore drives to
// authenticate, hold tokens, and issue API requests (spec.md §6.1). The
// concrete implementation, auth.Client, owns the SRP handshake and the
// HTTP transport; SessionCore only ever sees this interface, breaking the
// historical PubkeyCredentials→Session back-reference (spec.md §9).
type AuthenticatedSession interface {
	// Authenticate runs the SRP login handshake. needsTwoFactor is true
	// when the account requires a TOTP code before the session gains the
	// "vpn" scope; the caller must then call ProvideTwoFactor.
	Authenticate(ctx context.Context, username, password string) (needsTwoFactor bool, err error)

	// ProvideTwoFactor submits a TOTP code to upgrade a session that
	// Authenticate reported as needing one.
	ProvideTwoFactor(ctx context.Context, code string) error

	// Logout invalidates the session both locally and on the server.
	Logout(ctx context.Context) error

	// NeedsTwoFactor reports whether the session is authenticated but
	// still missing the "vpn" scope pending a TOTP code.
	NeedsTwoFactor() bool

	// Authenticated reports whether the session currently holds a token
	// with the "vpn" scope.
	Authenticated() bool

	// AsyncRequest issues one authenticated REST call. body is marshaled
	// as the JSON request payload when non-nil; the response body is
	// unmarshaled into out. Implementations retry once via the refresh
	// token on a 401 before surfacing vpnerrors.ErrAuthenticationNeeded.
	AsyncRequest(ctx context.Context, method, route string, body, out interface{}) error

	// RequestsLock/RequestsUnlock bracket a critical section across which
	// no other goroutine may mutate the session's tokens, e.g. while a
	// refresh is rotating them (spec.md §5).
	RequestsLock()
	RequestsUnlock()

	// GetState/SetState serialize and restore the session's tokens, for
	// persistence alongside the VPNAccount (spec.md §6.5).
	GetState() map[string]interface{}
	SetState(state map[string]interface{}) error
}
