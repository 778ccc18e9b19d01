// Package session orchestrates the login → refresh → serialize → read
// pipeline (spec.md §4.6) on top of an authenticated-session collaborator,
// a REST fetcher, and the keyring/cache-file adapters.
package session

import "github.com/ProtonVPN/vpn-session-core/internal/authsession"

// AuthenticatedSession is an alias of authsession.AuthenticatedSession kept
// here so callers can spell it session.AuthenticatedSession; the interface
// itself lives in internal/authsession to avoid an import cycle with
// internal/fetcher, which session imports and which also needs the
// contract.
type AuthenticatedSession = authsession.AuthenticatedSession
