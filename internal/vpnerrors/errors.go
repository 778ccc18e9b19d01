// Package vpnerrors defines the sentinel error taxonomy shared by the
// certificate/credential lifecycle engine. Callers use errors.Is/errors.As
// to react to a specific kind rather than parsing error strings.
package vpnerrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap these with fmt.Errorf("...: %w", Err...) to attach
// context while keeping errors.Is working.
var (
	// ErrNotAvailable means no credentials bundle is loaded at all.
	ErrNotAvailable = errors.New("vpn: credentials not available")
	// ErrExpired means a bundle is present but now is past not-after.
	ErrExpired = errors.New("vpn: certificate expired")
	// ErrNeedsRefresh means remaining validity is at or below the accessor's floor.
	ErrNeedsRefresh = errors.New("vpn: certificate needs refresh")
	// ErrFingerprintMismatch means secrets and certificate disagree on identity.
	ErrFingerprintMismatch = errors.New("vpn: certificate fingerprint mismatch")
	// ErrCertificateDecode means an X.509 PEM blob could not be parsed.
	ErrCertificateDecode = errors.New("vpn: certificate decode error")
	// ErrKeyDecode means a seed or PEM key could not be parsed.
	ErrKeyDecode = errors.New("vpn: key decode error")
	// ErrClientConfigDecode means the client-configuration blob is malformed.
	ErrClientConfigDecode = errors.New("vpn: client config decode error")
	// ErrAuthenticationNeeded means the session token/cookie is no longer valid.
	ErrAuthenticationNeeded = errors.New("vpn: authentication needed")
)

// APIError carries the transport/HTTP failure context for a REST call.
// It wraps ErrAPI so errors.Is(err, vpnerrors.ErrAPI) succeeds.
type APIError struct {
	Route      string
	StatusCode int
	Code       int
	Message    string
}

// ErrAPI is the sentinel matched by errors.Is against any *APIError.
var ErrAPI = errors.New("vpn: api error")

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("vpn: api error on %s (http %d, code %d): %s", e.Route, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("vpn: api error on %s (http %d, code %d)", e.Route, e.StatusCode, e.Code)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// NewAPIError builds an *APIError for the given route/response.
func NewAPIError(route string, statusCode, code int, message string) error {
	return &APIError{Route: route, StatusCode: statusCode, Code: code, Message: message}
}
