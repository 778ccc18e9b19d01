// Package auth implements the ProtonVPN SRP authentication handshake and
// is the concrete session.AuthenticatedSession collaborator SessionCore
// drives (spec.md §6.1).
package auth

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ProtonMail/go-srp"

	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/constants"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnerrors"
)

// Client drives the SRP login handshake, holds the resulting tokens, and
// issues authenticated REST calls on their behalf. It implements
// session.AuthenticatedSession.
type Client struct {
	apiURL     string
	httpClient *http.Client

	mu              sync.Mutex
	session         *apitypes.Session
	pendingUsername string
	twoFactorNeeded bool
}

// NewClient creates an authentication client against apiURL.
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: false,
					MinVersion:         tls.VersionTLS12,
				},
			},
		},
	}
}

// Authenticate runs the SRP login handshake (spec.md §6.1).
func (c *Client) Authenticate(ctx context.Context, username, password string) (bool, error) {
	authInfo, err := c.getAuthInfo(ctx, username)
	if err != nil {
		return false, fmt.Errorf("failed to get auth info: %w", err)
	}

	proofs, err := generateSRPProofs(username, password, authInfo)
	if err != nil {
		return false, err
	}

	authReq := map[string]interface{}{
		"Username":          username,
		"ClientEphemeral":   base64.StdEncoding.EncodeToString(proofs.ClientEphemeral),
		"ClientProof":       base64.StdEncoding.EncodeToString(proofs.ClientProof),
		"SRPSession":        authInfo.SRPSession,
		"PersistentCookies": 0,
	}

	requiresTOTP := authInfo.TwoFA.Enabled == constants.EnabledTrue && authInfo.TwoFA.TOTP == constants.EnabledTrue

	newSession, err := c.sendAuthRequest(ctx, authReq)
	if err != nil {
		return false, err
	}

	if newSession.ServerProof != base64.StdEncoding.EncodeToString(proofs.ExpectedServerProof) {
		return false, fmt.Errorf("server proof verification failed")
	}

	c.mu.Lock()
	c.session = newSession
	c.pendingUsername = username
	c.twoFactorNeeded = requiresTOTP && !newSession.HasScope("vpn")
	c.mu.Unlock()

	return c.twoFactorNeeded, nil
}

// ProvideTwoFactor submits a TOTP code to upgrade the session.
func (c *Client) ProvideTwoFactor(ctx context.Context, code string) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("%w: no session to upgrade", vpnerrors.ErrAuthenticationNeeded)
	}

	scopes, err := c.submit2FA(ctx, sess, code)
	if err != nil {
		return fmt.Errorf("2FA verification failed: %w", err)
	}

	c.mu.Lock()
	c.session.Scopes = scopes
	c.twoFactorNeeded = false
	c.mu.Unlock()
	return nil
}

// Logout invalidates the session.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.twoFactorNeeded = false
	c.mu.Unlock()
	if sess == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.apiURL+constants.AuthPath, http.NoBody)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	c.setAuthHeaders(req, sess)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return nil
}

// NeedsTwoFactor reports whether a pending login still needs a TOTP code.
func (c *Client) NeedsTwoFactor() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.twoFactorNeeded
}

// Authenticated reports whether the session currently has the "vpn" scope.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.HasScope("vpn")
}

// RequestsLock brackets a critical section across which tokens must not
// be mutated by a concurrent refresh.
func (c *Client) RequestsLock() { c.mu.Lock() }

// RequestsUnlock releases the lock taken by RequestsLock.
func (c *Client) RequestsUnlock() { c.mu.Unlock() }

// GetState serializes the session's tokens for persistence.
func (c *Client) GetState() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	raw, err := json.Marshal(c.session)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// SetState restores the session's tokens from a persisted state map.
func (c *Client) SetState(state map[string]interface{}) error {
	if state == nil {
		return nil
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: re-encoding session state: %v", vpnerrors.ErrAuthenticationNeeded, err)
	}
	var sess apitypes.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return fmt.Errorf("%w: decoding session state: %v", vpnerrors.ErrAuthenticationNeeded, err)
	}
	c.mu.Lock()
	c.session = &sess
	c.mu.Unlock()
	return nil
}

// AsyncRequest issues one authenticated REST call, retrying once via the
// refresh token on a 401 before giving up.
func (c *Client) AsyncRequest(ctx context.Context, method, route string, body, out interface{}) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("%w: no authenticated session", vpnerrors.ErrAuthenticationNeeded)
	}

	statusCode, respBody, err := c.do(ctx, method, route, body, sess)
	if err != nil {
		return err
	}

	if statusCode == http.StatusUnauthorized {
		refreshed, rerr := RefreshSession(c.httpClient, c.apiURL, sess)
		if rerr != nil {
			return fmt.Errorf("%w: session expired and refresh failed: %v", vpnerrors.ErrAuthenticationNeeded, rerr)
		}
		c.mu.Lock()
		c.session = refreshed
		c.mu.Unlock()
		statusCode, respBody, err = c.do(ctx, method, route, body, refreshed)
		if err != nil {
			return err
		}
		if statusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s still unauthorized after token refresh", vpnerrors.ErrAuthenticationNeeded, route)
		}
	}

	if statusCode < 200 || statusCode >= 300 {
		return vpnerrors.NewAPIError(route, statusCode, 0, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", route, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, route string, body interface{}, sess *apitypes.Session) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+route, reader)
	if err != nil {
		return 0, nil, err
	}
	c.setHeaders(req)
	c.setAuthHeaders(req, sess)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func generateSRPProofs(username, password string, authInfo *apitypes.AuthInfoResponse) (*srp.Proofs, error) {
	authCtx, err := srp.NewAuth(authInfo.Version, username, []byte(password), authInfo.Salt, authInfo.Modulus, authInfo.ServerEphemeral)
	if err != nil {
		return nil, fmt.Errorf("failed to create SRP auth: %w", err)
	}

	proofs, err := authCtx.GenerateProofs(2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SRP proofs: %w", err)
	}
	return proofs, nil
}

func (c *Client) getAuthInfo(ctx context.Context, username string) (*apitypes.AuthInfoResponse, error) {
	reqBody := map[string]interface{}{
		"Username": username,
		"Intent":   "Proton",
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+constants.AuthInfoPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var authInfo apitypes.AuthInfoResponse
	if err := json.Unmarshal(respBody, &authInfo); err != nil {
		return nil, fmt.Errorf("failed to parse auth info: %w", err)
	}

	if authInfo.Code != constants.APICodeSuccess {
		return nil, fmt.Errorf("failed to get auth info, code: %d", authInfo.Code)
	}
	if authInfo.Modulus == "" || authInfo.ServerEphemeral == "" {
		return nil, fmt.Errorf("received incomplete auth info")
	}

	return &authInfo, nil
}

func (c *Client) sendAuthRequest(ctx context.Context, authReq map[string]interface{}) (*apitypes.Session, error) {
	body, err := json.Marshal(authReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+constants.AuthPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authentication HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var sess apitypes.Session
	if err := json.Unmarshal(respBody, &sess); err != nil {
		return nil, err
	}

	if sess.Code == CodeMailboxPasswordError {
		return nil, fmt.Errorf("account uses legacy 2-password mode which is not supported; switch to single-password mode at account.proton.me")
	}
	if sess.Code != CodeSuccess {
		return nil, NewError(sess.Code)
	}

	return &sess, nil
}

func (c *Client) submit2FA(ctx context.Context, sess *apitypes.Session, code string) ([]string, error) {
	reqBody := map[string]interface{}{"TwoFactorCode": code}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+constants.TwoFactorPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	c.setAuthHeaders(req, sess)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("2FA HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var twoFAResp struct {
		Code   int      `json:"Code"`
		Scopes []string `json:"Scopes"`
		Error  string   `json:"Error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &twoFAResp); err != nil {
		return nil, fmt.Errorf("failed to parse 2FA response: %w", err)
	}
	if twoFAResp.Code != CodeSuccess {
		if twoFAResp.Error != "" {
			return nil, fmt.Errorf("2FA failed (code %d): %s", twoFAResp.Code, twoFAResp.Error)
		}
		return nil, NewError(twoFAResp.Code)
	}

	return twoFAResp.Scopes, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-pm-appversion", constants.AppVersion)
	req.Header.Set("User-Agent", constants.UserAgent)
}

func (c *Client) setAuthHeaders(req *http.Request, sess *apitypes.Session) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sess.AccessToken))
	req.Header.Set("x-pm-uid", sess.UID)
}
