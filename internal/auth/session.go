package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/constants"
)

// SessionStore handles persistent on-disk session storage, used as a
// local fallback cache alongside the keyring-backed persistence
// SessionCore manages for the VPNAccount (spec.md §6.2).
type SessionStore struct {
	filePath string
}

// NewSessionStore creates a new session store rooted at the user's home
// directory.
func NewSessionStore() *SessionStore {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &SessionStore{
		filePath: filepath.Join(homeDir, constants.SessionFileName),
	}
}

// SavedSession represents a session with metadata.
type SavedSession struct {
	Session   *apitypes.Session `json:"session"`
	Username  string            `json:"username"`
	SavedAt   time.Time         `json:"saved_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Save stores the session to disk.
func (s *SessionStore) Save(session *apitypes.Session, username string, duration time.Duration) error {
	savedSession := &SavedSession{
		Session:  session,
		Username: username,
		SavedAt:  time.Now(),
	}

	apiExpiration := time.Now().Add(time.Duration(session.ExpiresIn) * time.Second)
	if duration == 0 {
		savedSession.ExpiresAt = apiExpiration
	} else {
		userExpiration := time.Now().Add(duration)
		if userExpiration.After(apiExpiration) {
			savedSession.ExpiresAt = apiExpiration
		} else {
			savedSession.ExpiresAt = userExpiration
		}
	}

	data, err := json.MarshalIndent(savedSession, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, constants.SessionFileMode); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load retrieves a saved session from disk.
func (s *SessionStore) Load(username string) (*apitypes.Session, time.Duration, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read session file: %w", err)
	}

	var savedSession SavedSession
	if err := json.Unmarshal(data, &savedSession); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if savedSession.Username != username {
		return nil, 0, nil
	}

	now := time.Now()
	if now.After(savedSession.ExpiresAt) {
		_ = s.Delete()
		return nil, 0, nil
	}

	return savedSession.Session, savedSession.ExpiresAt.Sub(now), nil
}

// Delete removes the saved session.
func (s *SessionStore) Delete() error {
	err := os.Remove(s.filePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// GetPath returns the session file path.
func (s *SessionStore) GetPath() string {
	return s.filePath
}

// RefreshSession attempts to refresh the session using the refresh token.
func RefreshSession(httpClient *http.Client, apiURL string, oldSession *apitypes.Session) (*apitypes.Session, error) {
	reqBody := map[string]interface{}{
		"ResponseType": "token",
		"GrantType":    "refresh_token",
		"RefreshToken": oldSession.RefreshToken,
		"RedirectURI":  "http://protonmail.ch",
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, apiURL+constants.RefreshPath, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-pm-appversion", constants.AppVersion)
	req.Header.Set("User-Agent", constants.UserAgent)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", oldSession.AccessToken))
	req.Header.Set("x-pm-uid", oldSession.UID)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		var newSession apitypes.Session
		if err := json.Unmarshal(respBody, &newSession); err != nil {
			return nil, err
		}
		if constants.IsSuccessCode(newSession.Code) {
			return &newSession, nil
		}
	}

	return nil, fmt.Errorf("refresh failed (status %d): %s", resp.StatusCode, string(respBody))
}

// VerifySession checks if a session is still valid by making a test API
// request.
func VerifySession(httpClient *http.Client, apiURL string, session *apitypes.Session) bool {
	req, err := http.NewRequest(http.MethodGet, apiURL+constants.LogicalsPath, http.NoBody)
	if err != nil {
		return false
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", session.AccessToken))
	req.Header.Set("x-pm-uid", session.UID)
	req.Header.Set("x-pm-appversion", constants.AppVersion)
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return false
	}

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
