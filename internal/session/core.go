package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/ProtonVPN/vpn-session-core/internal/account"
	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/cachefile"
	"github.com/ProtonVPN/vpn-session-core/internal/clientconfig"
	"github.com/ProtonVPN/vpn-session-core/internal/credentials"
	"github.com/ProtonVPN/vpn-session-core/internal/fetcher"
	"github.com/ProtonVPN/vpn-session-core/internal/keymgr"
	"github.com/ProtonVPN/vpn-session-core/internal/keyringstore"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnerrors"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnlog"
)

// LoginResult reports the outcome of Core.Login.
type LoginResult struct {
	Success       bool
	Authenticated bool
	TwoFARequired bool
}

// Core orchestrates login → refresh → serialize → read (spec.md §4.6). It
// exclusively owns the current *account.Account and mediates every call
// between the authenticated-session collaborator, the fetcher, and the
// keyring.
type Core struct {
	sess      AuthenticatedSession
	fetch     *fetcher.Fetcher
	ring      keyringstore.Keyring
	cache     *cachefile.File
	log       *vpnlog.Logger
	sf        singleflight.Group
	current   atomic.Pointer[account.Account]
	keySeed   atomic.Pointer[[]byte]
	ancillary atomic.Pointer[clientconfig.ClientConfig]

	usernameMu sync.RWMutex
	username   string
}

func (c *Core) setUsername(username string) {
	c.usernameMu.Lock()
	c.username = username
	c.usernameMu.Unlock()
}

func (c *Core) getUsername() string {
	c.usernameMu.RLock()
	defer c.usernameMu.RUnlock()
	return c.username
}

// NewCore builds a SessionCore over the given collaborators. cache may be
// nil, in which case the ancillary client configuration is held in memory
// only and never survives process restart.
func NewCore(sess AuthenticatedSession, ring keyringstore.Keyring, cache *cachefile.File, log *vpnlog.Logger) *Core {
	if log == nil {
		log = vpnlog.NewNop()
	}
	return &Core{
		sess:  sess,
		fetch: fetcher.New(sess),
		ring:  ring,
		cache: cache,
		log:   log,
	}
}

// Login authenticates and, on success, performs the initial refresh
// (spec.md §4.6, mirroring the original's "authenticate() calls refresh()
// on success").
func (c *Core) Login(ctx context.Context, username, password string) (LoginResult, error) {
	c.setUsername(username)
	needsTwoFA, err := c.sess.Authenticate(ctx, username, password)
	if err != nil {
		return LoginResult{}, err
	}
	if needsTwoFA {
		return LoginResult{Success: true, TwoFARequired: true}, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return LoginResult{Success: true, Authenticated: true}, err
	}
	return LoginResult{Success: true, Authenticated: true}, nil
}

// ProvideTwoFA submits a pending TOTP code and, on success, performs the
// initial refresh.
func (c *Core) ProvideTwoFA(ctx context.Context, code string) (LoginResult, error) {
	if err := c.sess.ProvideTwoFactor(ctx, code); err != nil {
		return LoginResult{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return LoginResult{Success: true, Authenticated: true}, err
	}
	return LoginResult{Success: true, Authenticated: true}, nil
}

// Logout tears down the session and clears the persisted account and the
// ancillary cache (server list, client config), sharing the refresh/logout
// single-flight group so the two can never interleave (spec.md §4.6, §5).
func (c *Core) Logout(ctx context.Context) error {
	_, err, _ := c.sf.Do("refresh", func() (interface{}, error) {
		if err := c.sess.Logout(ctx); err != nil {
			return nil, err
		}
		c.current.Store(nil)
		c.keySeed.Store(nil)
		c.ancillary.Store(nil)
		if username := c.getUsername(); c.ring != nil && username != "" {
			_ = c.ring.Delete(keyringstore.KeyForUsername(username))
		}
		if c.cache != nil {
			if err := c.cache.Remove(); err != nil {
				c.log.Warn("failed to remove ancillary cache file", "category", "session", "event", "cache_remove_error", "error", err.Error())
			}
		}
		return nil, nil
	})
	return err
}

// Refresh fetches VPN info, a fresh certificate, location, and the
// ancillary client configuration in parallel and installs the resulting
// account atomically. Concurrent callers share one in-flight refresh via
// singleflight (spec.md §4.6/§8 property 4).
func (c *Core) Refresh(ctx context.Context) error {
	_, err, _ := c.sf.Do("refresh", func() (interface{}, error) {
		return nil, c.doRefresh(ctx)
	})
	return err
}

func (c *Core) doRefresh(ctx context.Context) error {
	handler, err := c.keyHandlerForRefresh()
	if err != nil {
		return err
	}

	pubPEM, err := handler.Ed25519PublicKeyPEM()
	if err != nil {
		return err
	}

	bundle, err := c.fetch.Refresh(ctx, pubPEM, fetcher.DefaultCertificateDuration, nil)
	if err != nil {
		return err
	}

	secrets, err := secretsFromHandler(handler)
	if err != nil {
		return err
	}

	credBundle, err := credentials.New(bundle.Certificate.Certificate, secrets, bundle.Certificate.ClientKeyFingerprint, true, c.log)
	if err != nil {
		return err
	}

	acc := account.New(bundle.Info, credBundle, bundle.Location)
	c.current.Store(acc)
	c.ancillary.Store(&bundle.ClientConfig)

	if username := c.getUsername(); c.ring != nil && username != "" {
		state, err := acc.ToMap()
		if err != nil {
			c.log.Warn("failed to serialize account for persistence", "category", "session", "event", "serialize_error", "error", err.Error())
		} else if err := c.ring.Set(keyringstore.KeyForUsername(username), state); err != nil {
			c.log.Warn("failed to persist account to keyring", "category", "session", "event", "persist_error", "error", err.Error())
		}
	}

	if c.cache != nil {
		if err := c.cache.Save(bundle.ClientConfig); err != nil {
			c.log.Warn("failed to persist ancillary client config", "category", "session", "event", "cache_save_error", "error", err.Error())
		}
	}

	return nil
}

// keyHandlerForRefresh reuses the existing Ed25519 seed across refreshes
// when one is already installed (spec.md §4.6, "reuse existing seed on
// refresh if present"), generating a fresh one only the first time.
func (c *Core) keyHandlerForRefresh() (*keymgr.KeyHandler, error) {
	if seedPtr := c.keySeed.Load(); seedPtr != nil {
		return keymgr.FromSeed(*seedPtr)
	}
	if acc := c.current.Load(); acc != nil && acc.Credentials != nil {
		if seed, err := acc.Credentials.Ed25519PrivateKeyRaw(); err == nil {
			c.keySeed.Store(&seed)
			return keymgr.FromSeed(seed)
		}
	}

	handler, err := keymgr.Generate()
	if err != nil {
		return nil, err
	}
	seed := handler.Ed25519PrivateKeyRaw()
	c.keySeed.Store(&seed)
	return handler, nil
}

func secretsFromHandler(handler *keymgr.KeyHandler) (apitypes.VPNSecrets, error) {
	ovpnPEM, err := handler.Ed25519PrivateKeyPEM()
	if err != nil {
		return apitypes.VPNSecrets{}, err
	}
	return apitypes.VPNSecrets{
		WireGuardPrivateKey: handler.X25519PrivateKeyBase64(),
		OpenVPNPrivateKey:   ovpnPEM,
		Ed25519PrivateKey:   handler.Ed25519PrivateKeyBase64(),
	}, nil
}

// VPNAccount returns the currently installed account, or nil if no
// successful refresh has happened yet. This is a lock-free atomic load
// (spec.md §5).
func (c *Core) VPNAccount() *account.Account {
	return c.current.Load()
}

// LoggedIn reports whether the underlying session currently holds the
// "vpn" scope.
func (c *Core) LoggedIn() bool {
	return c.sess.Authenticated()
}

// ActiveSessions fetches the informational list of active VPN data-plane
// sessions for the account, on demand rather than as part of Refresh
// (spec.md §4.3).
func (c *Core) ActiveSessions(ctx context.Context) ([]apitypes.APIVPNSession, error) {
	return c.fetch.FetchActiveSessions(ctx)
}

// IsLoaded reports whether a full account has been installed — info,
// certificate, and ancillary client config all present — either via
// Refresh or LoadFromKeyring (spec.md §4.6).
func (c *Core) IsLoaded() bool {
	return c.current.Load() != nil && c.ancillary.Load() != nil
}

// LoadFromKeyring restores a previously persisted account for username,
// re-running the strict fingerprint check (spec.md §6.5), and restores the
// cached ancillary client config if one is available.
func (c *Core) LoadFromKeyring(username string) error {
	if c.ring == nil {
		return vpnerrors.ErrNotAvailable
	}
	c.setUsername(username)
	state, err := c.ring.Get(keyringstore.KeyForUsername(username))
	if err != nil {
		return err
	}
	if state == nil {
		return vpnerrors.ErrNotAvailable
	}
	acc, err := account.FromMap(state, c.log)
	if err != nil {
		return fmt.Errorf("restoring persisted account: %w", err)
	}
	c.current.Store(acc)
	if acc.Credentials != nil {
		if seed, err := acc.Credentials.Ed25519PrivateKeyRaw(); err == nil {
			c.keySeed.Store(&seed)
		}
	}

	if c.cache != nil {
		var cfg clientconfig.ClientConfig
		if ok, err := c.cache.Load(&cfg); err == nil && ok {
			c.ancillary.Store(&cfg)
		}
	}

	return nil
}
