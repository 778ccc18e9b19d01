// Package main demonstrates the session core end to end: authenticate,
// refresh the VPN account, cache it in the OS keyring, fetch the server
// catalog, and render a WireGuard configuration for the best match.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/ProtonVPN/vpn-session-core/internal/account"
	"github.com/ProtonVPN/vpn-session-core/internal/apitypes"
	"github.com/ProtonVPN/vpn-session-core/internal/auth"
	"github.com/ProtonVPN/vpn-session-core/internal/cachefile"
	"github.com/ProtonVPN/vpn-session-core/internal/config"
	"github.com/ProtonVPN/vpn-session-core/internal/keyringstore"
	"github.com/ProtonVPN/vpn-session-core/internal/session"
	"github.com/ProtonVPN/vpn-session-core/internal/vpn"
	"github.com/ProtonVPN/vpn-session-core/internal/vpnlog"
	"github.com/ProtonVPN/vpn-session-core/pkg/timeutil"
	"github.com/ProtonVPN/vpn-session-core/pkg/wireguard"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse()
	if err != nil {
		config.PrintUsage()
		return err
	}

	log, err := buildLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("starting logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	authClient := auth.NewClient(cfg.APIURL)
	sessionStore := auth.NewSessionStore()

	if cfg.ClearSession {
		if err := sessionStore.Delete(); err != nil {
			log.Warn("failed to clear disk session cache", "category", "cli", "event", "clear_session_error", "error", err.Error())
		}
	}

	var ring keyringstore.Keyring
	if !cfg.NoSession {
		osRing, err := keyringstore.Open()
		if err != nil {
			log.Warn("OS keyring unavailable, account persistence disabled", "category", "cli", "event", "keyring_unavailable", "error", err.Error())
		} else {
			ring = osRing
		}
	}
	if cfg.ClearSession && ring != nil && cfg.Username != "" {
		_ = ring.Delete(keyringstore.KeyForUsername(cfg.Username))
	}

	var cache *cachefile.File
	if cachePath, err := clientConfigCachePath(); err != nil {
		log.Warn("could not determine client config cache path, ancillary config won't persist", "category", "cli", "event", "clientconfig_cache_path_error", "error", err.Error())
	} else {
		cache = cachefile.New(cachePath)
	}

	core := session.NewCore(authClient, ring, cache, log)

	if !cfg.ClearSession && !cfg.NoSession {
		restoreDiskSession(sessionStore, authClient, cfg.Username, log)
	}

	if !authClient.Authenticated() {
		if err := interactiveLogin(ctx, core, cfg); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}
	fmt.Println("Authentication successful!")

	if err := ensureAccountLoaded(ctx, core, cfg, ring); err != nil {
		return fmt.Errorf("failed to load VPN account: %w", err)
	}

	if !cfg.NoSession {
		persistDiskSession(sessionStore, authClient, cfg.Username, cfg.SessionDuration, log)
	}

	acc := core.VPNAccount()
	if acc == nil {
		return fmt.Errorf("no VPN account data available after refresh")
	}
	printAccountSummary(acc)

	vpnClient := vpn.NewClient(authClient)
	servers, err := vpnClient.GetServers(ctx)
	if err != nil {
		return fmt.Errorf("failed to get servers: %w", err)
	}

	selector := vpn.NewServerSelector(cfg)
	server, err := selector.SelectBest(servers)
	if err != nil {
		return err
	}

	features := apitypes.GetFeatureNames(server.Features)
	featureStr := ""
	if len(features) > 0 {
		featureStr = fmt.Sprintf(", Features: %s", strings.Join(features, ", "))
	}
	fmt.Printf("Selected server: %s (Country: %s, City: %s, Tier: %s, Load: %d%%, Score: %.2f, Servers: %d%s)\n",
		server.Name, server.ExitCountry, server.City, apitypes.GetTierName(server.Tier),
		server.Load, server.Score, len(server.Servers), featureStr)

	physicalServer := vpn.GetBestPhysicalServer(server)
	if physicalServer == nil {
		return fmt.Errorf("no physical servers available")
	}

	privateKey, err := acc.Credentials.WireGuardPrivateKey()
	if err != nil {
		return fmt.Errorf("WireGuard key unavailable: %w", err)
	}

	generator := wireguard.NewConfigGenerator(cfg)
	if err := generator.Generate(server, physicalServer, privateKey); err != nil {
		return fmt.Errorf("failed to generate WireGuard config: %w", err)
	}
	fmt.Printf("WireGuard configuration written to: %s\n", cfg.OutputFile)

	if remaining, ok := acc.Credentials.RemainingValiditySeconds(); ok {
		fmt.Printf("Certificate valid for another %s\n", timeutil.HumanizeDuration(time.Duration(remaining)*time.Second))
	}
	fmt.Printf("\nSuccessfully generated config for %s\n", server.ExitCountry)
	return nil
}

func buildLogger(debug bool) (*vpnlog.Logger, error) {
	if debug {
		return vpnlog.NewDevelopment()
	}
	return vpnlog.New()
}

// restoreDiskSession hydrates authClient's tokens from the on-disk session
// cache, if one exists for username and hasn't expired.
func restoreDiskSession(store *auth.SessionStore, authClient *auth.Client, username string, log *vpnlog.Logger) {
	savedSession, ttl, err := store.Load(username)
	if err != nil {
		log.Warn("failed to read disk session cache", "category", "cli", "event", "session_load_error", "error", err.Error())
		return
	}
	if savedSession == nil {
		return
	}
	raw, err := json.Marshal(savedSession)
	if err != nil {
		return
	}
	var state map[string]interface{}
	if err := json.Unmarshal(raw, &state); err != nil {
		return
	}
	if err := authClient.SetState(state); err != nil {
		log.Warn("failed to restore disk session cache", "category", "cli", "event", "session_restore_error", "error", err.Error())
		return
	}
	log.Info("restored session from disk cache", "category", "cli", "event", "session_restored", "ttl", timeutil.HumanizeDuration(ttl))
}

// persistDiskSession writes authClient's current tokens to the on-disk
// session cache for the next invocation to pick up.
func persistDiskSession(store *auth.SessionStore, authClient *auth.Client, username, durationFlag string, log *vpnlog.Logger) {
	state := authClient.GetState()
	if state == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	var sess apitypes.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return
	}
	duration, err := timeutil.ParseDuration(durationFlag)
	if err != nil {
		log.Warn("invalid -session-duration, not caching session", "category", "cli", "event", "session_duration_error", "error", err.Error())
		return
	}
	if err := store.Save(&sess, username, duration); err != nil {
		log.Warn("failed to write disk session cache", "category", "cli", "event", "session_save_error", "error", err.Error())
	}
}

// interactiveLogin prompts for any missing credentials on the terminal,
// runs the SRP handshake, and walks through 2FA if the account requires it.
func interactiveLogin(ctx context.Context, core *session.Core, cfg *config.Config) error {
	reader := bufio.NewReader(os.Stdin)

	username := cfg.Username
	if username == "" {
		fmt.Print("ProtonVPN username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	password := cfg.Password
	if password == "" {
		fmt.Print("ProtonVPN password: ")
		passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		password = string(passwordBytes)
	}

	result, err := core.Login(ctx, username, password)
	if err != nil {
		return err
	}
	cfg.Username = username

	if result.TwoFARequired {
		fmt.Print("Two-factor code: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading 2FA code: %w", err)
		}
		if _, err := core.ProvideTwoFA(ctx, strings.TrimSpace(line)); err != nil {
			return fmt.Errorf("2FA verification failed: %w", err)
		}
	}
	return nil
}

// ensureAccountLoaded gets core into a state where VPNAccount() returns
// fresh data: restoring from the keyring when acceptable, otherwise
// refreshing over the network.
func ensureAccountLoaded(ctx context.Context, core *session.Core, cfg *config.Config, ring keyringstore.Keyring) error {
	if !cfg.ForceRefresh && ring != nil && cfg.Username != "" && !core.IsLoaded() {
		_ = core.LoadFromKeyring(cfg.Username)
	}
	if cfg.ForceRefresh || !core.IsLoaded() {
		return core.Refresh(ctx)
	}
	return nil
}

func printAccountSummary(acc *account.Account) {
	loc := acc.GetLocation()
	fmt.Printf("Plan tier %d, max %d simultaneous connections\n", acc.MaxTier(), acc.MaxConnections())
	if acc.Delinquent() {
		fmt.Println("Warning: account has an overdue invoice")
	}
	if loc.Country != "" {
		fmt.Printf("Connecting from: %s (%s)\n", loc.Country, loc.IP)
	}
}

func clientConfigCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "protonvpn-session", "clientconfig.json"), nil
}
