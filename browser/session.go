package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

// SetupError reports that the browser environment could not be prepared.
// It is fatal for a run and distinct from scenario failures.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup: %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// Config controls how a session's browser is launched.
type Config struct {
	Headless bool
	// IsolateProfile launches on a fresh profile directory removed on release.
	IsolateProfile bool
	// ProfileRoot is the parent directory for isolated profiles, os.TempDir() if empty.
	ProfileRoot string
	// DisableCredentialStore turns off the password manager and its save/leak prompts.
	DisableCredentialStore bool
	// SuppressAutomationFlags hides the automation banner and navigator.webdriver.
	SuppressAutomationFlags bool
	// Maximize starts maximized without a fixed viewport.
	Maximize bool
	// NoSandbox is required in most containers.
	NoSandbox bool
	SlowMo    time.Duration
}

// DefaultConfig is the configuration used for scenario runs.
func DefaultConfig() Config {
	return Config{
		Headless:                true,
		IsolateProfile:          true,
		DisableCredentialStore:  true,
		SuppressAutomationFlags: true,
		Maximize:                true,
		NoSandbox:               true,
	}
}

// LaunchOptions derives backend launch options for a profile directory.
func (c Config) LaunchOptions(profileDir string) LaunchOptions {
	opts := LaunchOptions{
		ProfileDir: profileDir,
		Headless:   c.Headless,
		SlowMo:     c.SlowMo,
	}
	if c.NoSandbox {
		opts.Args = append(opts.Args, "--no-sandbox", "--disable-dev-shm-usage")
	}
	if c.SuppressAutomationFlags {
		opts.Args = append(opts.Args, "--disable-blink-features=AutomationControlled")
		opts.IgnoreDefaultArgs = append(opts.IgnoreDefaultArgs, "--enable-automation")
	}
	if c.DisableCredentialStore {
		opts.Args = append(opts.Args, "--password-store=basic", "--disable-save-password-bubble")
	}
	if c.Maximize {
		opts.Args = append(opts.Args, "--start-maximized")
		opts.NoViewport = true
	}
	return opts
}

// Session is one isolated browser instance, owned by exactly one scenario.
type Session struct {
	ID         uuid.UUID
	Config     Config
	ProfileDir string
	Started    time.Time

	browser     Browser
	ownsProfile bool

	releaseOnce sync.Once
	releaseErr  error
}

// Page returns the session's page.
func (s *Session) Page() Page {
	return s.browser.Page()
}

// Manager acquires and releases sessions.
type Manager struct {
	launcher Launcher
	logger   *slog.Logger

	active map[uuid.UUID]*Session
	mu     sync.Mutex
}

type ManagerOption func(*Manager)

func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager on top of a launcher.
func NewManager(launcher Launcher, options ...ManagerOption) *Manager {
	m := &Manager{
		launcher: launcher,
		logger:   slog.Default(),
		active:   make(map[uuid.UUID]*Session),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Acquire launches a new browser. Failures are returned as *SetupError.
func (m *Manager) Acquire(ctx context.Context, cfg Config) (*Session, error) {
	s := &Session{
		ID:      uuid.Must(uuid.NewV7()),
		Config:  cfg,
		Started: time.Now(),
	}

	if cfg.IsolateProfile {
		dir, err := os.MkdirTemp(cfg.ProfileRoot, "surveyprobe-profile-*")
		if err != nil {
			return nil, &SetupError{Op: "creating profile directory", Err: err}
		}
		s.ProfileDir = dir
		s.ownsProfile = true
	}

	if cfg.DisableCredentialStore && s.ProfileDir != "" {
		if err := writeProfilePreferences(s.ProfileDir); err != nil {
			m.removeProfile(s)
			return nil, &SetupError{Op: "writing profile preferences", Err: err}
		}
	}

	b, err := m.launcher.Launch(ctx, cfg.LaunchOptions(s.ProfileDir))
	if err != nil {
		m.removeProfile(s)
		return nil, &SetupError{Op: "launching browser", Err: err}
	}
	s.browser = b

	m.mu.Lock()
	m.active[s.ID] = s
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "Acquired browser session", "session", s.ID, "profile", s.ProfileDir, "headless", cfg.Headless)
	return s, nil
}

// Release closes the browser and removes an owned profile directory.
// Calling it again returns the result of the first call.
func (m *Manager) Release(s *Session) error {
	s.releaseOnce.Do(func() {
		m.mu.Lock()
		delete(m.active, s.ID)
		m.mu.Unlock()

		var errs []error
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing browser: %w", err))
			}
		}
		if err := m.removeProfile(s); err != nil {
			errs = append(errs, fmt.Errorf("removing profile: %w", err))
		}
		s.releaseErr = errors.Join(errs...)

		m.logger.Debug("Released browser session", "session", s.ID, "lifetime", time.Since(s.Started))
	})
	return s.releaseErr
}

// WithSession runs fn with a freshly acquired session and releases it on every
// exit path. A panic in fn is returned as an error after the release.
func (m *Manager) WithSession(ctx context.Context, cfg Config, fn func(ctx context.Context, s *Session) error) (err error) {
	s, err := m.Acquire(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in session %s: %v", s.ID, r)
		}
		if releaseErr := m.Release(s); releaseErr != nil {
			m.logger.Warn("Releasing browser session failed", "session", s.ID, "error", releaseErr)
		}
	}()

	return fn(ctx, s)
}

// Active returns the number of sessions not yet released.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *Manager) removeProfile(s *Session) error {
	if !s.ownsProfile || s.ProfileDir == "" {
		return nil
	}
	return os.RemoveAll(s.ProfileDir)
}

// writeProfilePreferences disables the credential store before first launch.
// Chromium reads Default/Preferences when the profile is opened.
func writeProfilePreferences(profileDir string) error {
	prefs := map[string]any{
		"credentials_enable_service": false,
		"profile": map[string]any{
			"password_manager_enabled":        false,
			"password_manager_leak_detection": false,
		},
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	dir := filepath.Join(profileDir, "Default")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "Preferences"), data, 0o600)
}
