package browser_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/browser/browsertest"
)

func testConfig(t *testing.T) browser.Config {
	cfg := browser.DefaultConfig()
	cfg.ProfileRoot = t.TempDir()
	return cfg
}

func TestConfig_LaunchOptions(t *testing.T) {
	opts := browser.DefaultConfig().LaunchOptions("/tmp/profile")

	assert.Equal(t, "/tmp/profile", opts.ProfileDir)
	assert.True(t, opts.Headless)
	assert.True(t, opts.NoViewport)
	assert.Contains(t, opts.Args, "--disable-blink-features=AutomationControlled")
	assert.Contains(t, opts.Args, "--start-maximized")
	assert.Contains(t, opts.Args, "--no-sandbox")
	assert.Contains(t, opts.Args, "--disable-dev-shm-usage")
	assert.Contains(t, opts.IgnoreDefaultArgs, "--enable-automation")
}

func TestManager_Acquire_IsolatedProfileWithCredentialStoreDisabled(t *testing.T) {
	launcher := &browsertest.Launcher{}
	manager := browser.NewManager(launcher)

	s, err := manager.Acquire(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer manager.Release(s)

	data, err := os.ReadFile(filepath.Join(s.ProfileDir, "Default", "Preferences"))
	require.NoError(t, err)

	var prefs struct {
		CredentialsEnableService *bool `json:"credentials_enable_service"`
		Profile                  struct {
			PasswordManagerEnabled *bool `json:"password_manager_enabled"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(data, &prefs))
	require.NotNil(t, prefs.CredentialsEnableService)
	assert.False(t, *prefs.CredentialsEnableService)
	require.NotNil(t, prefs.Profile.PasswordManagerEnabled)
	assert.False(t, *prefs.Profile.PasswordManagerEnabled)

	launches := launcher.Launches()
	require.Len(t, launches, 1)
	assert.Equal(t, s.ProfileDir, launches[0].ProfileDir)
}

func TestManager_SessionsDoNotShareProfiles(t *testing.T) {
	manager := browser.NewManager(&browsertest.Launcher{})
	cfg := testConfig(t)

	first, err := manager.Acquire(context.Background(), cfg)
	require.NoError(t, err)
	second, err := manager.Acquire(context.Background(), cfg)
	require.NoError(t, err)

	assert.NotEqual(t, first.ProfileDir, second.ProfileDir)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotSame(t, first.Page(), second.Page())
	assert.Equal(t, 2, manager.Active())

	require.NoError(t, manager.Release(first))
	require.NoError(t, manager.Release(second))
	assert.Equal(t, 0, manager.Active())
}

func TestManager_Release_IsIdempotentAndRemovesProfile(t *testing.T) {
	launcher := &browsertest.Launcher{}
	manager := browser.NewManager(launcher)

	s, err := manager.Acquire(context.Background(), testConfig(t))
	require.NoError(t, err)

	require.NoError(t, manager.Release(s))
	require.NoError(t, manager.Release(s))

	assert.Equal(t, 1, launcher.Browsers()[0].Closes())
	_, err = os.Stat(s.ProfileDir)
	assert.True(t, os.IsNotExist(err), "profile directory should be removed")
}

func TestManager_Acquire_LaunchFailureIsSetupError(t *testing.T) {
	cfg := testConfig(t)
	manager := browser.NewManager(&browsertest.Launcher{Err: errors.New("chromium not installed")})

	_, err := manager.Acquire(context.Background(), cfg)

	var setupErr *browser.SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, "launching browser", setupErr.Op)
	assert.ErrorContains(t, err, "chromium not installed")

	entries, err := os.ReadDir(cfg.ProfileRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "profile of failed launch should be removed")
}

func TestManager_WithSession_ReleasesOnEveryExitPath(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(ctx context.Context, s *browser.Session) error
		wantErr string
	}{
		{
			name: "success",
			fn:   func(ctx context.Context, s *browser.Session) error { return nil },
		},
		{
			name:    "failure",
			fn:      func(ctx context.Context, s *browser.Session) error { return errors.New("assertion failed") },
			wantErr: "assertion failed",
		},
		{
			name:    "panic",
			fn:      func(ctx context.Context, s *browser.Session) error { panic("boom") },
			wantErr: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			launcher := &browsertest.Launcher{}
			manager := browser.NewManager(launcher)

			err := manager.WithSession(context.Background(), testConfig(t), tt.fn)

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
			require.Len(t, launcher.Browsers(), 1)
			assert.Equal(t, 1, launcher.Browsers()[0].Closes())
			assert.Equal(t, 0, manager.Active())
		})
	}
}

func TestManager_WithSession_CloseFailureDoesNotMaskResult(t *testing.T) {
	launcher := &browsertest.Launcher{}
	manager := browser.NewManager(launcher)

	err := manager.WithSession(context.Background(), testConfig(t), func(ctx context.Context, s *browser.Session) error {
		launcher.Browsers()[0].CloseErr = errors.New("already gone")
		return nil
	})

	assert.NoError(t, err)
}
