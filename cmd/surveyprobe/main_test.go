package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/config"
	"github.com/networkteam/surveyprobe/survey"
)

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
values:
  orgName: ACME
preexisting:
  - orgName
strictPermissions: true
`), 0o600))

	fixtures, err := loadFixtures(&config.Config{
		Fixtures:      path,
		AdminEmail:    "admin@acme.test",
		AdminPassword: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "ACME", fixtures.Values[survey.KeyOrgName])
	assert.Equal(t, "admin@acme.test", fixtures.Values[survey.KeyAdminEmail])
	assert.Equal(t, "secret", fixtures.Values[survey.KeyAdminPassword])
	assert.Equal(t, "Selenium Role", fixtures.Values[survey.KeyRoleName], "built-in values are kept")
	assert.True(t, fixtures.StrictPermissions)
}

func TestLoadFixtures_MissingFile(t *testing.T) {
	_, err := loadFixtures(&config.Config{Fixtures: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"list", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 17)
	assert.True(t, strings.HasPrefix(lines[1], "1 "), lines[1])
	assert.Contains(t, lines[1], "signup")
	assert.Contains(t, lines[16], "survey-publish-assign")
}
