package main

import (
	"fmt"
	"os"

	"github.com/networkteam/surveyprobe/config"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/survey"
)

// loadFixtures merges the configured fixtures file and admin credentials over the built-in fixtures.
func loadFixtures(cfg *config.Config) (scenario.Fixtures, error) {
	fixtures := survey.DefaultFixtures()

	if cfg.Fixtures != "" {
		f, err := os.Open(cfg.Fixtures)
		if err != nil {
			return scenario.Fixtures{}, fmt.Errorf("opening fixtures: %w", err)
		}
		defer f.Close()

		loaded, err := scenario.LoadFixtures(f)
		if err != nil {
			return scenario.Fixtures{}, fmt.Errorf("%s: %w", cfg.Fixtures, err)
		}
		fixtures = fixtures.Merge(loaded)
	}

	overrides := scenario.Fixtures{Values: map[scenario.Key]string{}}
	if cfg.AdminEmail != "" {
		overrides.Values[survey.KeyAdminEmail] = cfg.AdminEmail
	}
	if cfg.AdminPassword != "" {
		overrides.Values[survey.KeyAdminPassword] = cfg.AdminPassword
	}
	return fixtures.Merge(overrides), nil
}
