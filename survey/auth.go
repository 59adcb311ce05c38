package survey

import (
	"context"
	"fmt"
	"time"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/scenario"
)

var continueToAccount = browser.XPath("//button[contains(text(), 'Continue To Account Creation')]")

// openSignup navigates to the organization setup step of the signup flow.
func openSignup(ctx context.Context, env *scenario.Env, orgName string) error {
	return env.Step(ctx, "set up organization "+orgName, func(ctx context.Context) error {
		if err := env.Wait.Navigate(ctx, env.Page, env.URL("/")); err != nil {
			return err
		}
		if err := env.Click(ctx, signupLink); err != nil {
			return err
		}
		if err := env.Fill(ctx, browser.Name("name"), orgName); err != nil {
			return err
		}
		return env.Click(ctx, continueToAccount)
	})
}

func signup(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeyOrgName, KeyAdminUsername, KeyAdminEmail, KeyAdminPassword)
	if err != nil {
		return err
	}
	orgName, username, email, password := v[0], v[1], v[2], v[3]

	if err := openSignup(ctx, env, orgName); err != nil {
		return err
	}
	err = env.Step(ctx, "create account "+email, func(ctx context.Context) error {
		fields := []struct {
			name, value string
		}{
			{"username", username},
			{"email", email},
			{"password", password},
			{"confirmPassword", password},
		}
		for _, f := range fields {
			if err := env.Fill(ctx, browser.Name(f.name), f.value); err != nil {
				return err
			}
		}
		return env.Click(ctx, browser.XPath("//button[contains(text(), 'Sign Up')]"))
	})
	if err != nil {
		return err
	}

	return env.Step(ctx, "land on dashboard", func(ctx context.Context) error {
		if err := env.Verify.URLContains(ctx, env.Page, "/dashboard"); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, dashboardHeader)
	})
}

func signupDuplicateOrganization(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeyOrgName)
	if err != nil {
		return err
	}
	orgName := v[0]

	if err := openSignup(ctx, env, orgName); err != nil {
		return err
	}
	return env.Step(ctx, "reject duplicate organization", func(ctx context.Context) error {
		want := fmt.Sprintf("An organization with the name '%s' already exists.", orgName)
		return env.Verify.TextContains(ctx, env.Page, browser.XPath("//div[contains(@class, 'bg-red-100')]"), want)
	})
}

func loginSuccess(ctx context.Context, env *scenario.Env) error {
	return LoginAdmin(ctx, env)
}

// readInviteCode reads the organization invitation code as administrator and signs out.
func readInviteCode(ctx context.Context, env *scenario.Env) (string, error) {
	v, err := values(env, KeyAdminEmail)
	if err != nil {
		return "", err
	}
	if err := LoginAdmin(ctx, env); err != nil {
		return "", err
	}

	var code string
	err = env.Step(ctx, "read invitation code", func(ctx context.Context) error {
		if err := env.Click(ctx, browser.XPath("//button[.='Organization']")); err != nil {
			return err
		}
		text, err := env.Wait.Text(ctx, env.Page, browser.XPath("//code[contains(., 'Invitation Code:')]"))
		if err != nil {
			return err
		}
		code, err = ParseInviteCode(text)
		return err
	})
	if err != nil {
		return "", err
	}
	env.State.Set(KeyInviteCode, code)

	if err := SignOut(ctx, env, v[0]); err != nil {
		return "", err
	}
	return code, nil
}

func joinByInviteCode(ctx context.Context, env *scenario.Env) error {
	code, err := readInviteCode(ctx, env)
	if err != nil {
		return err
	}
	v, err := values(env, KeyMemberUsername, KeyMemberEmail, KeyMemberPassword)
	if err != nil {
		return err
	}
	username, email, password := v[0], v[1], v[2]

	err = env.Step(ctx, "open join form", func(ctx context.Context) error {
		if err := env.Wait.Navigate(ctx, env.Page, env.URL("/")); err != nil {
			return err
		}
		// The login page and the organization setup both offer a signup link
		if err := env.Click(ctx, signupLink); err != nil {
			return err
		}
		if _, err := env.Wait.Present(ctx, env.Page, browser.Name("name")); err != nil {
			return err
		}
		if err := env.Click(ctx, signupLink); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, browser.Name("inviteCode").Within(browser.Tag("form")))
	})
	if err != nil {
		return err
	}

	err = env.Step(ctx, "join organization as "+email, func(ctx context.Context) error {
		form := browser.Tag("form")
		fields := []struct {
			name, value string
		}{
			{"username", username},
			{"email", email},
			{"inviteCode", code},
			{"password", password},
			{"confirmPassword", password},
		}
		for _, f := range fields {
			if err := env.Fill(ctx, browser.Name(f.name).Within(form), f.value); err != nil {
				return err
			}
		}
		return env.Click(ctx, browser.XPath("//button[text()='Join Organization']"))
	})
	if err != nil {
		return err
	}

	return env.Step(ctx, "land on user home", func(ctx context.Context) error {
		return env.Verify.URLContains(ctx, env.Page, "/user-home")
	})
}

// invalidLoginWindow is how long the page must stay off the dashboard after a rejected login.
const invalidLoginWindow = 2 * time.Second

func loginWrongCredentials(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeyUnknownEmail, KeyWrongPassword)
	if err != nil {
		return err
	}

	err = env.Step(ctx, "submit unknown credentials", func(ctx context.Context) error {
		if err := env.Wait.Navigate(ctx, env.Page, env.URL("/")); err != nil {
			return err
		}
		if err := env.Fill(ctx, emailField, v[0]); err != nil {
			return err
		}
		if err := env.Fill(ctx, passwordField, v[1]); err != nil {
			return err
		}
		return env.Click(ctx, browser.CSS("button[type='submit']"))
	})
	if err != nil {
		return err
	}

	return env.Step(ctx, "show login error", func(ctx context.Context) error {
		if err := env.Verify.Visible(ctx, env.Page, browser.CSS("div.text-red-700")); err != nil {
			return err
		}
		return env.Verify.URLNeverContains(ctx, env.Page, "/dashboard", invalidLoginWindow)
	})
}
