package survey

import (
	"context"
	"fmt"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/scenario"
)

func roleCreate(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeyRoleName, KeyRoleDescription)
	if err != nil {
		return err
	}
	name, description := v[0], v[1]

	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabRoles); err != nil {
		return err
	}

	return env.Step(ctx, "create role "+name, func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "add role", buttonWithText("Add Role"), overlay)
		if err != nil {
			return err
		}
		if err := h.Fill(ctx, browser.ID("roleName"), name); err != nil {
			return err
		}
		if err := h.Fill(ctx, browser.ID("roleDescription"), description); err != nil {
			return err
		}
		if err := CheckPermissions(ctx, env, h, RolePermissions); err != nil {
			return err
		}
		if err := h.Submit(ctx, browser.XPath(".//button[normalize-space(text())='Create Role']")); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, browser.XPath(fmt.Sprintf("//*[text()=%s]", browser.XPathLiteral(name))))
	})
}

func departmentRow(name string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//td[.//div[text()=%s]]", browser.XPathLiteral(name)))
}

// openDepartmentTeams opens the teams panel of a department from the teams tab.
func openDepartmentTeams(ctx context.Context, env *scenario.Env, department string) error {
	if err := OpenTab(ctx, env, TabTeams); err != nil {
		return err
	}
	viewTeams := browser.XPath("./following-sibling::td//button[@title='View Teams']").Within(departmentRow(department))
	if err := env.Click(ctx, viewTeams); err != nil {
		return err
	}
	return env.Verify.Visible(ctx, env.Page, slideUpPanel)
}

func departmentTeamCreate(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeyDepartmentName, KeyTeamName)
	if err != nil {
		return err
	}
	department, team := v[0], v[1]

	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabDepartments); err != nil {
		return err
	}

	err = env.Step(ctx, "create department "+department, func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "create department", buttonWithText("Create Department"), overlay)
		if err != nil {
			return err
		}
		if err := h.Fill(ctx, browser.ID("name"), department); err != nil {
			return err
		}
		if err := h.Submit(ctx, browser.CSS("div.bg-white form button[type='submit']")); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, browser.XPath(fmt.Sprintf("//td//div[contains(text(), %s)]", browser.XPathLiteral(department))))
	})
	if err != nil {
		return err
	}

	return env.Step(ctx, "create team "+team, func(ctx context.Context) error {
		if err := openDepartmentTeams(ctx, env, department); err != nil {
			return err
		}
		if err := env.Click(ctx, browser.XPath(".//button[.//text()[contains(., 'Add Team')]]").Within(slideUpPanel)); err != nil {
			return err
		}
		form := browser.XPath("//form[.//input[@placeholder='Team name']]")
		if err := env.Fill(ctx, browser.XPath(".//input[@placeholder='Team name']").Within(form), team); err != nil {
			return err
		}
		if err := env.Click(ctx, browser.XPath(".//button[normalize-space(text())='Add']").Within(form)); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, browser.XPath(fmt.Sprintf("//div[text()=%s]", browser.XPathLiteral(team))))
	})
}

func userRow(username string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//tbody//tr[.//div[contains(normalize-space(text()), %s)]]", browser.XPathLiteral(username)))
}

func userCreateAssignRole(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeyUserName, KeyUserEmail, KeyUserPassword, KeyRoleName)
	if err != nil {
		return err
	}
	username, email, password, role := v[0], v[1], v[2], v[3]

	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabUsers); err != nil {
		return err
	}

	err = env.Step(ctx, "create user "+username, func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "add user", buttonWithText("Add User"), slideUpPanel)
		if err != nil {
			return err
		}
		fields := []struct {
			id, value string
		}{
			{"username", username},
			{"email", email},
			{"password", password},
		}
		for _, f := range fields {
			if err := h.Fill(ctx, browser.ID(f.id), f.value); err != nil {
				return err
			}
		}
		if err := h.Submit(ctx, browser.XPath(".//button[normalize-space(text())='Add User']")); err != nil {
			return err
		}
		row := browser.XPath(fmt.Sprintf("//tbody//tr[.//div[contains(normalize-space(text()), %s)] and .//div[contains(normalize-space(text()), %s)]]",
			browser.XPathLiteral(username), browser.XPathLiteral(email)))
		return env.Verify.Visible(ctx, env.Page, row)
	})
	if err != nil {
		return err
	}

	return env.Step(ctx, "assign role "+role, func(ctx context.Context) error {
		usernameCell := browser.XPath(fmt.Sprintf(".//div[contains(normalize-space(text()), %s)]", browser.XPathLiteral(username))).Within(userRow(username))
		h, err := env.Modals.Open(ctx, env.Page, "edit user roles", usernameCell, slideUpPanel)
		if err != nil {
			return err
		}
		if err := h.Click(ctx, browser.XPath(fmt.Sprintf(".//label[.//span[text()=%s]]//input[@type='checkbox']", browser.XPathLiteral(role)))); err != nil {
			return err
		}
		if err := h.Submit(ctx, browser.XPath(".//button[normalize-space(text())='Save Changes']")); err != nil {
			return err
		}
		assigned := browser.XPath(fmt.Sprintf(".//td[3]//span[text()=%s]", browser.XPathLiteral(role))).Within(userRow(username))
		return env.Verify.Visible(ctx, env.Page, assigned)
	})
}

// assignUser clicks the assign button of username in a list of user cards.
func assignUser(ctx context.Context, env *scenario.Env, list browser.Locator, username string) error {
	card := browser.XPath(fmt.Sprintf(".//div[contains(@class,'justify-between')][.//div[@class='font-medium text-gray-900' and normalize-space(text())=%s]]",
		browser.XPathLiteral(username))).Within(list)
	return env.Click(ctx, browser.XPath(".//button[text()='Assign']").Within(card))
}

func userAssignDepartmentTeam(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeyUserName, KeyDepartmentName, KeyTeamName)
	if err != nil {
		return err
	}
	username, department, team := v[0], v[1], v[2]

	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabDepartments); err != nil {
		return err
	}

	err = env.Step(ctx, "assign "+username+" to department", func(ctx context.Context) error {
		manage := browser.XPath(fmt.Sprintf("//div[.//div[text()=%s]]//button[@title='Manage Users']", browser.XPathLiteral(department)))
		h, err := env.Modals.Open(ctx, env.Page, "manage department users", manage, innermostOverlay(".//h3[text()='Manage Department Users']"))
		if err != nil {
			return err
		}
		available := browser.XPath("//h4[contains(text(),'Available Users')]/following-sibling::div")
		if err := assignUser(ctx, env, available, username); err != nil {
			return err
		}
		assigned := browser.XPath(fmt.Sprintf("//div[h4[contains(text(),'Assigned Users')]]//div[.//div[text()=%s]]", browser.XPathLiteral(username)))
		if err := env.Verify.Visible(ctx, env.Page, assigned); err != nil {
			return err
		}
		return h.Close(ctx, browser.XPath("//button[text()='Close']"))
	})
	if err != nil {
		return err
	}

	return env.Step(ctx, "assign "+username+" to team", func(ctx context.Context) error {
		if err := openDepartmentTeams(ctx, env, department); err != nil {
			return err
		}
		teamCard := browser.XPath(fmt.Sprintf(".//div[.//div[text()=%s]]", browser.XPathLiteral(team))).Within(slideUpPanel)
		if err := env.Click(ctx, browser.XPath(".//button[text()='Users']").Within(teamCard)); err != nil {
			return err
		}
		return assignUser(ctx, env, browser.XPath("//div[contains(@class,'bg-gray-50')]"), username)
	})
}
