package survey

import (
	"context"
	"fmt"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/scenario"
)

// SurveyType used for all created surveys.
const SurveyType = "FEEDBACK"

var searchField = browser.XPath("//input[@placeholder='Search surveys by title or description...']")

func surveyRowButton(title, buttonTitle string) browser.Locator {
	return browser.XPath(fmt.Sprintf(".//button[contains(@title,%s)]", browser.XPathLiteral(buttonTitle))).Within(surveyRow(title))
}

// Titles of the lock toggle of a survey row
const (
	SurveyLockedTitle   = "Survey is locked. Click to unlock."
	SurveyUnlockedTitle = "Survey is unlocked. Click to lock."
)

// lockToggle matches the lock button of a survey row in the given state. It
// is matched by the action it offers, since the edit button of a locked
// survey is titled "Survey is locked" as well.
func lockToggle(title string, locked bool) browser.Locator {
	if locked {
		return surveyRowButton(title, "Click to unlock")
	}
	return surveyRowButton(title, "Click to lock")
}

// SetSurveyLocked locks or unlocks a survey through its row toggle, confirms
// the dialog and waits for the toggle to offer the opposite action.
func SetSurveyLocked(ctx context.Context, env *scenario.Env, title string, lock bool) error {
	name, label, want := "unlock survey", "Unlock Survey", SurveyUnlockedTitle
	if lock {
		name, label, want = "lock survey", "Lock Survey", SurveyLockedTitle
	}
	return env.Step(ctx, name, func(ctx context.Context) error {
		if err := env.Click(ctx, lockToggle(title, !lock)); err != nil {
			return err
		}
		if err := Confirm(ctx, env, name, label); err != nil {
			return err
		}
		return env.Verify.AttributeContains(ctx, env.Page, lockToggle(title, lock), "title", want)
	})
}

func surveyCreateAndSearch(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeySurveyAllInOne, KeySurveyOneByOne, KeySearchPrefix, KeySearchTerm)
	if err != nil {
		return err
	}
	due, err := deadline(env)
	if err != nil {
		return err
	}
	allInOne, oneByOne, prefix, term := v[0], v[1], v[2], v[3]

	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabSurveys); err != nil {
		return err
	}

	surveys := []struct {
		title, responseType string
	}{
		{allInOne, AllInOnePage},
		{oneByOne, OneByOnePage},
		{prefix + " 1", AllInOnePage},
		{prefix + " 2", OneByOnePage},
		{prefix + " 3", AllInOnePage},
	}
	for _, s := range surveys {
		err := CreateSurvey(ctx, env, SurveyForm{
			Title:        s.title,
			Description:  "Description pour " + s.title,
			Type:         SurveyType,
			ResponseType: s.responseType,
			Deadline:     due,
		})
		if err != nil {
			return err
		}
	}

	return env.Step(ctx, "search "+term, func(ctx context.Context) error {
		if err := env.Fill(ctx, searchField, term); err != nil {
			return err
		}
		match := prefix + " 2"
		if err := env.Verify.Visible(ctx, env.Page, surveyRow(match)); err != nil {
			return err
		}
		// Other search surveys are filtered out
		return env.Verify.Gone(ctx, env.Page, surveyRow(prefix+" 1"))
	})
}

func surveyEditLockUnlockDelete(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeySurveyFullFlow)
	if err != nil {
		return err
	}
	due, err := deadline(env)
	if err != nil {
		return err
	}
	title := v[0]
	updated := title + " - Updated"

	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabSurveys); err != nil {
		return err
	}
	err = CreateSurvey(ctx, env, SurveyForm{
		Title:        title,
		Description:  "Description full flow",
		Type:         SurveyType,
		ResponseType: AllInOnePage,
		Deadline:     due,
	})
	if err != nil {
		return err
	}

	err = env.Step(ctx, "edit survey", func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "edit survey", surveyRowButton(title, "Edit Survey"), overlay)
		if err != nil {
			return err
		}
		if err := h.Fill(ctx, browser.Name("title"), updated); err != nil {
			return err
		}
		if err := h.Fill(ctx, browser.Name("description"), "Description mise à jour full flow"); err != nil {
			return err
		}
		if err := h.Submit(ctx, browser.XPath(".//button[text()='Update Survey']")); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, surveyRow(updated))
	})
	if err != nil {
		return err
	}

	if err := SetSurveyLocked(ctx, env, updated, true); err != nil {
		return err
	}
	if err := SetSurveyLocked(ctx, env, updated, false); err != nil {
		return err
	}

	err = env.Step(ctx, "cancel delete", func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "delete survey", surveyRowButton(updated, "Delete Survey"), overlay)
		if err != nil {
			return err
		}
		if err := h.Close(ctx, browser.XPath(".//button[text()='Cancel']")); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, surveyRow(updated))
	})
	if err != nil {
		return err
	}

	return env.Step(ctx, "delete survey", func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "delete survey", surveyRowButton(updated, "Delete Survey"), overlay)
		if err != nil {
			return err
		}
		if err := h.Submit(ctx, browser.XPath(".//button[contains(text(),'Delete')]")); err != nil {
			return err
		}
		return env.Verify.Count(ctx, env.Page, surveyRow(updated), 0)
	})
}

func surveyNameRow(name string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//div[@class='text-sm font-semibold text-gray-900' and text()=%s]/ancestor::tr", browser.XPathLiteral(name)))
}

// Audience of a survey assignment.
type Audience string

const (
	AudienceDepartment Audience = "department"
	AudienceTeam       Audience = "team"
)

var assignDialog = browser.XPath("//h3[text()='Assign Survey']/ancestor::div[contains(@class,'bg-white')]")

// AssignSurvey assigns a survey from the survey bank to a department or team.
func AssignSurvey(ctx context.Context, env *scenario.Env, survey string, audience Audience, option string) error {
	return env.Step(ctx, fmt.Sprintf("assign %s to %s %s", survey, audience, option), func(ctx context.Context) error {
		trigger := browser.XPath(fmt.Sprintf("//tr[.//div[text()=%[1]s]]//button[@title='Assign Survey'] | //div[.//div[text()=%[1]s]]//button[@title='Assign Survey']",
			browser.XPathLiteral(survey)))
		h, err := env.Modals.Open(ctx, env.Page, "assign survey", trigger, assignDialog)
		if err != nil {
			return err
		}
		if err := h.Click(ctx, browser.XPath(fmt.Sprintf(".//input[@type='radio' and @value=%s]", browser.XPathLiteral(string(audience))))); err != nil {
			return err
		}
		if err := h.Select(ctx, browser.ID(string(audience)+"-select"), option); err != nil {
			return err
		}
		return h.Submit(ctx, browser.XPath(".//button[text()='Assign Survey']"))
	})
}

func surveyPublishAssign(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeySurveyAllInOne, KeySurveyOneByOne, KeyDepartmentName, KeyTeamName)
	if err != nil {
		return err
	}
	surveys := v[:2]
	department, team := v[2], v[3]

	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabSurveys); err != nil {
		return err
	}

	for _, name := range surveys {
		err := env.Step(ctx, "publish "+name, func(ctx context.Context) error {
			publish := browser.XPath(".//button[@title='Publish Survey']").Within(surveyNameRow(name))
			el, err := env.Wait.Present(ctx, env.Page, publish)
			if err != nil {
				return err
			}
			// A survey published by an earlier run keeps its button disabled
			if enabled, err := el.IsEnabled(); err == nil && !enabled {
				env.Logger.InfoContext(ctx, "Survey already published", "survey", name)
				return nil
			}
			return env.Click(ctx, publish)
		})
		if err != nil {
			return err
		}
	}
	for _, name := range surveys {
		err := env.Step(ctx, "verify "+name+" is active", func(ctx context.Context) error {
			return env.Verify.TextEquals(ctx, env.Page, browser.XPath(".//td[3]//span").Within(surveyNameRow(name)), "ACTIVE")
		})
		if err != nil {
			return err
		}
	}

	if err := OpenTab(ctx, env, TabSurveyBank); err != nil {
		return err
	}
	teamOption := fmt.Sprintf("%s (%s)", team, department)
	for _, name := range surveys {
		if err := AssignSurvey(ctx, env, name, AudienceDepartment, department); err != nil {
			return err
		}
		if err := AssignSurvey(ctx, env, name, AudienceTeam, teamOption); err != nil {
			return err
		}
	}
	return nil
}
