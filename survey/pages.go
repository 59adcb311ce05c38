package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/modal"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/wait"
)

var (
	emailField      = browser.Name("email")
	passwordField   = browser.Name("password")
	signInButton    = browser.XPath("//button[text()='Sign In']")
	signupLink      = browser.XPath("//button[contains(text(), 'Sign up here')]")
	dashboardHeader = browser.XPath("//h1[text()='Dashboard']")

	// Dialogs of the dashboard render inside a fixed overlay.
	overlay = browser.Class("fixed")
	// Slide-up panels are used for user and team dialogs.
	slideUpPanel = browser.XPath("//div[contains(@class,'animate-slide-up')]")

	closeModalButton = browser.XPath("//button[@aria-label='Close modal']")
)

// Dashboard tabs
const (
	TabSurveys     = "Surveys"
	TabQuestions   = "Questions"
	TabSurveyBank  = "Survey Bank"
	TabRoles       = "Roles & Permissions"
	TabDepartments = "Departments"
	TabTeams       = "Teams"
	TabUsers       = "Users"
)

func tabButton(label string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//button[.//span[text()=%s]]", browser.XPathLiteral(label)))
}

// buttonWithText matches a button by its normalized text.
func buttonWithText(text string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//button[normalize-space(text())=%s]", browser.XPathLiteral(text)))
}

// Login signs in through the login form and waits for the dashboard.
func Login(ctx context.Context, env *scenario.Env, email, password string) error {
	return env.Step(ctx, "sign in as "+email, func(ctx context.Context) error {
		if err := env.Wait.Navigate(ctx, env.Page, env.URL("/")); err != nil {
			return err
		}
		if err := env.Fill(ctx, emailField, email); err != nil {
			return err
		}
		if err := env.Fill(ctx, passwordField, password); err != nil {
			return err
		}
		if err := env.Click(ctx, signInButton); err != nil {
			return err
		}
		if err := env.Verify.URLContains(ctx, env.Page, "/dashboard"); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, dashboardHeader)
	})
}

// LoginAdmin signs in with the administrator fixture.
func LoginAdmin(ctx context.Context, env *scenario.Env) error {
	v, err := values(env, KeyAdminEmail, KeyAdminPassword)
	if err != nil {
		return err
	}
	return Login(ctx, env, v[0], v[1])
}

// OpenTab switches the dashboard to a section.
func OpenTab(ctx context.Context, env *scenario.Env, label string) error {
	return env.Step(ctx, "open "+label+" tab", func(ctx context.Context) error {
		return env.Click(ctx, tabButton(label))
	})
}

// SignOut opens the avatar menu of the given account and signs out.
func SignOut(ctx context.Context, env *scenario.Env, email string) error {
	return env.Step(ctx, "sign out", func(ctx context.Context) error {
		avatar := browser.XPath(fmt.Sprintf("//button[.//p[contains(text(),%s)]]", browser.XPathLiteral(email)))
		if err := env.Click(ctx, avatar); err != nil {
			return err
		}
		return env.Click(ctx, browser.XPath("//button[.//span[text()='Sign Out']]"))
	})
}

// ParseInviteCode extracts the code from the organization card text.
func ParseInviteCode(text string) (string, error) {
	_, code, found := strings.Cut(text, "Invitation Code:")
	code = strings.TrimSpace(code)
	if !found || code == "" {
		return "", fmt.Errorf("no invitation code in %q", text)
	}
	return code, nil
}

// SurveyForm holds the values of the create survey dialog.
type SurveyForm struct {
	Title        string
	Description  string
	Type         string
	ResponseType string
	Deadline     time.Time
}

// Response types
const (
	AllInOnePage = "ALL_IN_ONE_PAGE"
	OneByOnePage = "ONE_BY_ONE_PAGE"
)

func (f SurveyForm) fill(ctx context.Context, env *scenario.Env, h *modal.Handle) error {
	if err := h.Fill(ctx, browser.Name("title"), f.Title); err != nil {
		return err
	}
	if err := h.Fill(ctx, browser.Name("description"), f.Description); err != nil {
		return err
	}
	if err := h.Select(ctx, browser.Name("type"), f.Type); err != nil {
		return err
	}
	if err := h.Select(ctx, browser.Name("responseType"), f.ResponseType); err != nil {
		return err
	}
	return FillDeadline(ctx, env, h.Within(browser.ID("deadline")), f.Deadline)
}

// FillDeadline enters a date and time. Native datetime-local inputs take the
// ISO value; segmented pickers are typed segment by segment.
func FillDeadline(ctx context.Context, env *scenario.Env, field browser.Locator, t time.Time) error {
	inputType, err := env.Wait.Attribute(ctx, env.Page, field, "type")
	if err != nil {
		return err
	}
	if inputType == "datetime-local" {
		return env.Fill(ctx, field, t.Format(DeadlineLayout))
	}
	return env.Wait.Keys(ctx, env.Page, field, DeadlineKeystrokes(t)...)
}

// DeadlineKeystrokes types day, month and year, then hour and minute, then the
// meridiem, moving between segments with the arrow key.
func DeadlineKeystrokes(t time.Time) []wait.Keystroke {
	return []wait.Keystroke{
		{Text: t.Format("02012006")},
		{Key: "ArrowRight"},
		{Text: t.Format("0304")},
		{Key: "ArrowRight"},
		{Text: t.Format("PM")},
	}
}

// CreateSurvey creates a survey from the surveys tab and waits for its row.
func CreateSurvey(ctx context.Context, env *scenario.Env, form SurveyForm) error {
	return env.Step(ctx, "create survey "+form.Title, func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "create survey", browser.XPath("//button[contains(text(), 'Create Survey')]"), overlay)
		if err != nil {
			return err
		}
		if err := form.fill(ctx, env, h); err != nil {
			return err
		}
		if err := h.Submit(ctx, browser.XPath("//button[@type='submit']")); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, surveyRow(form.Title))
	})
}

func surveyRow(title string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//tbody//tr[.//div[text()=%s]]", browser.XPathLiteral(title)))
}

// Question types
const (
	FreeText           = "FREE_TEXT"
	DatePicker         = "DATE_PICKER"
	MultipleChoiceText = "MULTIPLE_CHOICE_TEXT"
	SingleChoiceText   = "SINGLE_CHOICE_TEXT"
	YesNo              = "YES_NO"
)

// Option is an answer option of a choice question.
type Option struct {
	Text    string
	Score   int
	Correct bool
}

// QuestionForm holds the values of the question dialog.
type QuestionForm struct {
	Subject string
	Text    string
	Type    string
	Options []Option
}

// optionInput addresses the n-th input (1-based) of the i-th option row (1-based).
func optionInput(row, n int) browser.Locator {
	return browser.XPath(fmt.Sprintf("((.//div[contains(@class, 'flex space-x-4 items-center')])[%d]//input)[%d]", row, n))
}

var addOptionButton = browser.XPath(".//button[text()='Add option']")

// fillOption writes an option into the given row of an open question dialog.
func fillOption(ctx context.Context, env *scenario.Env, h *modal.Handle, row int, o Option) error {
	if err := h.Fill(ctx, optionInput(row, 1), o.Text); err != nil {
		return err
	}
	if err := h.Fill(ctx, optionInput(row, 2), fmt.Sprint(o.Score)); err != nil {
		return err
	}
	if o.Correct {
		return h.Click(ctx, optionInput(row, 3))
	}
	return nil
}

func (f QuestionForm) fill(ctx context.Context, env *scenario.Env, h *modal.Handle) error {
	if err := h.Fill(ctx, browser.Name("subject"), f.Subject); err != nil {
		return err
	}
	if err := h.Fill(ctx, browser.Name("questionText"), f.Text); err != nil {
		return err
	}
	if err := h.Select(ctx, browser.Name("questionType"), f.Type); err != nil {
		return err
	}
	for i := range f.Options {
		if err := h.Click(ctx, addOptionButton); err != nil {
			return err
		}
		// Wait for the new row before filling anything
		if _, err := env.Wait.WaitFor(ctx, env.Page, h.Within(optionInput(i+1, 1)), wait.Present, 0); err != nil {
			return err
		}
	}
	for i, o := range f.Options {
		if err := fillOption(ctx, env, h, i+1, o); err != nil {
			return fmt.Errorf("option %d: %w", i+1, err)
		}
	}
	return nil
}

var createQuestionButton = browser.XPath("//button[contains(text(), 'Create Question')]")

// CreateQuestion creates a question from the questions tab and waits for its card.
func CreateQuestion(ctx context.Context, env *scenario.Env, form QuestionForm) error {
	return env.Step(ctx, "create "+form.Type+" question", func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "create question", createQuestionButton, overlay)
		if err != nil {
			return err
		}
		if err := form.fill(ctx, env, h); err != nil {
			return err
		}
		if err := h.Submit(ctx, browser.XPath(".//button[text()='Submit']")); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, questionCard(form.Text))
	})
}

func questionCard(text string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//div[contains(@class,'p-5') and .//p[text()=%s]]", browser.XPathLiteral(text)))
}

// confirmButton matches a confirmation button inside the overlay.
func confirmButton(label string) browser.Locator {
	return browser.XPath(fmt.Sprintf("//div[contains(@class,'fixed')]//button[contains(.,%s)]", browser.XPathLiteral(label)))
}

// Confirm clicks a button of a confirmation dialog and waits for the dialog to go away.
func Confirm(ctx context.Context, env *scenario.Env, name, label string) error {
	h, err := env.Modals.Attach(ctx, env.Page, name, overlay)
	if err != nil {
		return err
	}
	return h.Submit(ctx, browser.XPath(fmt.Sprintf(".//button[contains(.,%s)]", browser.XPathLiteral(label))))
}

// Permissions checked for the automation role.
var RolePermissions = []string{
	"PERMISSION_READ",
	"ROLE_READ",
	"USER_READ",
	"SURVEY_READ",
	"OPTION_READ",
	"QUESTION_READ",
	"ORGANIZATION_READ",
	"DEPARTMENT_READ",
	"TEAM_READ",
}

// CheckPermissions ticks the permission checkboxes inside the role dialog.
// A permission the dialog does not offer is reported as a warning, or fails
// the step when strict permissions are requested.
func CheckPermissions(ctx context.Context, env *scenario.Env, h *modal.Handle, permissions []string) error {
	return env.Step(ctx, "check permissions", func(ctx context.Context) error {
		// Permissions are loaded after the dialog opens
		var timeout *wait.TimeoutError
		_, err := env.Wait.WaitFor(ctx, env.Page, h.Within(browser.XPath(".//input[@type='checkbox']")), wait.Present, 0)
		if err != nil && !errors.As(err, &timeout) {
			return err
		}

		var missing []string
		for _, perm := range permissions {
			label := h.Within(browser.XPath(fmt.Sprintf(".//label[.//input[@value=%s]]", browser.XPathLiteral(perm))))
			n, err := env.Wait.Count(env.Page, label)
			if err != nil {
				return err
			}
			if n == 0 {
				missing = append(missing, perm)
				continue
			}
			if err := env.Click(ctx, label); err != nil {
				return fmt.Errorf("permission %s: %w", perm, err)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		if env.StrictPermissions {
			return fmt.Errorf("permissions not offered: %s", strings.Join(missing, ", "))
		}
		for _, perm := range missing {
			env.Warn(ctx, "check permissions", "permission "+perm+" not offered")
		}
		return nil
	})
}
