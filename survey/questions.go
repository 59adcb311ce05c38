package survey

import (
	"context"
	"fmt"
	"strings"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/modal"
	"github.com/networkteam/surveyprobe/scenario"
	"github.com/networkteam/surveyprobe/wait"
)

// QuestionVariants is one question of every supported type.
var QuestionVariants = []QuestionForm{
	{Subject: "Sujet Free Text", Text: "Quelle est votre opinion ?", Type: FreeText},
	{Subject: "Sujet Date Picker", Text: "Choisissez une date", Type: DatePicker},
	{Subject: "Sujet Multiple Choice", Text: "Quelle couleur préférez-vous ?", Type: MultipleChoiceText, Options: []Option{
		{Text: "Rouge", Score: 2, Correct: true},
		{Text: "Bleu", Score: 2, Correct: true},
		{Text: "Vert", Score: 0},
	}},
	{Subject: "Sujet Single Choice", Text: "Quel est votre fruit préféré ?", Type: SingleChoiceText, Options: []Option{
		{Text: "Pomme", Score: 2, Correct: true},
		{Text: "Banane", Score: 0},
		{Text: "Orange", Score: 0},
	}},
	{Subject: "Sujet Yes/No", Text: "Aimez-vous le café ?", Type: YesNo, Options: []Option{
		{Text: "Yes", Score: 1, Correct: true},
		{Text: "No", Score: 0},
	}},
}

func questionCreateVariants(ctx context.Context, env *scenario.Env) error {
	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabQuestions); err != nil {
		return err
	}
	for _, q := range QuestionVariants {
		if err := CreateQuestion(ctx, env, q); err != nil {
			return err
		}
	}
	return nil
}

func questionCardButton(text, title string) browser.Locator {
	return browser.XPath(fmt.Sprintf(".//button[@title=%s]", browser.XPathLiteral(title))).Within(questionCard(text))
}

func questionEditLockUnlockDelete(ctx context.Context, env *scenario.Env) error {
	const updatedText = "updated?"
	original := QuestionForm{
		Subject: "Sujet Multiple Choice a modifier",
		Text:    "Quelle couleur préférez-vous ?",
		Type:    MultipleChoiceText,
		Options: []Option{
			{Text: "Rouge", Score: 2, Correct: true},
			{Text: "Bleu", Score: 2, Correct: true},
			{Text: "Vert", Score: 0},
		},
	}

	if err := LoginAdmin(ctx, env); err != nil {
		return err
	}
	if err := OpenTab(ctx, env, TabQuestions); err != nil {
		return err
	}
	if err := CreateQuestion(ctx, env, original); err != nil {
		return err
	}

	err := env.Step(ctx, "edit question", func(ctx context.Context) error {
		h, err := env.Modals.Open(ctx, env.Page, "edit question", questionCardButton(original.Text, "Edit Question"), overlay)
		if err != nil {
			return err
		}
		if err := h.Fill(ctx, browser.Name("questionText"), updatedText); err != nil {
			return err
		}
		// Drop the third option and add a new correct one in its place
		if err := h.Click(ctx, browser.XPath("(.//button[@title='Delete'])[3]")); err != nil {
			return err
		}
		if _, err := env.Wait.WaitFor(ctx, env.Page, h.Within(optionInput(3, 1)), wait.Invisible, 0); err != nil {
			return err
		}
		if err := h.Click(ctx, addOptionButton); err != nil {
			return err
		}
		if _, err := env.Wait.WaitFor(ctx, env.Page, h.Within(optionInput(3, 1)), wait.Present, 0); err != nil {
			return err
		}
		if err := fillOption(ctx, env, h, 3, Option{Text: "Jaune", Score: 3, Correct: true}); err != nil {
			return err
		}
		if err := h.Submit(ctx, browser.XPath(".//button[text()='Save']")); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, questionCard(updatedText))
	})
	if err != nil {
		return err
	}

	err = env.Step(ctx, "lock question", func(ctx context.Context) error {
		if err := env.Click(ctx, questionCardButton(updatedText, "Lock Question")); err != nil {
			return err
		}
		if err := Confirm(ctx, env, "lock question", "Lock Question"); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, questionCardButton(updatedText, "Unlock Question"))
	})
	if err != nil {
		return err
	}

	err = env.Step(ctx, "unlock question", func(ctx context.Context) error {
		if err := env.Click(ctx, questionCardButton(updatedText, "Unlock Question")); err != nil {
			return err
		}
		if err := Confirm(ctx, env, "unlock question", "Unlock Question"); err != nil {
			return err
		}
		return env.Verify.Visible(ctx, env.Page, questionCardButton(updatedText, "Lock Question"))
	})
	if err != nil {
		return err
	}

	return env.Step(ctx, "delete question", func(ctx context.Context) error {
		if err := env.Click(ctx, questionCardButton(updatedText, "Delete Question")); err != nil {
			return err
		}
		if err := Confirm(ctx, env, "delete question", "Delete Question"); err != nil {
			return err
		}
		return env.Verify.Gone(ctx, env.Page, questionCard(updatedText))
	})
}

var (
	surveyQuestionText = browser.XPath("//p[starts-with(text(),'Question :')]")
	addToSurveyButton  = ".//button[contains(text(),'Add to Survey')]"
)

// innermostOverlay matches the last overlay containing an element matching
// the relative XPath, which is the topmost of stacked dialogs.
func innermostOverlay(contains string) browser.Locator {
	return browser.XPath(fmt.Sprintf("(//div[contains(@class,'fixed')][%s])[last()]", contains))
}

// openSurveyDetails opens the detail dialog of a survey from the surveys tab.
func openSurveyDetails(ctx context.Context, env *scenario.Env, title string) (*modal.Handle, error) {
	row := browser.XPath(fmt.Sprintf("//td[.//div[text()=%s]]//ancestor::tr", browser.XPathLiteral(title)))
	return env.Modals.Open(ctx, env.Page, "survey details", browser.XPath(".//button[@title='View Survey']").Within(row), overlay)
}

// AddExistingQuestions adds every offered question to the survey whose details are open.
// It returns the number of questions added.
func AddExistingQuestions(ctx context.Context, env *scenario.Env, details *modal.Handle) (int, error) {
	var added int
	err := env.Step(ctx, "add existing questions", func(ctx context.Context) error {
		if err := details.Click(ctx, browser.XPath(".//button[contains(text(),'Add Existing Questions')]")); err != nil {
			return err
		}
		picker, err := env.Modals.Attach(ctx, env.Page, "question picker", innermostOverlay(".//button[contains(text(),'Add to Survey')]"))
		if err != nil {
			return err
		}
		n, err := env.Wait.Count(env.Page, picker.Within(browser.XPath(addToSurveyButton)))
		if err != nil {
			return err
		}
		// From the last to the first so that indices stay valid if added questions leave the list
		for i := n; i >= 1; i-- {
			button := browser.XPath(fmt.Sprintf("(%s)[%d]", addToSurveyButton, i))
			if err := picker.Click(ctx, button); err != nil {
				return fmt.Errorf("adding question %d: %w", i, err)
			}
			added++
		}
		return picker.Close(ctx, closeModalButton)
	})
	return added, err
}

// SurveyQuestions returns the question texts listed in the open survey details.
func SurveyQuestions(ctx context.Context, env *scenario.Env) ([]string, error) {
	elements, err := surveyQuestionText.Resolve(env.Page)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		text, err := el.Text()
		if err != nil {
			return nil, err
		}
		texts = append(texts, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "Question :")))
	}
	return texts, nil
}

func attachQuestions(ctx context.Context, env *scenario.Env, key scenario.Key) (*modal.Handle, error) {
	v, err := values(env, key)
	if err != nil {
		return nil, err
	}
	if err := LoginAdmin(ctx, env); err != nil {
		return nil, err
	}
	if err := OpenTab(ctx, env, TabSurveys); err != nil {
		return nil, err
	}

	details, err := openSurveyDetails(ctx, env, v[0])
	if err != nil {
		return nil, err
	}
	added, err := AddExistingQuestions(ctx, env, details)
	if err != nil {
		return nil, err
	}
	env.Logger.InfoContext(ctx, "Added questions to survey", "survey", v[0], "count", added)

	err = env.Step(ctx, "list survey questions", func(ctx context.Context) error {
		return env.Verify.Eventually(ctx, 0, "questions of "+v[0], "at least one question", func(ctx context.Context) (string, bool, error) {
			texts, err := SurveyQuestions(ctx, env)
			if err != nil {
				return "", false, err
			}
			return strings.Join(texts, "\n"), len(texts) > 0, nil
		})
	})
	return details, err
}

func surveyAttachQuestionsAllInOne(ctx context.Context, env *scenario.Env) error {
	const createdText = "is it created ?"

	details, err := attachQuestions(ctx, env, KeySurveyAllInOne)
	if err != nil {
		return err
	}

	err = env.Step(ctx, "create question from survey", func(ctx context.Context) error {
		if err := details.Click(ctx, browser.XPath("//button[normalize-space(text())='Create New Question']")); err != nil {
			return err
		}
		h, err := env.Modals.Attach(ctx, env.Page, "new survey question", innermostOverlay(".//*[@name='questionText']"))
		if err != nil {
			return err
		}
		if err := h.Fill(ctx, browser.Name("subject"), "test create question and add it to a survey "); err != nil {
			return err
		}
		if err := h.Fill(ctx, browser.Name("questionText"), createdText); err != nil {
			return err
		}
		if err := h.Select(ctx, browser.Name("questionType"), FreeText); err != nil {
			return err
		}
		if err := h.Click(ctx, browser.XPath(".//button[@type='submit']")); err != nil {
			return err
		}
		// Depending on the application version the dialog closes itself after submit
		return env.Modals.CloseAndAwaitDetached(ctx, h, func(ctx context.Context) error {
			n, err := env.Wait.Count(env.Page, h.Within(closeModalButton))
			if err != nil || n == 0 {
				return err
			}
			return env.Click(ctx, h.Within(closeModalButton))
		})
	})
	if err != nil {
		return err
	}

	createdQuestion := browser.XPath(fmt.Sprintf("//p[starts-with(text(),'Question :') and contains(., %s)]", browser.XPathLiteral(createdText)))
	return env.Step(ctx, "remove created question", func(ctx context.Context) error {
		if err := env.Verify.Visible(ctx, env.Page, createdQuestion); err != nil {
			return err
		}
		trash := browser.XPath("./parent::div//button[@title='Remove question']").Within(createdQuestion)
		if err := env.Click(ctx, trash); err != nil {
			return err
		}
		confirm, err := env.Modals.Attach(ctx, env.Page, "remove question",
			browser.XPath("//div[contains(@class,'fixed')]//h3[text()='Remove Question from Survey']/ancestor::div[contains(@class,'bg-white')]"))
		if err != nil {
			return err
		}
		if err := confirm.Submit(ctx, browser.XPath(".//button[contains(@class, 'bg-gradient-to-r') and contains(., 'Delete Question')]")); err != nil {
			return err
		}
		return env.Verify.Count(ctx, env.Page, createdQuestion, 0)
	})
}

func surveyAttachQuestionsOneByOne(ctx context.Context, env *scenario.Env) error {
	_, err := attachQuestions(ctx, env, KeySurveyOneByOne)
	return err
}
