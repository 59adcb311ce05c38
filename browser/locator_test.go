package browser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/browser/browsertest"
)

func TestLocator_Selector(t *testing.T) {
	tests := []struct {
		name    string
		locator browser.Locator
		want    string
	}{
		{"css", browser.CSS("div.bg-red-100"), "css=div.bg-red-100"},
		{"xpath", browser.XPath("//h1[text()='Dashboard']"), "xpath=//h1[text()='Dashboard']"},
		{"name", browser.Name("confirmPassword"), `css=[name="confirmPassword"]`},
		{"id", browser.ID("roleName"), `css=[id="roleName"]`},
		{"class with several names", browser.Class("flex space-x-4"), "css=.flex.space-x-4"},
		{"tag", browser.Tag("tbody"), "css=tbody"},
		{"text", browser.Text("Sign Up"), `text="Sign Up"`},
		{"scoped absolute xpath becomes relative", browser.XPath("//button").Within(browser.CSS(".fixed")), "xpath=.//button"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.locator.Selector())
		})
	}
}

func TestLocator_StringIncludesScope(t *testing.T) {
	loc := browser.Name("title").Within(browser.CSS(".fixed"))

	assert.True(t, loc.Scoped())
	assert.Equal(t, `css=.fixed >> css=[name="title"]`, loc.String())
}

func TestLocator_Resolve_ScopedQueriesFirstParentMatch(t *testing.T) {
	page := browsertest.NewPage()
	field := browsertest.NewElement("")
	modal := browsertest.NewElement("").WithChild(`css=[name="title"]`, field)
	page.Set("css=.fixed", modal, browsertest.NewElement(""))

	loc := browser.Name("title").Within(browser.CSS(".fixed"))
	elements, err := loc.Resolve(page)

	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Same(t, field, elements[0])
}

func TestLocator_Resolve_ScopedWithoutParentIsEmpty(t *testing.T) {
	page := browsertest.NewPage()

	elements, err := browser.Name("title").Within(browser.CSS(".fixed")).Resolve(page)

	require.NoError(t, err)
	assert.Empty(t, elements)
}

func TestLocator_Resolve_RequeriesEveryTime(t *testing.T) {
	page := browsertest.NewPage()
	page.Set("css=.row", browsertest.NewElement("first"))
	loc := browser.CSS(".row")

	_, err := loc.Resolve(page)
	require.NoError(t, err)
	page.Set("css=.row", browsertest.NewElement("a"), browsertest.NewElement("b"))
	elements, err := loc.Resolve(page)
	require.NoError(t, err)

	assert.Len(t, elements, 2)
	assert.Equal(t, 2, page.Queries("css=.row"))
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'Dashboard'", browser.XPathLiteral("Dashboard"))
	assert.Equal(t, `"An organization with the name 'HORIZON' already exists."`,
		browser.XPathLiteral("An organization with the name 'HORIZON' already exists."))
	assert.Equal(t, `concat('say "hi" it', "'", 's')`, browser.XPathLiteral(`say "hi" it's`))
}
