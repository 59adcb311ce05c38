//go:build acceptance
// +build acceptance

package acceptance

import (
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

// DashboardPage provides helper methods for interacting with the run dashboard.
// It implements the Page Object pattern for cleaner test code.
type DashboardPage struct {
	Page         playwright.Page
	DashboardURL string
	t            *testing.T
}

// NewDashboardPage navigates to the dashboard and waits for the event list.
func NewDashboardPage(t *testing.T, ctx playwright.BrowserContext, dashboardURL string) *DashboardPage {
	t.Helper()

	page, err := ctx.NewPage()
	require.NoError(t, err)

	_, err = page.Goto(dashboardURL)
	require.NoError(t, err)

	err = page.Locator("#event-list").WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(5000),
	})
	require.NoError(t, err, "event list not rendered")

	return &DashboardPage{
		Page:         page,
		DashboardURL: dashboardURL,
		t:            t,
	}
}

// ScenarioItem locates the list entry of a scenario by its order and name.
func (dp *DashboardPage) ScenarioItem(order int, name string) playwright.Locator {
	return dp.Page.Locator(fmt.Sprintf("#event-list > li:has-text('%d. %s')", order, name))
}

// GetEventCount returns the number of top-level events in the list.
func (dp *DashboardPage) GetEventCount() int {
	dp.t.Helper()
	count, err := dp.Page.Locator("#event-list > li").Count()
	require.NoError(dp.t, err)
	return count
}

// ScenarioStatus returns the badge text of a scenario entry.
func (dp *DashboardPage) ScenarioStatus(order int, name string) string {
	dp.t.Helper()
	text, err := dp.ScenarioItem(order, name).Locator("span").First().TextContent()
	require.NoError(dp.t, err)
	return text
}

// SelectScenario opens the details of a scenario.
func (dp *DashboardPage) SelectScenario(order int, name string) {
	dp.t.Helper()

	err := dp.ScenarioItem(order, name).Locator("a").Click()
	require.NoError(dp.t, err, "failed to click scenario %s", name)

	dp.WaitForEventDetails(5000)
}

// WaitForEventDetails waits until an event's details are shown.
func (dp *DashboardPage) WaitForEventDetails(timeout float64) {
	dp.t.Helper()
	err := dp.Page.Locator("#event-details header").WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeout),
	})
	require.NoError(dp.t, err, "event details not shown")
}

// GetEventDetailsText returns the text of the details pane.
func (dp *DashboardPage) GetEventDetailsText() string {
	dp.t.Helper()
	text, err := dp.Page.Locator("#event-details").TextContent()
	require.NoError(dp.t, err)
	return text
}

// Reload reloads the dashboard and waits for the event list.
func (dp *DashboardPage) Reload() {
	dp.t.Helper()

	_, err := dp.Page.Reload()
	require.NoError(dp.t, err, "failed to reload page")

	err = dp.Page.Locator("#event-list").WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(5000),
	})
	require.NoError(dp.t, err)
}

// ExpectDuring repeatedly checks that the assertion function returns true
// for the whole duration.
func (dp *DashboardPage) ExpectDuring(assertion func() bool, interval time.Duration, duration time.Duration, msgAndArgs ...interface{}) {
	dp.t.Helper()

	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if !assertion() {
			require.Fail(dp.t, "assertion failed during observation period", msgAndArgs...)
		}
		time.Sleep(interval)
	}
}
