package wait

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/networkteam/surveyprobe/browser"
)

// Condition is a named predicate over the current match set of a locator.
// Match returns the elements satisfying the condition.
type Condition struct {
	Name  string
	Match func(elements []browser.Element) ([]browser.Element, bool)
}

// Present is satisfied by at least one attached element.
var Present = Condition{
	Name: "present",
	Match: func(elements []browser.Element) ([]browser.Element, bool) {
		return elements, len(elements) > 0
	},
}

// Visible is satisfied by at least one visible element.
var Visible = Condition{
	Name: "visible",
	Match: func(elements []browser.Element) ([]browser.Element, bool) {
		visible := lo.Filter(elements, isVisible)
		return visible, len(visible) > 0
	},
}

// Clickable is satisfied by a visible and enabled element. Obstruction by
// overlays is only detectable when clicking.
var Clickable = Condition{
	Name: "clickable",
	Match: func(elements []browser.Element) ([]browser.Element, bool) {
		clickable := lo.Filter(elements, func(el browser.Element, i int) bool {
			if !isVisible(el, i) {
				return false
			}
			enabled, err := el.IsEnabled()
			return err == nil && enabled
		})
		return clickable, len(clickable) > 0
	},
}

// Invisible is satisfied when no matching element is visible, including when
// the element was removed from the DOM.
var Invisible = Condition{
	Name: "invisible",
	Match: func(elements []browser.Element) ([]browser.Element, bool) {
		return nil, len(lo.Filter(elements, isVisible)) == 0
	},
}

// Detached is satisfied once nothing matches anymore. An element that is only
// hidden is still attached and keeps the condition unsatisfied.
var Detached = Condition{
	Name: "detached",
	Match: func(elements []browser.Element) ([]browser.Element, bool) {
		return nil, len(elements) == 0
	},
}

// AllPresent is satisfied when at least n elements match.
func AllPresent(n int) Condition {
	return Condition{
		Name: fmt.Sprintf("at least %d present", n),
		Match: func(elements []browser.Element) ([]browser.Element, bool) {
			return elements, len(elements) >= n
		},
	}
}

// Func builds a custom condition from a predicate over the match set.
func Func(name string, fn func(elements []browser.Element) bool) Condition {
	return Condition{
		Name: name,
		Match: func(elements []browser.Element) ([]browser.Element, bool) {
			return elements, fn(elements)
		},
	}
}

func isVisible(el browser.Element, _ int) bool {
	visible, err := el.IsVisible()
	return err == nil && visible
}
