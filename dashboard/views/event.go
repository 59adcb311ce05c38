package views

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/networkteam/surveyprobe/collector"
)

// eventSummary is the list representation of an event.
type eventSummary struct {
	Title   string
	Label   string
	Variant BadgeVariant
}

func summarize(evt *collector.Event) eventSummary {
	switch data := evt.Data.(type) {
	case collector.ScenarioEvent:
		return eventSummary{
			Title:   fmt.Sprintf("%d. %s", data.Order, data.Name),
			Label:   string(data.Status),
			Variant: statusVariant(data.Status),
		}
	case collector.StepEvent:
		s := eventSummary{Title: data.Name, Label: "step", Variant: BadgeVariantOutline}
		if len(data.Warnings) > 0 {
			s.Label = "warning"
			s.Variant = BadgeVariantWarning
		}
		return s
	case collector.ClickEvent:
		s := eventSummary{Title: data.Locator, Label: "click " + string(data.Path), Variant: BadgeVariantSecondary}
		switch data.Path {
		case collector.ClickFallback:
			s.Variant = BadgeVariantWarning
		case collector.ClickFailed:
			s.Variant = BadgeVariantError
		}
		return s
	case collector.WaitEvent:
		s := eventSummary{Title: data.Condition + " " + data.Locator, Label: "wait", Variant: BadgeVariantOutline}
		if data.Outcome != collector.WaitSatisfied {
			s.Label = "wait " + string(data.Outcome)
			s.Variant = BadgeVariantError
		}
		return s
	case collector.ProbeEvent:
		s := eventSummary{Title: data.Method + " " + data.URL, Label: fmt.Sprintf("%d", data.StatusCode), Variant: BadgeVariantSuccess}
		if data.Error != "" || data.StatusCode >= http.StatusInternalServerError {
			s.Variant = BadgeVariantError
		}
		if data.Error != "" {
			s.Label = "error"
		}
		return s
	case slog.Record:
		return eventSummary{Title: data.Message, Label: data.Level.String(), Variant: levelVariant(data.Level)}
	default:
		return eventSummary{Title: fmt.Sprintf("%T", evt.Data), Label: "event", Variant: BadgeVariantOutline}
	}
}

func statusVariant(status collector.ScenarioStatus) BadgeVariant {
	switch status {
	case collector.ScenarioPassed:
		return BadgeVariantSuccess
	case collector.ScenarioFailed:
		return BadgeVariantError
	default:
		return BadgeVariantSecondary
	}
}
