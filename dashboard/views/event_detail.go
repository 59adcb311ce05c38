package views

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/a-h/templ"

	"github.com/networkteam/surveyprobe/collector"
)

func EventDetailContainer(evt *collector.Event) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<div id="event-details" class="p-4">`)
		if evt == nil {
			out.raw(`<p class="text-neutral-500">Select an event to see its details.</p></div>`)
			return out.err
		}
		out.render(ctx, EventDetails(evt))
		out.raw(`</div>`)
		return out.err
	})
}

func EventDetails(evt *collector.Event) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		summary := summarize(evt)

		out.raw(`<header class="flex items-center gap-2 mb-4">`)
		out.render(ctx, Badge(BadgeProps{Variant: summary.Variant}, summary.Label))
		out.raw(`<h2 class="text-lg font-semibold">`)
		out.text(summary.Title)
		out.raw(`</h2></header>`)

		out.raw(`<dl class="grid grid-cols-[max-content_1fr] gap-x-4 gap-y-1 text-sm">`)
		field(out, "Started", fmt.Sprintf("%s (%s)", evt.Start.Format(time.TimeOnly), formatDurationSince(evt.Start)))
		field(out, "Duration", formatDuration(evt.Duration()))
		if !evt.RunID.IsNil() {
			field(out, "Run", evt.RunID.String())
		}
		dataFields(out, evt.Data)
		out.raw(`</dl>`)

		if data, ok := evt.Data.(collector.ScenarioEvent); ok && data.Diff != "" {
			out.raw(`<h3 class="font-semibold mt-4">Expected vs observed</h3>`)
			out.render(ctx, highlightDiff(data.Diff))
		}
		if data, ok := evt.Data.(collector.StepEvent); ok && len(data.Warnings) > 0 {
			out.raw(`<h3 class="font-semibold mt-4">Warnings</h3><ul class="list-disc ml-6">`)
			for _, warning := range data.Warnings {
				out.raw(`<li>`)
				out.text(warning)
				out.raw(`</li>`)
			}
			out.raw(`</ul>`)
		}

		if len(evt.Children) > 0 {
			out.rawf(`<h3 class="font-semibold mt-4">Events (%d)</h3>`, len(evt.Children))
			out.raw(`<ul class="divide-y border rounded">`)
			for _, child := range evt.Children {
				out.render(ctx, EventListItem(child, nil))
			}
			out.raw(`</ul>`)
		}
		return out.err
	})
}

func field(out *writer, name, value string) {
	out.raw(`<dt class="text-neutral-500">`)
	out.text(name)
	out.raw(`</dt><dd class="font-mono break-all">`)
	out.text(value)
	out.raw(`</dd>`)
}

func dataFields(out *writer, data any) {
	switch data := data.(type) {
	case collector.ScenarioEvent:
		field(out, "Scenario", data.Name)
		field(out, "Status", string(data.Status))
		if data.ErrorKind != "" {
			field(out, "Failure", data.ErrorKind)
		}
		if data.Error != "" {
			field(out, "Error", data.Error)
		}
	case collector.StepEvent:
		field(out, "Step", data.Name)
		field(out, "Result", data.Detail)
	case collector.ClickEvent:
		field(out, "Locator", data.Locator)
		field(out, "Path", string(data.Path))
		if data.Reason != "" {
			field(out, "Reason", data.Reason)
		}
	case collector.WaitEvent:
		field(out, "Locator", data.Locator)
		field(out, "Condition", data.Condition)
		field(out, "Outcome", string(data.Outcome))
		field(out, "Waited", formatDuration(data.Elapsed))
		field(out, "Polls", fmt.Sprintf("%d", data.Polls))
	case collector.ProbeEvent:
		field(out, "Request", data.Method+" "+data.URL)
		field(out, "Status", fmt.Sprintf("%d", data.StatusCode))
		field(out, "Elapsed", formatDuration(data.Elapsed))
		if data.Error != "" {
			field(out, "Error", data.Error)
		}
	case slog.Record:
		field(out, "Level", data.Level.String())
		field(out, "Message", data.Message)
		for a := range iterSlogAttrs(data) {
			field(out, a.Key, a.Value.String())
		}
	}
}
