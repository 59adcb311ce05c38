package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/gofrs/uuid"

	"github.com/networkteam/surveyprobe/collector"
)

type EventListProps struct {
	Events          []*collector.Event
	SelectedEventID *uuid.UUID
	TruncateAfter   uint64
}

func EventList(props EventListProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.rawf(`<ul id="event-list" class="divide-y" hx-ext="sse" sse-connect="%s" sse-swap="new-event" hx-swap="afterbegin">`,
			attr(prefixed(ctx, "/events-sse")))
		for _, evt := range props.Events {
			out.render(ctx, EventListItem(evt, props.SelectedEventID))
		}
		out.raw(`</ul>`)
		if props.TruncateAfter > 0 && uint64(len(props.Events)) >= props.TruncateAfter {
			out.rawf(`<p class="text-xs text-neutral-500 p-2">Showing the latest %d events</p>`, props.TruncateAfter)
		}
		return out.err
	})
}

func EventListItem(evt *collector.Event, selectedEventID *uuid.UUID) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		summary := summarize(evt)

		class := "event-item px-3 py-2 hover:bg-neutral-100"
		if selectedEventID != nil && *selectedEventID == evt.ID {
			class += " bg-neutral-200"
		}
		out.rawf(`<li class="%s" data-event-id="%s">`, class, evt.ID)
		out.rawf(`<a class="flex items-center gap-2" href="%s" hx-get="%s" hx-target="#event-details" hx-push-url="%s">`,
			attr(selectURL(ctx, evt.ID)), attr(eventURL(ctx, evt.ID)), attr(selectURL(ctx, evt.ID)))
		out.render(ctx, Badge(BadgeProps{Variant: summary.Variant}, summary.Label))
		out.raw(`<span class="truncate">`)
		out.text(summary.Title)
		out.raw(`</span>`)
		out.rawf(`<span class="ml-auto text-xs text-neutral-500">%s</span>`, formatDuration(evt.Duration()))
		out.raw(`</a></li>`)
		return out.err
	})
}
