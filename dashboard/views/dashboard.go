package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/networkteam/surveyprobe/collector"
)

type DashboardProps struct {
	SelectedEvent *collector.Event
	Events        []*collector.Event
	TruncateAfter uint64
	Summary       RunSummary
}

// RunSummary counts finished scenarios by status.
type RunSummary struct {
	Passed  int
	Failed  int
	Skipped int
}

func Dashboard(props DashboardProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out := &writer{w: w}
		out.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		out.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		out.raw(`<title>surveyprobe</title>`)
		out.raw(`<script src="https://cdn.tailwindcss.com"></script>`)
		out.raw(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		out.raw(`<script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"></script>`)
		out.render(ctx, chromaStyles())
		out.raw(`</head><body class="h-screen flex flex-col font-sans">`)

		out.raw(`<header class="flex items-center gap-3 border-b px-4 py-2"><h1 class="font-semibold">surveyprobe</h1>`)
		out.render(ctx, Badge(BadgeProps{Variant: BadgeVariantSuccess}, strconv.Itoa(props.Summary.Passed)+" passed"))
		out.render(ctx, Badge(BadgeProps{Variant: BadgeVariantError}, strconv.Itoa(props.Summary.Failed)+" failed"))
		out.render(ctx, Badge(BadgeProps{Variant: BadgeVariantSecondary}, strconv.Itoa(props.Summary.Skipped)+" skipped"))
		out.render(ctx, LinkButton(ButtonProps{Variant: ButtonVariantOutline, Size: ButtonSizeSm, Class: "ml-auto"}, prefixed(ctx, "/"), "Reload"))
		out.raw(`</header>`)

		out.raw(`<main class="flex flex-1 overflow-hidden"><section class="w-1/2 overflow-y-auto border-r">`)
		listProps := EventListProps{Events: props.Events, TruncateAfter: props.TruncateAfter}
		if props.SelectedEvent != nil {
			listProps.SelectedEventID = &props.SelectedEvent.ID
		}
		out.render(ctx, EventList(listProps))
		out.raw(`</section><section class="w-1/2 overflow-y-auto">`)
		out.render(ctx, EventDetailContainer(props.SelectedEvent))
		out.raw(`</section></main></body></html>`)
		return out.err
	})
}
