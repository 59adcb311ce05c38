package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofrs/uuid"

	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/dashboard/views"
)

// Handler serves a live view of the events collected during harness runs.
type Handler struct {
	storage collector.EventStorage
	options handlerOptions

	mux http.Handler

	// closed is canceled on Close to end open SSE streams.
	closed context.Context
	close  context.CancelFunc
}

func NewHandler(storage collector.EventStorage, opts ...HandlerOption) *Handler {
	options := handlerOptions{
		TruncateAfter: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	mux := http.NewServeMux()
	closed, cancel := context.WithCancel(context.Background())
	handler := &Handler{
		storage: storage,
		options: options,

		mux: setHandlerOptions(options, mux),

		closed: closed,
		close:  cancel,
	}

	mux.HandleFunc("/", handler.root)
	mux.HandleFunc("/event-list", handler.getEventList)
	mux.HandleFunc("/event/{eventId}", handler.getEventDetails)
	mux.HandleFunc("/events-sse", handler.getEventsSSE)

	return handler
}

func setHandlerOptions(options handlerOptions, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = views.WithHandlerOptions(ctx, views.HandlerOptions{
			PathPrefix: options.PathPrefix,
		})
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Close ends all open event streams.
func (h *Handler) Close() {
	h.close()
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	idStr := r.URL.Query().Get("id")
	var selectedEvent *collector.Event
	if idStr != "" {
		eventID, err := uuid.FromString(idStr)
		if err != nil {
			http.Error(w, "Invalid event id", http.StatusBadRequest)
			return
		}
		event, exists := h.findEvent(eventID)
		if !exists {
			http.Redirect(w, r, fmt.Sprintf("%s/", h.options.PathPrefix), http.StatusTemporaryRedirect)
			return
		}
		selectedEvent = event
	}

	recentEvents := h.loadRecentEvents()

	templ.Handler(views.Dashboard(views.DashboardProps{
		SelectedEvent: selectedEvent,
		Events:        recentEvents,
		TruncateAfter: h.options.TruncateAfter,
		Summary:       summarize(recentEvents),
	})).ServeHTTP(w, r)
}

func (h *Handler) getEventList(w http.ResponseWriter, r *http.Request) {
	recentEvents := h.loadRecentEvents()

	selectedStr := r.URL.Query().Get("selected")
	var selectedEventID *uuid.UUID
	if selectedStr != "" {
		eventID, err := uuid.FromString(selectedStr)
		if err == nil {
			selectedEventID = &eventID
		}
	}

	templ.Handler(views.EventList(views.EventListProps{
		Events:          recentEvents,
		SelectedEventID: selectedEventID,
		TruncateAfter:   h.options.TruncateAfter,
	})).ServeHTTP(w, r)
}

func (h *Handler) getEventDetails(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("eventId")
	eventID, err := uuid.FromString(idStr)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}

	event, exists := h.findEvent(eventID)
	if !exists {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	templ.Handler(views.EventDetailContainer(event)).ServeHTTP(w, r)
}

// getEventsSSE streams finished top-level events (scenarios, probes, logs outside scenarios)
func (h *Handler) getEventsSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // For NGINX proxy

	// Ends on client disconnect or handler close
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.closed, cancel)
	defer stop()

	eventCh := h.storage.Subscribe(ctx)

	fmt.Fprintf(w, "event: keepalive\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}

			var buf bytes.Buffer
			if err := views.EventListItem(event, nil).Render(ctx, &buf); err != nil {
				return
			}

			// A data field ends at the first newline
			fmt.Fprintf(w, "event: new-event\n")
			fmt.Fprintf(w, "data: %s\n\n", strings.ReplaceAll(buf.String(), "\n", " "))

			flusher.Flush()
		}
	}
}

func (h *Handler) loadRecentEvents() []*collector.Event {
	recentEvents := h.storage.GetEvents(h.options.TruncateAfter)
	slices.Reverse(recentEvents)
	return recentEvents
}

// findEvent looks up top-level events and their descendants.
func (h *Handler) findEvent(id uuid.UUID) (*collector.Event, bool) {
	if event, exists := h.storage.GetEvent(id); exists {
		return event, true
	}
	for _, event := range h.storage.GetEvents(h.storage.Capacity()) {
		for childID, child := range event.Visit() {
			if childID == id {
				return child, true
			}
		}
	}
	return nil, false
}

func summarize(events []*collector.Event) views.RunSummary {
	var summary views.RunSummary
	for _, event := range events {
		data, ok := event.Data.(collector.ScenarioEvent)
		if !ok {
			continue
		}
		switch data.Status {
		case collector.ScenarioPassed:
			summary.Passed++
		case collector.ScenarioFailed:
			summary.Failed++
		case collector.ScenarioSkipped:
			summary.Skipped++
		}
	}
	return summary
}
