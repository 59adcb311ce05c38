package dashboard_test

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/collector"
	"github.com/networkteam/surveyprobe/dashboard"
)

func newStorage(t *testing.T) (*collector.EventAggregator, *collector.CaptureStorage) {
	t.Helper()
	aggregator := collector.NewEventAggregator()
	storage := collector.NewCaptureStorage(uuid.Nil, 100, collector.CaptureModeAll)
	aggregator.RegisterStorage(storage)
	t.Cleanup(aggregator.Close)
	return aggregator, storage
}

func recordScenario(aggregator *collector.EventAggregator, evt collector.ScenarioEvent, children ...any) {
	ctx := aggregator.StartEvent(context.Background())
	for _, child := range children {
		aggregator.CollectEvent(ctx, child)
	}
	aggregator.EndEvent(ctx, evt)
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandler_Root(t *testing.T) {
	aggregator, storage := newStorage(t)
	recordScenario(aggregator, collector.ScenarioEvent{Order: 1, Name: "signup", Status: collector.ScenarioPassed})
	recordScenario(aggregator, collector.ScenarioEvent{Order: 2, Name: "login-<wrong>", Status: collector.ScenarioFailed})

	handler := dashboard.NewHandler(storage, dashboard.WithPathPrefix("/_surveyprobe"))
	defer handler.Close()

	rec := get(t, handler, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "1. signup")
	assert.Contains(t, body, "2. login-&lt;wrong&gt;")
	assert.Contains(t, body, "1 passed")
	assert.Contains(t, body, "1 failed")
	assert.Contains(t, body, `sse-connect="/_surveyprobe/events-sse"`)
	assert.Less(t, strings.Index(body, "login-"), strings.Index(body, "1. signup"), "newest first")
}

func TestHandler_RootUnknownEventRedirects(t *testing.T) {
	_, storage := newStorage(t)
	handler := dashboard.NewHandler(storage)
	defer handler.Close()

	rec := get(t, handler, "/?id="+uuid.Must(uuid.NewV7()).String())
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	rec = get(t, handler, "/?id=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_EventDetails(t *testing.T) {
	aggregator, storage := newStorage(t)
	recordScenario(aggregator,
		collector.ScenarioEvent{
			Order:     5,
			Name:      "login-wrong-credentials",
			Status:    collector.ScenarioFailed,
			ErrorKind: "assertion",
			Error:     "url never contains /dashboard",
			Diff:      "--- expected\n+++ observed\n@@ -1 +1 @@\n-/login\n+/dashboard\n",
		},
		collector.StepEvent{Name: "submit credentials", Detail: "ok"},
		collector.ClickEvent{Locator: "xpath=//button[text()='Sign In']", Path: collector.ClickFallback, Reason: "intercepted"},
	)

	handler := dashboard.NewHandler(storage)
	defer handler.Close()

	events := storage.GetEvents(10)
	require.Len(t, events, 1)
	scenarioEvent := events[0]

	rec := get(t, handler, "/event/"+scenarioEvent.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "login-wrong-credentials")
	assert.Contains(t, body, "url never contains /dashboard")
	assert.Contains(t, body, `class="chroma"`, "diff is highlighted")
	assert.Contains(t, body, "Events (2)")
	assert.Contains(t, body, "click fallback")

	t.Run("nested event", func(t *testing.T) {
		click := scenarioEvent.Children[1]
		rec := get(t, handler, "/event/"+click.ID.String())
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "intercepted")
	})

	t.Run("unknown event", func(t *testing.T) {
		rec := get(t, handler, "/event/"+uuid.Must(uuid.NewV7()).String())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := get(t, handler, "/event/nope")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_EventList(t *testing.T) {
	aggregator, storage := newStorage(t)
	aggregator.CollectEvent(context.Background(), collector.ProbeEvent{Method: http.MethodGet, URL: "http://localhost:3000", StatusCode: 200})
	aggregator.CollectEvent(context.Background(), slog.NewRecord(time.Now(), slog.LevelWarn, "Required fixtures not produced", 0))

	handler := dashboard.NewHandler(storage, dashboard.WithTruncateAfter(1))
	defer handler.Close()

	rec := get(t, handler, "/event-list")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Required fixtures not produced")
	assert.NotContains(t, body, "http://localhost:3000")
	assert.Contains(t, body, "Showing the latest 1 events")
}

func TestHandler_EventsSSE(t *testing.T) {
	aggregator, storage := newStorage(t)
	handler := dashboard.NewHandler(storage)

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/events-sse")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: keepalive\n", line)

	recordScenario(aggregator, collector.ScenarioEvent{Order: 3, Name: "login-success", Status: collector.ScenarioPassed})

	var dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: <li") {
			dataLine = line
		}
	}
	assert.Contains(t, dataLine, "3. login-success")

	// Close ends the stream
	handler.Close()
	_, err = reader.ReadString('\n')
	for err == nil {
		_, err = reader.ReadString('\n')
	}
}
