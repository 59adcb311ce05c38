package collector_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/collector"
)

func TestPreflight_RecordsProbeEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	aggregator := collector.NewEventAggregator()
	defer aggregator.Close()
	storage := collector.NewCaptureStorage(uuid.Nil, 10, collector.CaptureModeAll)
	aggregator.RegisterStorage(storage)

	client := &http.Client{Transport: collector.ProbeTransport(nil, aggregator)}

	err := collector.Preflight(context.Background(), client, server.URL)
	require.NoError(t, err)

	events := storage.GetEvents(10)
	require.Len(t, events, 1)
	probe := events[0].Data.(collector.ProbeEvent)
	assert.Equal(t, http.MethodGet, probe.Method)
	assert.Equal(t, http.StatusOK, probe.StatusCode)
	assert.Empty(t, probe.Error)
}

func TestPreflight_ServerErrorIsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	aggregator := collector.NewEventAggregator()
	defer aggregator.Close()
	client := &http.Client{Transport: collector.ProbeTransport(nil, aggregator)}

	err := collector.Preflight(context.Background(), client, server.URL)
	assert.ErrorContains(t, err, "status 502")
}

func TestPreflight_ServerErrorQuotesBodyExcerpt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("database unavailable " + strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	aggregator := collector.NewEventAggregator()
	defer aggregator.Close()
	client := &http.Client{Transport: collector.ProbeTransport(nil, aggregator)}

	err := collector.Preflight(context.Background(), client, server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500: database unavailable")
	assert.Less(t, len(err.Error()), 700)
	assert.True(t, strings.HasSuffix(err.Error(), "…"))
}

func TestPreflight_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	aggregator := collector.NewEventAggregator()
	defer aggregator.Close()
	storage := collector.NewCaptureStorage(uuid.Nil, 10, collector.CaptureModeAll)
	aggregator.RegisterStorage(storage)
	client := &http.Client{Transport: collector.ProbeTransport(nil, aggregator)}

	err := collector.Preflight(context.Background(), client, url)
	require.Error(t, err)

	events := storage.GetEvents(10)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].Data.(collector.ProbeEvent).Error)
}
