package collector_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/surveyprobe/collector"
)

func TestSlogLogCollectorHandler_GroupsAndAttrs(t *testing.T) {
	logs := collector.NewLogCollector(10)
	defer logs.Close()

	logger := slog.New(collector.NewSlogLogCollectorHandler(logs, collector.CollectSlogLogsOptions{Level: slog.LevelDebug})).
		With("scenario", "role-create").
		WithGroup("click")

	logger.Info("fallback used", "locator", "xpath=//button")

	records := logs.Tail(10)
	require.Len(t, records, 1)
	assert.Equal(t, "fallback used", records[0].Message)

	attrs := map[string]slog.Value{}
	records[0].Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value
		return true
	})
	assert.Equal(t, "role-create", attrs["scenario"].String())
	require.Equal(t, slog.KindGroup, attrs["click"].Kind())
	assert.Equal(t, "locator", attrs["click"].Group()[0].Key)
}

func TestSlogLogCollectorHandler_RespectsLevel(t *testing.T) {
	logs := collector.NewLogCollector(10)
	defer logs.Close()

	logger := slog.New(collector.NewSlogLogCollectorHandler(logs, collector.CollectSlogLogsOptions{Level: slog.LevelWarn}))
	logger.Info("ignored")
	logger.Warn("kept")

	records := logs.Tail(10)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].Message)
}

func TestLogCollector_ForwardsToScenarioGroup(t *testing.T) {
	aggregator := collector.NewEventAggregator()
	defer aggregator.Close()
	storage := collector.NewCaptureStorage(uuid.Nil, 10, collector.CaptureModeAll)
	aggregator.RegisterStorage(storage)

	logs := collector.NewLogCollectorWithOptions(10, collector.LogOptions{Aggregator: aggregator})
	defer logs.Close()
	logger := slog.New(collector.NewSlogLogCollectorHandler(logs, collector.CollectSlogLogsOptions{}))

	ctx := aggregator.StartEvent(context.Background())
	logger.InfoContext(ctx, "inside scenario")
	aggregator.EndEvent(ctx, collector.ScenarioEvent{Name: "signup"})

	events := storage.GetEvents(10)
	require.Len(t, events, 1)
	require.Len(t, events[0].Children, 1)
	record, ok := events[0].Children[0].Data.(slog.Record)
	require.True(t, ok)
	assert.Equal(t, "inside scenario", record.Message)
}
