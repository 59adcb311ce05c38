package collector

import (
	"context"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

// LogCollector keeps the most recent log records and forwards them to the
// event aggregator so they show up under the scenario that emitted them.
type LogCollector struct {
	buffer     *RingBuffer[slog.Record]
	notifier   *Notifier[slog.Record]
	aggregator *EventAggregator
}

type LogOptions struct {
	// NotifierOptions are options for notification about new logs
	NotifierOptions *NotifierOptions

	// Aggregator receives every record as an event if set
	Aggregator *EventAggregator
}

func NewLogCollector(capacity uint64) *LogCollector {
	return NewLogCollectorWithOptions(capacity, LogOptions{})
}

func NewLogCollectorWithOptions(capacity uint64, options LogOptions) *LogCollector {
	notifierOptions := DefaultNotifierOptions()
	if options.NotifierOptions != nil {
		notifierOptions = *options.NotifierOptions
	}

	return &LogCollector{
		buffer:     NewRingBuffer[slog.Record](capacity),
		notifier:   NewNotifierWithOptions[slog.Record](notifierOptions),
		aggregator: options.Aggregator,
	}
}

func (c *LogCollector) Collect(ctx context.Context, record slog.Record) {
	c.buffer.Add(record)
	c.notifier.Notify(record)
	if c.aggregator != nil {
		c.aggregator.CollectEvent(ctx, record)
	}
}

// Tail returns up to n of the most recent records.
func (c *LogCollector) Tail(n int) []slog.Record {
	return c.buffer.GetRecords(uint64(n))
}

func (c *LogCollector) Subscribe(ctx context.Context) <-chan slog.Record {
	return c.notifier.Subscribe(ctx)
}

func (c *LogCollector) Close() {
	c.notifier.Close()
}

type CollectSlogLogsOptions struct {
	// Level is the minimum level of logs to collect.
	Level slog.Level
}

// SlogLogCollectorHandler is a slog.Handler writing into a LogCollector.
type SlogLogCollectorHandler struct {
	collector *LogCollector
	options   CollectSlogLogsOptions

	attrs  []slog.Attr
	groups []string
}

func NewSlogLogCollectorHandler(collector *LogCollector, options CollectSlogLogsOptions) *SlogLogCollectorHandler {
	return &SlogLogCollectorHandler{
		collector: collector,
		options:   options,
	}
}

func (h *SlogLogCollectorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.options.Level <= level
}

func (h *SlogLogCollectorHandler) Handle(ctx context.Context, record slog.Record) error {
	// Handler attributes go before record attributes, so the record is rebuilt.
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	newRecord.AddAttrs(h.attrs...)

	attrs := make([]slog.Attr, 0, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})
	for i := len(h.groups) - 1; i >= 0; i-- {
		attrs = []slog.Attr{slog.Group(h.groups[i], lo.ToAnySlice(attrs)...)}
	}
	newRecord.AddAttrs(attrs...)

	h.collector.Collect(ctx, newRecord)
	return nil
}

func (h *SlogLogCollectorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SlogLogCollectorHandler{
		collector: h.collector,
		options:   h.options,
		attrs:     appendAttrsToGroup(h.groups, h.attrs, attrs...),
		groups:    h.groups,
	}
}

func (h *SlogLogCollectorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogLogCollectorHandler{
		collector: h.collector,
		options:   h.options,
		attrs:     h.attrs,
		groups:    append(slices.Clone(h.groups), name),
	}
}

// Copied from github.com/samber/slog-mock
func appendAttrsToGroup(groups []string, actualAttrs []slog.Attr, newAttrs ...slog.Attr) []slog.Attr {
	actualAttrs = slices.Clone(actualAttrs)

	if len(groups) == 0 {
		return append(actualAttrs, newAttrs...)
	}

	for i := range actualAttrs {
		attr := actualAttrs[i]
		if attr.Key == groups[0] && attr.Value.Kind() == slog.KindGroup {
			actualAttrs[i] = slog.Group(groups[0], lo.ToAnySlice(appendAttrsToGroup(groups[1:], attr.Value.Group(), newAttrs...))...)
			return actualAttrs
		}
	}

	return append(
		actualAttrs,
		slog.Group(
			groups[0],
			lo.ToAnySlice(appendAttrsToGroup(groups[1:], []slog.Attr{}, newAttrs...))...,
		),
	)
}
