package collector

import (
	"context"

	"github.com/gofrs/uuid"
)

type ctxKey string

const (
	groupIDKey ctxKey = "groupID"
	runIDKey   ctxKey = "runID"
)

func groupIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if groupID, ok := ctx.Value(groupIDKey).(uuid.UUID); ok {
		return groupID, true
	}
	return uuid.Nil, false
}

func withGroupID(ctx context.Context, groupID uuid.UUID) context.Context {
	return context.WithValue(ctx, groupIDKey, groupID)
}

// WithRunID marks all events collected with the returned context as belonging to the given run.
func WithRunID(ctx context.Context, runID uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run ID set by WithRunID.
func RunIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if runID, ok := ctx.Value(runIDKey).(uuid.UUID); ok {
		return runID, true
	}
	return uuid.Nil, false
}
