package views

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
)

type HandlerOptions struct {
	PathPrefix string
}

type handlerOptionsKey struct{}

func WithHandlerOptions(ctx context.Context, opts HandlerOptions) context.Context {
	return context.WithValue(ctx, handlerOptionsKey{}, opts)
}

func MustGetHandlerOptions(ctx context.Context) HandlerOptions {
	opts, ok := ctx.Value(handlerOptionsKey{}).(HandlerOptions)
	if !ok {
		panic("views: handler options missing in context")
	}
	return opts
}

func prefixed(ctx context.Context, path string) string {
	return MustGetHandlerOptions(ctx).PathPrefix + path
}

func eventURL(ctx context.Context, id uuid.UUID) string {
	return prefixed(ctx, fmt.Sprintf("/event/%s", id))
}

func selectURL(ctx context.Context, id uuid.UUID) string {
	return prefixed(ctx, fmt.Sprintf("/?id=%s", id))
}
