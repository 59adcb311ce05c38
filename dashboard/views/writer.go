package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// writer keeps the first error so components can write without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// rawf formats into the output without escaping; callers escape user content.
func (w *writer) rawf(format string, args ...any) {
	w.raw(fmt.Sprintf(format, args...))
}

func (w *writer) render(ctx context.Context, c templ.Component) {
	if w.err != nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

func attr(s string) string {
	return templ.EscapeString(s)
}
