package collector

import (
	"bytes"
)

// LimitedBuffer keeps at most limit bytes and silently drops the rest.
// It never fails a write, so it can sit behind an io.Copy of a full body.
type LimitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func NewLimitedBuffer(limit int) *LimitedBuffer {
	return &LimitedBuffer{limit: limit}
}

func (b *LimitedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if len(p) > remaining {
		b.truncated = true
		if remaining > 0 {
			b.buf.Write(p[:remaining])
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

// IsTruncated reports whether bytes were dropped.
func (b *LimitedBuffer) IsTruncated() bool {
	return b.truncated
}

// String returns the kept bytes, with an ellipsis if bytes were dropped.
func (b *LimitedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "…"
	}
	return b.buf.String()
}
