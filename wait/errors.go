package wait

import (
	"fmt"
	"time"
)

// TimeoutError is returned when a condition was not met within its timeout.
type TimeoutError struct {
	Locator   string
	Condition string
	Timeout   time.Duration
	Elapsed   time.Duration
	// Matches is the size of the match set at the last poll.
	Matches int
	// LastErr is the last query error, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s to be %s (%d matches at last poll)",
		e.Elapsed.Round(time.Millisecond), e.Locator, e.Condition, e.Matches)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

// InteractionError is returned when an action on a located element failed.
type InteractionError struct {
	Locator string
	Action  string
	Err     error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Action, e.Locator, e.Err)
}

func (e *InteractionError) Unwrap() error {
	return e.Err
}
