package scenario

import (
	"context"
	"errors"

	"github.com/networkteam/surveyprobe/browser"
	"github.com/networkteam/surveyprobe/verify"
	"github.com/networkteam/surveyprobe/wait"
)

// Kind classifies why a scenario did not pass.
type Kind string

const (
	KindNone        Kind = ""
	KindSetup       Kind = "setup"
	KindTimeout     Kind = "timeout"
	KindInteraction Kind = "interaction"
	KindAssertion   Kind = "assertion"
	KindCanceled    Kind = "canceled"
	KindError       Kind = "error"
)

// Classify maps an error returned by a scenario to its kind.
// The innermost typed error decides, so an assertion wrapped in a step error is still an assertion.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		setupErr       *browser.SetupError
		timeoutErr     *wait.TimeoutError
		interactionErr *wait.InteractionError
		failure        *verify.AssertionFailure
	)
	switch {
	case errors.As(err, &setupErr):
		return KindSetup
	case errors.As(err, &failure):
		return KindAssertion
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &interactionErr):
		return KindInteraction
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindError
	}
}
