package collector

import (
	"time"
)

// ScenarioStatus is the outcome of a single scenario.
type ScenarioStatus string

const (
	ScenarioPassed  ScenarioStatus = "passed"
	ScenarioFailed  ScenarioStatus = "failed"
	ScenarioSkipped ScenarioStatus = "skipped"
)

// ScenarioEvent is the data of a group event spanning one scenario.
type ScenarioEvent struct {
	Order     int
	Name      string
	Status    ScenarioStatus
	ErrorKind string
	Error     string
	// Diff is a unified diff of expected vs last observed value for assertion failures.
	Diff string
}

// StepEvent marks a named step inside a scenario.
type StepEvent struct {
	Name   string
	Detail string
	// Warnings are recoverable anomalies observed during the step.
	Warnings []string
}

// ClickPath tells how a click reached its target.
type ClickPath string

const (
	ClickNative   ClickPath = "native"
	ClickFallback ClickPath = "fallback"
	ClickFailed   ClickPath = "failed"
)

// ClickEvent is recorded for every resilient click.
type ClickEvent struct {
	Locator string
	Path    ClickPath
	Reason  string
}

// WaitOutcome is the result of a bounded wait.
type WaitOutcome string

const (
	WaitSatisfied WaitOutcome = "satisfied"
	WaitTimedOut  WaitOutcome = "timeout"
	WaitCanceled  WaitOutcome = "canceled"
)

// WaitEvent is recorded for every condition wait.
type WaitEvent struct {
	Locator   string
	Condition string
	Outcome   WaitOutcome
	Elapsed   time.Duration
	Polls     int
}

// ProbeEvent is recorded for HTTP requests issued through the probe transport.
type ProbeEvent struct {
	Method     string
	URL        string
	StatusCode int
	Elapsed    time.Duration
	Error      string
}
