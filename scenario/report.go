package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gofrs/uuid"
	"github.com/samber/lo"

	"github.com/networkteam/surveyprobe/collector"
)

// Outcome is the result of one scenario.
type Outcome struct {
	Order    int
	Name     string
	Status   collector.ScenarioStatus
	Kind     Kind
	Err      error
	Diff     string
	Warnings []string
	Duration time.Duration
}

// Report collects the outcomes of a run.
type Report struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
	// Aborted is set when a setup failure or cancellation stopped the run early.
	Aborted bool
}

// Failed reports whether any scenario failed or was skipped.
func (r *Report) Failed() bool {
	return lo.SomeBy(r.Outcomes, func(o Outcome) bool {
		return o.Status != collector.ScenarioPassed
	})
}

// SetupFailed reports whether the run was aborted by a setup error.
func (r *Report) SetupFailed() bool {
	return lo.SomeBy(r.Outcomes, func(o Outcome) bool { return o.Kind == KindSetup })
}

// Count returns the number of outcomes with the given status.
func (r *Report) Count(status collector.ScenarioStatus) int {
	return lo.CountBy(r.Outcomes, func(o Outcome) bool { return o.Status == status })
}

// Render writes a human readable table.
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCENARIO\tSTATUS\tKIND\tDURATION\tDETAIL")
	for _, o := range r.Outcomes {
		detail := ""
		if o.Err != nil {
			detail = firstLine(o.Err.Error())
		} else if len(o.Warnings) > 0 {
			detail = fmt.Sprintf("%d warnings", len(o.Warnings))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.Order, o.Name, o.Status, o.Kind, o.Duration.Round(time.Millisecond), detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped in %s\n",
		r.Count(collector.ScenarioPassed), r.Count(collector.ScenarioFailed), r.Count(collector.ScenarioSkipped),
		r.Finished.Sub(r.Started).Round(time.Millisecond))
	return err
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

type jsonOutcome struct {
	Order      int                      `json:"order"`
	Name       string                   `json:"name"`
	Status     collector.ScenarioStatus `json:"status"`
	Kind       Kind                     `json:"kind,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Diff       string                   `json:"diff,omitempty"`
	Warnings   []string                 `json:"warnings,omitempty"`
	DurationMS int64                    `json:"durationMs"`
}

// WriteJSON writes the report as JSON for CI consumption.
func (r *Report) WriteJSON(w io.Writer) error {
	doc := struct {
		RunID    uuid.UUID     `json:"runId"`
		Started  time.Time     `json:"started"`
		Finished time.Time     `json:"finished"`
		Aborted  bool          `json:"aborted"`
		Outcomes []jsonOutcome `json:"outcomes"`
	}{
		RunID:    r.RunID,
		Started:  r.Started,
		Finished: r.Finished,
		Aborted:  r.Aborted,
		Outcomes: lo.Map(r.Outcomes, func(o Outcome, _ int) jsonOutcome {
			jo := jsonOutcome{
				Order:      o.Order,
				Name:       o.Name,
				Status:     o.Status,
				Kind:       o.Kind,
				Diff:       o.Diff,
				Warnings:   o.Warnings,
				DurationMS: o.Duration.Milliseconds(),
			}
			if o.Err != nil {
				jo.Error = o.Err.Error()
			}
			return jo
		}),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
