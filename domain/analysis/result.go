package analysis

import (
	"fmt"

	"sprawlstats/domain/core"
)

// Status is the lifecycle state of a result
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Result is the outcome of one analysis run. It transitions exactly once into
// completed or failed and is immutable afterwards.
type Result struct {
	ID        string       `json:"id"`
	ConfigID  string       `json:"configId"`
	Status    Status       `json:"status"`
	StartTime core.Millis  `json:"startTime"`
	EndTime   *core.Millis `json:"endTime,omitempty"`
	Data      *ResultData  `json:"data,omitempty"`
	Summary   string       `json:"summary,omitempty"`
	Insights  []string     `json:"insights,omitempty"`
	Error     string       `json:"error,omitempty"`
	ErrorCode string       `json:"errorCode,omitempty"`
}

// NewResult creates a pending result for configID
func NewResult(configID string) *Result {
	return &Result{
		ID:        core.NewResultID().String(),
		ConfigID:  configID,
		Status:    StatusPending,
		StartTime: core.NowMillis(),
	}
}

// MarkProcessing moves a pending result into processing
func (r *Result) MarkProcessing() error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: cannot start result in status %s", core.ErrResultFinalized, r.Status)
	}
	r.Status = StatusProcessing
	return nil
}

// Complete finalizes the result successfully
func (r *Result) Complete(data *ResultData, summary string, insights []string) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", core.ErrResultFinalized, r.ID)
	}
	end := core.NowMillis()
	r.Status = StatusCompleted
	r.EndTime = &end
	r.Data = data
	r.Summary = summary
	r.Insights = insights
	return nil
}

// Fail finalizes the result with an error
func (r *Result) Fail(code, message string) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", core.ErrResultFinalized, r.ID)
	}
	end := core.NowMillis()
	r.Status = StatusFailed
	r.EndTime = &end
	r.Error = message
	r.ErrorCode = code
	return nil
}

// Duration returns the elapsed milliseconds, or 0 while running
func (r *Result) Duration() int64 {
	if r.EndTime == nil {
		return 0
	}
	return int64(*r.EndTime - r.StartTime)
}
