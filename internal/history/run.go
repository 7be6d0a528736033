package history

import "time"

// Outcome is the final status of a recorded sync run.
type Outcome string

const (
	OutcomeWritten   Outcome = "written"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeDryRun    Outcome = "dry_run"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
)

// Run is one pipeline execution as persisted in the history store.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Outcome    Outcome   `json:"outcome" yaml:"outcome"`

	Properties int `json:"properties" yaml:"properties"`
	Plugins    int `json:"plugins" yaml:"plugins"`
	Bases      int `json:"bases" yaml:"bases"`
	Extensions int `json:"extensions" yaml:"extensions"`
	Interfaces int `json:"interfaces" yaml:"interfaces"`

	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	SHA256     string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Duration returns the wall time the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Changed reports whether the run wrote a new schema file.
func (r Run) Changed() bool {
	return r.Outcome == OutcomeWritten
}
