// Package job runs the fetch→normalize→detect→build pipeline outside the
// request path. Submissions return immediately with an acknowledgement; the
// caller polls job status or the artifact listing afterwards.
package job

import "time"

// Kind selects the pipeline variant.
type Kind string

const (
	// KindExtract exports raw candle CSVs for every asset/interval pair.
	KindExtract Kind = "extract"
	// KindAnalyze runs trigger detection on the first asset at 1m.
	KindAnalyze Kind = "analyze"
)

// Job statuses.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Params is the request boundary object. Immutable once submitted.
type Params struct {
	Source    string   `json:"source"`
	Assets    []string `json:"assets"`
	Intervals []string `json:"intervals"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
}

// Unit result statuses. Each (asset, interval) pair resolves to exactly one.
const (
	UnitOK     = "ok"
	UnitEmpty  = "empty"
	UnitFailed = "failed"
)

// UnitResult records the outcome of one (asset, interval) pair inside a
// batch. Failures are captured here instead of aborting the job.
type UnitResult struct {
	Asset    string `json:"asset"`
	Interval string `json:"interval"`
	Status   string `json:"status"`
	Rows     int    `json:"rows"`
	Dropped  int    `json:"dropped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Job is the caller-visible state of one submission.
type Job struct {
	ID          string       `json:"id"`
	Kind        Kind         `json:"kind"`
	Source      string       `json:"source"`
	Status      string       `json:"status"`
	Message     string       `json:"message,omitempty"`
	Artifact    string       `json:"artifact,omitempty"`
	Params      Params       `json:"params"`
	Units       []UnitResult `json:"units,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (j *Job) copy() Job {
	out := *j
	out.Units = append([]UnitResult(nil), j.Units...)
	out.Params.Assets = append([]string(nil), j.Params.Assets...)
	out.Params.Intervals = append([]string(nil), j.Params.Intervals...)
	return out
}
