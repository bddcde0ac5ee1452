package model

import "time"

// RunKind distinguishes the two pipelines in run history.
type RunKind string

const (
	RunKindDiscovery RunKind = "discovery"
	RunKindOutreach  RunKind = "outreach"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID        string    `json:"id"`
	Kind      RunKind   `json:"kind"`
	Status    RunStatus `json:"status"`
	Detail    string    `json:"detail,omitempty"` // e.g. "dentistas en cordoba" or "quota 10"
	Count     int       `json:"count"`            // leads upserted or emails sent
	Log       []string  `json:"log,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
