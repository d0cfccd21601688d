package domain

import "time"

// TagRunStatus is the lifecycle state of an age-tag run.
type TagRunStatus string

const (
	TagRunRunning   TagRunStatus = "running"
	TagRunCompleted TagRunStatus = "completed"
	// TagRunAborted marks a run stopped before finishing, e.g. missing TMDB credentials
	// or a canceled context.
	TagRunAborted TagRunStatus = "aborted"
)

// TagAction describes what a run did, or would do, to a title's age tag.
type TagAction string

const (
	TagActionSet    TagAction = "set"
	TagActionRemove TagAction = "remove"
)

// TagRun is the persisted summary of one age-tag task execution.
type TagRun struct {
	ID        string       `json:"id"`
	TriggerID string       `json:"trigger_id,omitempty"`
	DryRun    bool         `json:"dry_run"`
	Status    TagRunStatus `json:"status"`
	Error     string       `json:"error,omitempty"`

	Scanned  int `json:"scanned"`
	Resolved int `json:"resolved"`
	Unknown  int `json:"unknown"`
	Changed  int `json:"changed"`
	Failed   int `json:"failed"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Changes []TagChange `json:"changes,omitempty"`
}

// Duration returns how long the run took, or zero while it is still running.
func (r *TagRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TagChange is one planned (dry run) or applied tag change for a title.
type TagChange struct {
	RunID     string    `json:"run_id"`
	TitleID   string    `json:"title_id"`
	TitleName string    `json:"title_name"`
	Action    TagAction `json:"action"`
	OldTags   []string  `json:"old_tags,omitempty"`
	NewTag    string    `json:"new_tag,omitempty"`

	// Provenance of the resolved age; empty when the age is unknown.
	Age           *int   `json:"age,omitempty"`
	Region        string `json:"region,omitempty"`
	Certification string `json:"certification,omitempty"`

	Applied bool `json:"applied"`
}
