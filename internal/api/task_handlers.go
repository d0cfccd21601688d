package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/listenupapp/agetags-server/internal/domain"
	"github.com/listenupapp/agetags-server/internal/service"
	"github.com/listenupapp/agetags-server/internal/store/sqlite"
)

func (s *Server) registerTaskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAgeTagTask",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/age-tags",
		Summary:     "Age-tag task status",
		Description: "Reports whether a run is in progress and how runs are configured",
		Tags:        []string{"Tasks"},
	}, s.handleGetAgeTagTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "runAgeTagTask",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/age-tags",
		Summary:     "Run age-tag task",
		Description: "Resolves every catalog title and sets or removes its age tag. Runs synchronously and returns the run summary. Dry runs only record planned changes.",
		Tags:        []string{"Tasks"},
	}, s.handleRunAgeTagTask)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAgeTagRuns",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/age-tags/runs",
		Summary:     "List age-tag runs",
		Description: "Returns recent runs, newest first, without their changes",
		Tags:        []string{"Tasks"},
	}, s.handleListAgeTagRuns)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAgeTagRun",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/age-tags/runs/{id}",
		Summary:     "Get age-tag run",
		Description: "Returns one run with its planned or applied changes",
		Tags:        []string{"Tasks"},
	}, s.handleGetAgeTagRun)
}

// === DTOs ===

// TaskStatusResponse describes the age-tag task.
type TaskStatusResponse struct {
	Running      bool     `json:"running" doc:"Whether a run is in progress"`
	WriteEnabled bool     `json:"write_enabled" doc:"Whether runs may modify tags"`
	Priority     []string `json:"priority" doc:"Configured region priority"`
}

// TaskStatusOutput wraps the task status response for Huma.
type TaskStatusOutput struct {
	Body TaskStatusResponse
}

// RunAgeTagsRequest is the request body for triggering a run.
type RunAgeTagsRequest struct {
	DryRun *bool `json:"dry_run,omitempty" doc:"Force dry-run (true) or write (false); defaults to the server setting"`
}

// RunAgeTagsInput wraps the run request for Huma.
type RunAgeTagsInput struct {
	Body *RunAgeTagsRequest `required:"false"`
}

// TagChangeResponse is one planned or applied tag change.
type TagChangeResponse struct {
	TitleID       string   `json:"title_id" doc:"Title ID"`
	TitleName     string   `json:"title_name" doc:"Title name at run time"`
	Action        string   `json:"action" doc:"set or remove"`
	OldTags       []string `json:"old_tags" doc:"Age tags before the run"`
	NewTag        string   `json:"new_tag,omitempty" doc:"Age tag after the run"`
	Age           *int     `json:"age" doc:"Resolved age, null when unknown"`
	Region        string   `json:"region,omitempty" doc:"Region that supplied the age"`
	Certification string   `json:"certification,omitempty" doc:"Certification that supplied the age"`
	Applied       bool     `json:"applied" doc:"Whether the change was written"`
}

// RunResponse summarizes one run.
type RunResponse struct {
	ID         string              `json:"id" doc:"Run ID"`
	TriggerID  string              `json:"trigger_id,omitempty" doc:"Correlation ID of the triggering request"`
	DryRun     bool                `json:"dry_run" doc:"Whether changes were only planned"`
	Status     string              `json:"status" doc:"running, completed, or aborted"`
	Error      string              `json:"error,omitempty" doc:"Why the run aborted"`
	Scanned    int                 `json:"scanned" doc:"Titles examined"`
	Resolved   int                 `json:"resolved" doc:"Titles with a known age"`
	Unknown    int                 `json:"unknown" doc:"Titles with no usable certification"`
	Changed    int                 `json:"changed" doc:"Titles whose age tag was planned or written"`
	Failed     int                 `json:"failed" doc:"Titles whose certifications or write failed"`
	StartedAt  time.Time           `json:"started_at" doc:"Start time"`
	FinishedAt *time.Time          `json:"finished_at,omitempty" doc:"End time"`
	Duration   string              `json:"duration,omitempty" doc:"Run duration"`
	Changes    []TagChangeResponse `json:"changes,omitempty" doc:"Planned or applied changes"`
}

// RunOutput wraps the run response for Huma.
type RunOutput struct {
	Body RunResponse
}

// ListRunsInput contains parameters for listing runs.
type ListRunsInput struct {
	Limit int `query:"limit" default:"20" minimum:"1" maximum:"200" doc:"Maximum runs to return"`
}

// ListRunsResponse contains recent runs.
type ListRunsResponse struct {
	Runs []RunResponse `json:"runs" doc:"Runs, newest first"`
}

// ListRunsOutput wraps the list runs response for Huma.
type ListRunsOutput struct {
	Body ListRunsResponse
}

// RunIDInput contains the path parameter for a run.
type RunIDInput struct {
	ID string `path:"id" doc:"Run ID"`
}

// === Handlers ===

func (s *Server) handleGetAgeTagTask(_ context.Context, _ *struct{}) (*TaskStatusOutput, error) {
	return &TaskStatusOutput{
		Body: TaskStatusResponse{
			Running:      s.services.AgeTag.Running(),
			WriteEnabled: s.services.AgeTag.WriteEnabled(),
			Priority:     s.services.Rating.Priority(),
		},
	}, nil
}

func (s *Server) handleRunAgeTagTask(ctx context.Context, input *RunAgeTagsInput) (*RunOutput, error) {
	opts := service.RunOptions{TriggerID: uuid.NewString()}
	if input.Body != nil {
		opts.DryRun = input.Body.DryRun
	}

	s.logger.Info("age-tag run requested", "trigger_id", opts.TriggerID)

	run, err := s.services.AgeTag.Run(ctx, opts)
	if err != nil {
		return nil, apiError(err)
	}

	return &RunOutput{Body: toRunResponse(run, true)}, nil
}

func (s *Server) handleListAgeTagRuns(ctx context.Context, input *ListRunsInput) (*ListRunsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = sqlite.DefaultRunHistoryLimit
	}

	runs, err := s.services.AgeTag.ListRuns(ctx, limit)
	if err != nil {
		return nil, apiError(err)
	}

	resp := make([]RunResponse, len(runs))
	for i, r := range runs {
		resp[i] = toRunResponse(r, false)
	}

	return &ListRunsOutput{Body: ListRunsResponse{Runs: resp}}, nil
}

func (s *Server) handleGetAgeTagRun(ctx context.Context, input *RunIDInput) (*RunOutput, error) {
	run, err := s.services.AgeTag.GetRun(ctx, input.ID)
	if err != nil {
		return nil, apiError(err)
	}

	return &RunOutput{Body: toRunResponse(run, true)}, nil
}

// === Helpers ===

func toRunResponse(r *domain.TagRun, withChanges bool) RunResponse {
	resp := RunResponse{
		ID:         r.ID,
		TriggerID:  r.TriggerID,
		DryRun:     r.DryRun,
		Status:     string(r.Status),
		Error:      r.Error,
		Scanned:    r.Scanned,
		Resolved:   r.Resolved,
		Unknown:    r.Unknown,
		Changed:    r.Changed,
		Failed:     r.Failed,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.FinishedAt != nil {
		resp.Duration = r.Duration().String()
	}

	if withChanges {
		resp.Changes = make([]TagChangeResponse, len(r.Changes))
		for i, c := range r.Changes {
			oldTags := c.OldTags
			if oldTags == nil {
				oldTags = []string{}
			}
			resp.Changes[i] = TagChangeResponse{
				TitleID:       c.TitleID,
				TitleName:     c.TitleName,
				Action:        string(c.Action),
				OldTags:       oldTags,
				NewTag:        c.NewTag,
				Age:           c.Age,
				Region:        c.Region,
				Certification: c.Certification,
				Applied:       c.Applied,
			}
		}
	}

	return resp
}
