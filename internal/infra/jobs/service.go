package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/remote"
)

const (
	listJobsPath = "/api/2.2/jobs/list"
	getJobPath   = "/api/2.1/jobs/get"
	listRunsPath = "/api/2.1/jobs/runs/list"
)

// Options configures a Service.
type Options struct {
	Retry  remote.RetryPolicy
	Logger *zap.Logger
}

// Service reads job definitions and runs. Listings are returned one page at
// a time; callers follow next_page_token.
type Service struct {
	caller remote.Caller
	retry  remote.RetryPolicy
	logger *zap.Logger
}

func NewService(caller remote.Caller, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		caller: caller,
		retry:  opts.Retry,
		logger: logger.Named("jobs"),
	}
}

// ListJobs returns one page of job definitions.
func (s *Service) ListJobs(ctx context.Context, req domain.ListJobsRequest) (domain.JobsPage, error) {
	const op = "jobs.ListJobs"
	limit, err := pageLimit(op, req.Limit, domain.MaxJobsLimit)
	if err != nil {
		return domain.JobsPage{}, err
	}
	query := url.Values{}
	query.Set("limit", strconv.FormatInt(limit, 10))
	if req.ExpandTasks {
		query.Set("expand_tasks", "true")
	}
	if req.Name != "" {
		query.Set("name", req.Name)
	}
	if req.PageToken != "" {
		query.Set("page_token", req.PageToken)
	}

	var page domain.JobsPage
	if err := s.get(ctx, listJobsPath, query, &page); err != nil {
		return domain.JobsPage{}, remote.Classify(op, "", err)
	}
	if page.Jobs == nil {
		page.Jobs = []json.RawMessage{}
	}
	return page, nil
}

// GetJob returns a job definition as reported by the platform.
func (s *Service) GetJob(ctx context.Context, jobID int64) (json.RawMessage, error) {
	const op = "jobs.GetJob"
	if jobID <= 0 {
		return nil, domain.E(domain.KindValidation, op, "job_id must be positive", domain.ErrInvalidArgument)
	}
	query := url.Values{}
	query.Set("job_id", strconv.FormatInt(jobID, 10))

	var job json.RawMessage
	if err := s.get(ctx, getJobPath, query, &job); err != nil {
		return nil, remote.Classify(op, fmt.Sprintf("job %d not found", jobID), err)
	}
	return job, nil
}

// ListRuns returns one page of job runs, optionally for a single job.
func (s *Service) ListRuns(ctx context.Context, req domain.ListRunsRequest) (domain.RunsPage, error) {
	const op = "jobs.ListRuns"
	if req.ActiveOnly && req.CompletedOnly {
		return domain.RunsPage{}, domain.E(domain.KindValidation, op, "active_only and completed_only are mutually exclusive", domain.ErrInvalidArgument)
	}
	if req.RunType != "" && !slices.Contains(domain.RunTypes, req.RunType) {
		return domain.RunsPage{}, domain.E(domain.KindValidation, op, fmt.Sprintf("unsupported run_type %q", req.RunType), domain.ErrInvalidArgument)
	}
	limit, err := pageLimit(op, req.Limit, domain.MaxRunsLimit)
	if err != nil {
		return domain.RunsPage{}, err
	}

	query := url.Values{}
	query.Set("limit", strconv.FormatInt(limit, 10))
	missing := ""
	if req.JobID != nil {
		query.Set("job_id", strconv.FormatInt(*req.JobID, 10))
		missing = fmt.Sprintf("job %d not found", *req.JobID)
	}
	if req.ActiveOnly {
		query.Set("active_only", "true")
	}
	if req.CompletedOnly {
		query.Set("completed_only", "true")
	}
	if req.PageToken != "" {
		query.Set("page_token", req.PageToken)
	}
	if req.RunType != "" {
		query.Set("run_type", req.RunType)
	}
	if req.StartTimeFrom != nil {
		query.Set("start_time_from", strconv.FormatInt(*req.StartTimeFrom, 10))
	}
	if req.StartTimeTo != nil {
		query.Set("start_time_to", strconv.FormatInt(*req.StartTimeTo, 10))
	}

	var page domain.RunsPage
	if err := s.get(ctx, listRunsPath, query, &page); err != nil {
		return domain.RunsPage{}, remote.Classify(op, missing, err)
	}
	if page.Runs == nil {
		page.Runs = []json.RawMessage{}
	}
	return page, nil
}

func (s *Service) get(ctx context.Context, path string, query url.Values, out any) error {
	return remote.Retry(ctx, s.retry, func(ctx context.Context) error {
		return s.caller.Call(ctx, http.MethodGet, path, query, nil, out)
	})
}

func pageLimit(op string, limit, maxLimit int64) (int64, error) {
	if limit == 0 {
		return domain.DefaultJobsLimit, nil
	}
	if limit < 1 || limit > maxLimit {
		return 0, domain.E(domain.KindValidation, op, fmt.Sprintf("limit must be between 1 and %d", maxLimit), domain.ErrInvalidArgument)
	}
	return limit, nil
}
