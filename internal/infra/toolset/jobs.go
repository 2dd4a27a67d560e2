package toolset

import (
	"context"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
)

func jobsTools(svc JobsService) []domain.ToolBinding {
	jobsLimit := optional("limit", domain.ParamInteger, "Page size.")
	jobsLimit.Minimum = domain.Bound(1)
	jobsLimit.Maximum = domain.Bound(domain.MaxJobsLimit)
	jobsLimit.Default = domain.DefaultJobsLimit

	runsLimit := optional("limit", domain.ParamInteger, "Page size.")
	runsLimit.Minimum = domain.Bound(1)
	runsLimit.Maximum = domain.Bound(domain.MaxRunsLimit)
	runsLimit.Default = domain.DefaultJobsLimit

	runType := optional("run_type", domain.ParamString, "Only return runs of this type.")
	runType.Enum = domain.RunTypes

	pageToken := optional("page_token", domain.ParamString, "Token from a previous page.")

	return []domain.ToolBinding{
		binding(domain.ServiceJobs, "jobs_list_jobs",
			"List one page of jobs.",
			[]domain.ToolParam{
				jobsLimit,
				optional("expand_tasks", domain.ParamBoolean, "Include task and cluster details."),
				optional("name", domain.ParamString, "Exact job name filter."),
				pageToken,
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				limit, err := args.Int("limit")
				if err != nil {
					return nil, err
				}
				return svc.ListJobs(ctx, domain.ListJobsRequest{
					Limit:       limit,
					ExpandTasks: args.Bool("expand_tasks"),
					Name:        args.String("name"),
					PageToken:   args.String("page_token"),
				})
			},
		),
		binding(domain.ServiceJobs, "jobs_get_job",
			"Get a job definition.",
			[]domain.ToolParam{
				required("job_id", domain.ParamInteger, "Job ID."),
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				id, err := args.Int("job_id")
				if err != nil {
					return nil, err
				}
				return svc.GetJob(ctx, id)
			},
		),
		binding(domain.ServiceJobs, "jobs_list_runs",
			"List one page of job runs, newest first.",
			[]domain.ToolParam{
				optional("job_id", domain.ParamInteger, "Only return runs of this job."),
				optional("active_only", domain.ParamBoolean, "Only return active runs."),
				optional("completed_only", domain.ParamBoolean, "Only return completed runs."),
				runsLimit,
				pageToken,
				runType,
				optional("start_time_from", domain.ParamInteger, "Earliest start time in epoch milliseconds."),
				optional("start_time_to", domain.ParamInteger, "Latest start time in epoch milliseconds."),
			},
			func(ctx context.Context, args domain.ToolArgs) (any, error) {
				req := domain.ListRunsRequest{
					ActiveOnly:    args.Bool("active_only"),
					CompletedOnly: args.Bool("completed_only"),
					PageToken:     args.String("page_token"),
					RunType:       args.String("run_type"),
				}
				var err error
				if req.JobID, err = args.OptInt("job_id"); err != nil {
					return nil, err
				}
				if req.Limit, err = args.Int("limit"); err != nil {
					return nil, err
				}
				if req.StartTimeFrom, err = args.OptInt("start_time_from"); err != nil {
					return nil, err
				}
				if req.StartTimeTo, err = args.OptInt("start_time_to"); err != nil {
					return nil, err
				}
				return svc.ListRuns(ctx, req)
			},
		),
	}
}
