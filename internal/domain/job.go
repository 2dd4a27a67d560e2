package domain

import "encoding/json"

// JobsPage is one page of the jobs listing. Job objects are passed through.
type JobsPage struct {
	Jobs          []json.RawMessage `json:"jobs"`
	HasMore       bool              `json:"has_more"`
	NextPageToken string            `json:"next_page_token,omitempty"`
	PrevPageToken string            `json:"prev_page_token,omitempty"`
}

// RunsPage is one page of the job runs listing.
type RunsPage struct {
	Runs          []json.RawMessage `json:"runs"`
	HasMore       bool              `json:"has_more"`
	NextPageToken string            `json:"next_page_token,omitempty"`
	PrevPageToken string            `json:"prev_page_token,omitempty"`
}

// ListJobsRequest filters the jobs listing.
type ListJobsRequest struct {
	Limit       int64
	ExpandTasks bool
	Name        string
	PageToken   string
}

// ListRunsRequest filters the runs listing.
type ListRunsRequest struct {
	JobID         *int64
	ActiveOnly    bool
	CompletedOnly bool
	Limit         int64
	PageToken     string
	RunType       string
	StartTimeFrom *int64
	StartTimeTo   *int64
}

// Job run types accepted by the runs listing.
var RunTypes = []string{"JOB_RUN", "WORKFLOW_RUN", "SUBMIT_RUN"}
