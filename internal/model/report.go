package model

import "time"

// TaskReport is the outcome of crawling one SearchTask.
// Pipeline steps fill it in as they run; it is never nil once a task starts.
type TaskReport struct {
	// Task is the (organization, city) pair this report belongs to.
	Task SearchTask `json:"task"`

	// StartedAt is the time the first step began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall time spent on the task.
	Duration time.Duration `json:"duration"`

	// Links are the location links discovered for the query, in page order.
	Links []LocationLink `json:"links,omitempty"`

	// DiscoveryTimedOut is true when no result marker appeared in time.
	DiscoveryTimedOut bool `json:"discovery_timed_out,omitempty"`

	// ScrollTruncated is true when the result list hit its scroll bound.
	ScrollTruncated bool `json:"scroll_truncated,omitempty"`

	// Skipped counts links already visited earlier in the run.
	Skipped int `json:"skipped"`

	// Locations holds one record per successfully extracted location.
	Locations []LocationRecord `json:"locations,omitempty"`

	// Failures lists links whose detail page could not be used.
	Failures []LinkFailure `json:"failures,omitempty"`

	// Rows is the number of output rows appended for this task.
	Rows int `json:"rows"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the error that stopped the task, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as a string for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// Cancelled is true when the run was cancelled while this task ran.
	Cancelled bool `json:"cancelled,omitempty"`
}

// LocationRecord summarizes one extracted location.
type LocationRecord struct {
	Link        string    `json:"link"`
	Location    *Location `json:"location"`
	ReviewCount int       `json:"review_count"`

	// ReviewsTruncated is true when the review list hit its scroll bound.
	ReviewsTruncated bool `json:"reviews_truncated,omitempty"`
}

// LinkFailure records a link that was visited but produced no location.
type LinkFailure struct {
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// NewTaskReport creates an empty report for task.
func NewTaskReport(task SearchTask) *TaskReport {
	return &TaskReport{
		Task:      task,
		StartedAt: time.Now(),
	}
}

// Visited returns the number of links this task navigated to.
func (r *TaskReport) Visited() int {
	return len(r.Locations) + len(r.Failures)
}

// RunSummary aggregates the task reports of one crawl run.
type RunSummary struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Tasks      []*TaskReport `json:"tasks"`

	// Totals over all tasks.
	TotalLinks     int `json:"total_links"`
	TotalLocations int `json:"total_locations"`
	TotalSkipped   int `json:"total_skipped"`
	TotalFailures  int `json:"total_failures"`
	TotalRows      int `json:"total_rows"`

	// Error is the fatal error that ended the run early, if any.
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunSummary creates an empty summary stamped with the current time.
func NewRunSummary() *RunSummary {
	return &RunSummary{StartedAt: time.Now()}
}

// Finalize computes totals from the task reports and records err.
// Nil entries (tasks that never started) are dropped.
func (s *RunSummary) Finalize(err error) {
	s.FinishedAt = time.Now()
	tasks := s.Tasks[:0]
	for _, t := range s.Tasks {
		if t != nil {
			tasks = append(tasks, t)
		}
	}
	s.Tasks = tasks

	s.TotalLinks, s.TotalLocations, s.TotalSkipped, s.TotalFailures, s.TotalRows = 0, 0, 0, 0, 0
	for _, t := range s.Tasks {
		s.TotalLinks += len(t.Links)
		s.TotalLocations += len(t.Locations)
		s.TotalSkipped += t.Skipped
		s.TotalFailures += len(t.Failures)
		s.TotalRows += t.Rows
	}

	s.Error = err
	if err != nil {
		s.ErrorMessage = err.Error()
	}
}

// Duration returns the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
