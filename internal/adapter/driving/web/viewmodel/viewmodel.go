// Package viewmodel defines presentation-ready structs for the dashboard templates.
// View models decouple template rendering from domain model types.
package viewmodel

import "html/template"

// DashboardViewModel holds everything the dashboard page renders.
type DashboardViewModel struct {
	Repository string
	CSRFToken  string
	HasCycle   bool
	Cycle      CycleViewModel
	Records    []RecordViewModel
	// RecordsError is set when the archive could not be read; the rest of the page still renders.
	RecordsError string
}

// CycleViewModel summarizes one polling cycle.
type CycleViewModel struct {
	StartedAt  string
	FinishedAt string
	Duration   string
	Threshold  string
	Changed    bool
	Merged     int
	Closed     int
	Failed     int
	Outcomes   []OutcomeViewModel
}

// OutcomeViewModel is one row of the cycle table.
type OutcomeViewModel struct {
	Number     int
	Author     string
	State      string
	StateClass string // CSS modifier: ok, bad, wait, warn.
	Votes      int
	Total      string
	Variance   string
	Approved   bool
	Contested  bool
	Window     string
	InWindow   bool
	CommitSHA  string
	Error      string
}

// RecordViewModel is one archived vote record with its rendered decision comment.
type RecordViewModel struct {
	Number     int
	Outcome    string
	HeadSHA    string
	CommitSHA  string
	Total      string
	Threshold  string
	Votes      int
	RecordedAt string
	Notice     template.HTML
}
