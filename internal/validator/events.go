package validator

import (
	"time"

	certerrors "certificate-validator/internal/errors"
)

// Stats are the running counters of a batch.
type Stats struct {
	Scanned int `json:"scanned"`
	Valid   int `json:"valid"`
	Errors  int `json:"errors"`
}

// RunResult is everything a finished batch produced. The controller merges
// it into its own state; the runner keeps no copy.
type RunResult struct {
	RunID       string                   `json:"run_id"`
	Folder      string                   `json:"folder"`
	StartedAt   time.Time                `json:"started_at"`
	FinishedAt  time.Time                `json:"finished_at"`
	Stats       Stats                    `json:"stats"`
	Errors      []certerrors.ErrorRecord `json:"errors"`
	ReportPath  string                   `json:"report_path,omitempty"`
	ReportError string                   `json:"report_error,omitempty"`
}

// Duration is how long the batch took.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Event is a progress notification sent by Runner.Run, in scan order.
type Event interface {
	eventRunID() string
}

// RunStarted is sent once, before the first file.
type RunStarted struct {
	RunID  string `json:"run_id"`
	Folder string `json:"folder"`
	// Total is the number of certificate files that will be scanned.
	Total int `json:"total"`
}

// FileScanned is sent after each certificate has been checked.
type FileScanned struct {
	RunID           string `json:"run_id"`
	Index           int    `json:"index"`
	Filename        string `json:"filename"`
	Path            string `json:"path"`
	ReferenceNumber string `json:"reference_number"`
	Result          Result `json:"result"`
}

// FileSkipped is sent when checking a file failed unexpectedly. The file
// counts as scanned but neither valid nor in error.
type FileSkipped struct {
	RunID    string `json:"run_id"`
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Reason   string `json:"reason"`
}

// StatsUpdated follows every FileScanned and FileSkipped.
type StatsUpdated struct {
	RunID string `json:"run_id"`
	Stats Stats  `json:"stats"`
	Total int    `json:"total"`
}

// ReportWriting is sent right before the error report is written. Runs
// without a report destination skip it.
type ReportWriting struct {
	RunID   string `json:"run_id"`
	Path    string `json:"path"`
	Records int    `json:"records"`
}

// RunComplete is the last event of a run, sent after the report was written.
type RunComplete struct {
	Result *RunResult `json:"result"`
}

func (e RunStarted) eventRunID() string    { return e.RunID }
func (e FileScanned) eventRunID() string   { return e.RunID }
func (e FileSkipped) eventRunID() string   { return e.RunID }
func (e StatsUpdated) eventRunID() string  { return e.RunID }
func (e ReportWriting) eventRunID() string { return e.RunID }
func (e RunComplete) eventRunID() string   { return e.Result.RunID }

// RunIDOf returns the id of the run that sent ev.
func RunIDOf(ev Event) string {
	if ev == nil {
		return ""
	}
	return ev.eventRunID()
}
