package pipeline

import "time"

// RunResult summarizes one completed pipeline run
type RunResult struct {
	RunID    string
	Job      string
	Rows     int
	Outputs  []string
	Started  time.Time
	Duration time.Duration
}
