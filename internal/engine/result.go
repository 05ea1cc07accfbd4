package engine

import (
	"time"

	"cargowrap/internal/build"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	// StatusSkipped marks targets that never ran because an earlier one
	// failed or the run was interrupted.
	StatusSkipped Status = "skipped"
	StatusPlanned Status = "planned"
)

// Step is one target invocation.
type Step struct {
	Index       int
	Total       int
	Target      build.Target
	Action      build.Action
	Args        []string
	CommandLine string
}

// Result is the outcome of one step.
type Result struct {
	Target   string        `json:"target"`
	Action   build.Action  `json:"action"`
	Command  string        `json:"command"`
	Args     []string      `json:"args"`
	Status   Status        `json:"status"`
	ExitCode int           `json:"exit_code,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Stderr   []byte        `json:"-"`
	Err      error         `json:"-"`
}

// Summary collects the results of one Run in execution order.
type Summary struct {
	Action  build.Action `json:"action"`
	Results []Result     `json:"results"`
}

// Failed returns the failing result, if any.
func (s Summary) Failed() (Result, bool) {
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			return r, true
		}
	}
	return Result{}, false
}

// Count returns how many results have the given status.
func (s Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Reporter receives progress updates from the engine.
type Reporter interface {
	Start(step Step)
	Complete(step Step, res Result)
}
