package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"cargowrap/internal/engine"
)

// ErrInterrupted is returned when the user quits the progress display
// before the work finishes.
var ErrInterrupted = errors.New("interrupted")

// Target table columns.
const (
	ColTarget  = "TARGET"
	ColCommand = "COMMAND"
	ColStatus  = "STATUS"
	ColTime    = "TIME"
)

// TargetColumns is the layout used by build, test and run.
func TargetColumns() []Column {
	return []Column{
		{Header: ColTarget, Width: 28},
		{Header: ColCommand, Width: 44},
		{Header: ColStatus, Width: 10},
		{Header: ColTime, Width: 8},
	}
}

// NewTargetModel builds a progress model with one pending row per step.
func NewTargetModel(title string, steps []engine.Step) ProgressModel {
	m := NewProgressModel(title, TargetColumns())
	for _, step := range steps {
		m.AddRow(step.Target.Triple, []string{step.Target.Triple, step.CommandLine, "pending", ""})
	}
	return m
}

// EngineReporter adapts bubbletea message sending to engine.Reporter.
type EngineReporter struct {
	send func(tea.Msg)
}

// NewEngineReporter constructs a reporter that forwards updates to send.
func NewEngineReporter(send func(tea.Msg)) *EngineReporter {
	return &EngineReporter{send: send}
}

// Start implements engine.Reporter.
func (r *EngineReporter) Start(step engine.Step) {
	r.send(FooterMsg{})
	r.send(RowUpdateMsg{
		Key:    step.Target.Triple,
		Fields: map[string]string{ColStatus: "running"},
	})
}

// Complete implements engine.Reporter.
func (r *EngineReporter) Complete(step engine.Step, res engine.Result) {
	fields := map[string]string{ColStatus: string(res.Status)}
	if res.Duration > 0 {
		fields[ColTime] = FormatElapsed(res.Duration)
	}
	if res.Status == engine.StatusFailed && res.ExitCode != 0 {
		fields[ColStatus] = fmt.Sprintf("failed (%d)", res.ExitCode)
	}
	r.send(RowUpdateMsg{Key: step.Target.Triple, Fields: fields})
}

var _ engine.Reporter = (*EngineReporter)(nil)
