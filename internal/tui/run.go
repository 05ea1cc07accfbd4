package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until both the program and workFn have returned. When the
// program quits first, the model's abort hook is called so the work winds
// down instead of running on unseen.
func RunWithWork(out io.Writer, model ProgressModel, workFn func(send func(tea.Msg)) error, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)...)

	workErr := make(chan error, 1)
	go func() {
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		err := workFn(func(msg tea.Msg) {
			p.Send(msg)
			time.Sleep(5 * time.Millisecond)
		})
		workErr <- err
		p.Send(WorkDoneMsg{})
	}()

	finalModel, runErr := p.Run()
	m, ok := finalModel.(ProgressModel)
	if !ok {
		m = model
	}

	var err error
	quitEarly := false
	select {
	case err = <-workErr:
	default:
		quitEarly = true
		if model.abort != nil {
			model.abort()
		}
		err = <-workErr
	}

	if err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if quitEarly && m.Interrupted() {
		return ErrInterrupted
	}
	return nil
}
