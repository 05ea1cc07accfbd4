package build

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidWorkingDirectory = errors.New("invalid working directory")
	ErrDuplicateTarget         = errors.New("duplicate target descriptor")
	ErrToolchainQuery          = errors.New("toolchain query failed")
	ErrToolchainInstall        = errors.New("toolchain install failed")
	ErrTargetExecution         = errors.New("target execution failed")
	ErrCleanup                 = errors.New("cleanup failed")
)

// Error is the failure reported to the caller for every aborted action.
//
// Kind is one of the sentinels above, so callers match with
// errors.Is(err, build.ErrTargetExecution). ExitCode is zero when no process
// exited with a status (spawn failures, I/O errors).
type Error struct {
	Kind     error
	Target   string
	Action   Action
	Path     string
	ExitCode int
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Target != "" {
		fmt.Fprintf(&b, ": target %s", e.Target)
	}
	if e.Action != "" {
		fmt.Fprintf(&b, " (%s)", e.Action)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, ": exit code %d", e.ExitCode)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// AsError extracts the *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
