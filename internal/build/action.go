package build

import (
	"fmt"
	"strings"
)

// Action is the generic operation requested of every target.
type Action string

const (
	ActionBuild Action = "build"
	ActionTest  Action = "test"
	ActionRun   Action = "run"
	ActionClean Action = "clean"
)

// Actions lists every known action in display order.
func Actions() []Action {
	return []Action{ActionBuild, ActionTest, ActionRun, ActionClean}
}

// ParseAction converts a user-supplied name into an Action.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Actions() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// UsesToolchain reports whether the action is executed through the targets'
// commands. Clean only removes output directories.
func (a Action) UsesToolchain() bool {
	return a != ActionClean
}

func (a Action) String() string {
	return string(a)
}
