// Package companion is the sauna companion's state machine: the catalog of
// screens, the pure transition table between them and the runtime that binds
// timers, sensor feeds, narration and persistence to the current screen.
package companion

import (
	"fmt"
	"strings"
)

// Flow selects the entry point and reset target. Both transition tables are
// always active.
type Flow string

const (
	FlowClassic Flow = "classic"
	FlowCoached Flow = "coached"
)

// ParseFlow accepts "classic" and "coached" in any case.
func ParseFlow(s string) (Flow, error) {
	switch Flow(strings.ToLower(strings.TrimSpace(s))) {
	case FlowClassic, "":
		return FlowClassic, nil
	case FlowCoached:
		return FlowCoached, nil
	default:
		return "", fmt.Errorf("unknown companion flow %q", s)
	}
}

// Initial is the first state of the flow.
func (f Flow) Initial() State {
	if f == FlowCoached {
		return StartPointState{}
	}
	return WelcomeState{}
}
