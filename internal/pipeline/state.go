// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "fmt"

// State is the position of a topic in its processing sequence.
type State int

const (
	StatePending State = iota
	StateImagesFetched
	StateExplained
	StateExplainFailed
	StateCritiqued
	StateCodeGenerated
	StateAssembled
	StateWriteFailed
	StateRecorded
)

var stateNames = map[State]string{
	StatePending:       "pending",
	StateImagesFetched: "images",
	StateExplained:     "explained",
	StateExplainFailed: "explain failed",
	StateCritiqued:     "critiqued",
	StateCodeGenerated: "code generated",
	StateAssembled:     "written",
	StateWriteFailed:   "write failed",
	StateRecorded:      "recorded",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further stage follows s.
func (s State) Terminal() bool {
	return s == StateExplainFailed || s == StateWriteFailed || s == StateRecorded
}
