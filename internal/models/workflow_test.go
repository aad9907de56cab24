package models

import "testing"

func TestIsValidTransition_Declared(t *testing.T) {
	cases := []struct {
		from, to WorkflowState
		want     bool
	}{
		{StateStart, StateBrandSetup, true},
		{StateBrandSetup, StateModeSelection, true},
		{StateModeSelection, StateCampaignSetup, true},
		{StateBriefApproved, StatePostGenerating, true},
		{StatePostGenerating, StateImageGenerated, true},
		{StateComplete, StateModeSelection, true},
		{StateError, StateStart, true},
		// undeclared jumps
		{StateStart, StateImageGenerated, false},
		{StateBrandSetup, StateCaptionRequest, false},
		{StateIdeaRequest, StateBriefApproved, false},
		{StateWeekPlanning, StateCampaignComplete, false},
	}
	for _, c := range cases {
		if got := IsValidTransition(c.from, c.to); got != c.want {
			t.Errorf("IsValidTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestValidNextStates_UnknownStateReturnsEmpty(t *testing.T) {
	next := ValidNextStates(WorkflowState("no_such_state"))
	if len(next) != 0 {
		t.Errorf("expected empty successor set for unknown state, got %v", next)
	}
}

// Every state reachable from START must have at least one outgoing
// transition; a silent dead end is a table defect. COMPLETE and ERROR are
// the designed sinks but both loop back to MODE_SELECTION, so even they
// must be non-empty here.
func TestTransitionClosure_NoDeadEnds(t *testing.T) {
	visited := map[WorkflowState]bool{}
	queue := []WorkflowState{StateStart}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if visited[s] {
			continue
		}
		visited[s] = true
		next := ValidNextStates(s)
		if len(next) == 0 {
			t.Errorf("state %s reachable from START has no outgoing transitions", s)
		}
		queue = append(queue, next...)
	}
	// sanity: the whole table should be reachable
	for _, s := range AllWorkflowStates() {
		if !visited[s] && s != StateError {
			t.Errorf("state %s is declared but unreachable from START", s)
		}
	}
}

// IMAGE_GENERATED must only be enterable through the declared shortcuts:
// the generating states, the edit loop, and the brief-approved fast path.
func TestNoBackDoorIntoImageGenerated(t *testing.T) {
	allowed := map[WorkflowState]bool{
		StatePostGenerating:         true,
		StateGeneralImageGenerating: true,
		StatePostEditing:            true,
		StateBriefApproved:          true,
	}
	for _, s := range AllWorkflowStates() {
		if IsValidTransition(s, StateImageGenerated) && !allowed[s] {
			t.Errorf("unexpected edge into IMAGE_GENERATED from %s", s)
		}
	}
	for s := range allowed {
		if !IsValidTransition(s, StateImageGenerated) {
			t.Errorf("expected edge %s -> IMAGE_GENERATED missing", s)
		}
	}
}

func TestAllTransitionTargetsAreDeclaredStates(t *testing.T) {
	for _, s := range AllWorkflowStates() {
		for _, next := range ValidNextStates(s) {
			if !IsValidWorkflowState(next) {
				t.Errorf("state %s declares transition to unknown state %s", s, next)
			}
		}
	}
}
