// Package models defines the core data structures for Content Studio.
//
// It includes the workflow state machine, the per-session context objects,
// and the shared API response types used across modules.
package models

// WorkflowState represents a named position in the multi-turn creative
// pipeline. The string values are the wire format used in serialized
// sessions and must stay stable.
type WorkflowState string

// Common states.
const (
	StateStart         WorkflowState = "start"
	StateBrandSetup    WorkflowState = "brand_setup"
	StateBrandComplete WorkflowState = "brand_complete"
	StateModeSelection WorkflowState = "mode_selection"
	StateComplete      WorkflowState = "complete"
	StateError         WorkflowState = "error"
)

// General image flow (quick path, no full workflow).
const (
	StateGeneralImagePrompt     WorkflowState = "general_image_prompt"
	StateGeneralImageGenerating WorkflowState = "general_image_gen"
)

// Single post flow.
const (
	StatePostIdeaSource      WorkflowState = "post_idea_source"
	StateIdeaRequest         WorkflowState = "idea_request"
	StateIdeasShown          WorkflowState = "ideas_shown"
	StateIdeaSelected        WorkflowState = "idea_selected"
	StatePostBriefGeneration WorkflowState = "post_brief_gen"
	StateBriefShown          WorkflowState = "brief_shown"
	StateBriefApproved       WorkflowState = "brief_approved"
	StatePostGenerating      WorkflowState = "post_generating"
	StateImageGenerated      WorkflowState = "image_generated"
	StatePostEditRequested   WorkflowState = "post_edit_req"
	StatePostEditing         WorkflowState = "post_editing"
	StateAnimationChoice     WorkflowState = "animation_choice"
	StateAnimationGenerated  WorkflowState = "animation_generated"
	StateCaptionRequest      WorkflowState = "caption_request"
	StateCaptionGenerated    WorkflowState = "caption_generated"
)

// Campaign flow.
const (
	StateCampaignSetup          WorkflowState = "campaign_setup"
	StateCampaignDetailsSet     WorkflowState = "campaign_details_set"
	StateCampaignIdeaSource     WorkflowState = "campaign_idea_src"
	StateCampaignIdeasGenerated WorkflowState = "campaign_ideas"
	StateWeekPlanning           WorkflowState = "week_planning"
	StateWeekPresented          WorkflowState = "week_presented"
	StateWeekApproved           WorkflowState = "week_approved"
	StateWeekGenerating         WorkflowState = "week_generating"
	StateWeekComplete           WorkflowState = "week_complete"
	StateCampaignNextWeek       WorkflowState = "campaign_next_week"
	StateCampaignComplete       WorkflowState = "campaign_complete"
)

// Carousel flow.
const (
	StateCarouselSetup      WorkflowState = "carousel_setup"
	StateCarouselGenerating WorkflowState = "carousel_gen"
	StateCarouselComplete   WorkflowState = "carousel_complete"
)

// validTransitions is the single source of truth for legal state changes.
// No component may hardcode state-pair logic outside this table.
var validTransitions = map[WorkflowState][]WorkflowState{
	StateStart:         {StateBrandSetup},
	StateBrandSetup:    {StateBrandComplete, StateModeSelection},
	StateBrandComplete: {StateModeSelection},
	StateModeSelection: {
		StatePostIdeaSource,
		StateGeneralImagePrompt,
		StateCampaignSetup,
		StateCarouselSetup,
		StateIdeaRequest,
	},

	StateGeneralImagePrompt:     {StateGeneralImageGenerating},
	StateGeneralImageGenerating: {StateImageGenerated},

	StatePostIdeaSource: {
		StateIdeaRequest,         // user wants suggestions
		StatePostBriefGeneration, // user has their own idea
	},
	StateIdeaRequest:         {StateIdeasShown},
	StateIdeasShown:          {StateIdeaSelected, StateIdeaRequest},
	StateIdeaSelected:        {StatePostBriefGeneration, StateBriefShown},
	StatePostBriefGeneration: {StateBriefShown},
	StateBriefShown:          {StateBriefApproved, StateIdeaSelected},
	StateBriefApproved:       {StatePostGenerating, StateImageGenerated},
	StatePostGenerating:      {StateImageGenerated},
	StateImageGenerated: {
		StatePostEditRequested,
		StateAnimationChoice,
		StateCaptionRequest,
		StateComplete,
		StateModeSelection,
	},
	StatePostEditRequested:  {StatePostEditing},
	StatePostEditing:        {StateImageGenerated},
	StateAnimationChoice:    {StateAnimationGenerated, StateCaptionRequest},
	StateAnimationGenerated: {StateCaptionRequest},
	StateCaptionRequest:     {StateCaptionGenerated},
	StateCaptionGenerated:   {StateComplete, StateModeSelection},

	StateCampaignSetup:          {StateCampaignDetailsSet},
	StateCampaignDetailsSet:     {StateCampaignIdeaSource, StateWeekPlanning},
	StateCampaignIdeaSource:     {StateCampaignIdeasGenerated, StateWeekPlanning},
	StateCampaignIdeasGenerated: {StateWeekPlanning},
	StateWeekPlanning:           {StateWeekPresented, StateWeekApproved},
	StateWeekPresented:          {StateWeekApproved, StateWeekPlanning},
	StateWeekApproved:           {StateWeekGenerating, StatePostGenerating},
	StateWeekGenerating:         {StateWeekComplete},
	StateWeekComplete: {
		StateCampaignNextWeek,
		StateCampaignComplete,
		StateWeekPlanning,
		StateComplete,
	},
	StateCampaignNextWeek: {StateWeekPlanning},
	StateCampaignComplete: {StateComplete, StateModeSelection},

	StateCarouselSetup:      {StateCarouselGenerating},
	StateCarouselGenerating: {StateCarouselComplete},
	StateCarouselComplete:   {StateComplete, StateModeSelection},

	StateComplete: {StateModeSelection},
	StateError:    {StateModeSelection, StateStart},
}

// IsValidTransition reports whether from may legally transition to to.
// It is a pure lookup against the transition table.
func IsValidTransition(from, to WorkflowState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidNextStates returns the declared successor set of state in table
// order. An unknown or unmapped state yields an empty slice rather than
// an error, signaling "terminal or misconfigured".
func ValidNextStates(state WorkflowState) []WorkflowState {
	next := validTransitions[state]
	out := make([]WorkflowState, len(next))
	copy(out, next)
	return out
}

// AllWorkflowStates returns every state declared in the transition table.
// Used by reachability and closure tests.
func AllWorkflowStates() []WorkflowState {
	states := make([]WorkflowState, 0, len(validTransitions))
	for s := range validTransitions {
		states = append(states, s)
	}
	return states
}

// IsValidWorkflowState reports whether s is a declared workflow state.
func IsValidWorkflowState(s WorkflowState) bool {
	_, ok := validTransitions[s]
	return ok
}
