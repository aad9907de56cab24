// Package policy decides what a user turn means: which workflow transition
// to take and which capability the flow engine should run.
//
// The rule policy is deterministic keyword matching. It only proposes
// transitions declared in the workflow table; the engine still validates
// every move, so a policy bug cannot corrupt a session.
package policy

import (
	"context"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// Operation names a capability the engine runs for a turn.
type Operation string

const (
	OpNone             Operation = ""
	OpCollectBrand     Operation = "collect_brand"
	OpGenerateIdeas    Operation = "generate_ideas"
	OpWriteBrief       Operation = "write_brief"
	OpGenerateImage    Operation = "generate_image"
	OpGeneralImage     Operation = "general_image"
	OpEditImage        Operation = "edit_image"
	OpGenerateVideo    Operation = "generate_video"
	OpWriteCaption     Operation = "write_caption"
	OpImproveCaption   Operation = "improve_caption"
	OpSetCampaignPlan  Operation = "set_campaign_plan"
	OpExtendCampaign   Operation = "extend_campaign"
	OpPlanWeek         Operation = "plan_week"
	OpGenerateWeek     Operation = "generate_week"
	OpGenerateCarousel Operation = "generate_carousel"
	OpLookupFestivals  Operation = "lookup_festivals"
	OpLookupTrends     Operation = "lookup_trends"
)

// Decision is the outcome of interpreting one turn.
//
// Path is applied before the operation runs, in order; OnDone after it
// succeeds. Both must follow the transition table. An empty decision with
// only Reply set is a clarification: the session does not move.
type Decision struct {
	Path   []models.WorkflowState
	Op     Operation
	OnDone models.WorkflowState
	Reply  string
}

// Clarify builds a no-move decision carrying a question back to the user.
func Clarify(reply string) Decision {
	return Decision{Op: OpNone, Reply: reply}
}

// Policy interprets a user message against the current session state.
type Policy interface {
	Decide(ctx context.Context, state *models.SessionState, message string) (Decision, error)
}

// RulePolicy is the deterministic keyword implementation of Policy.
type RulePolicy struct{}

// NewRulePolicy returns the keyword rule policy.
func NewRulePolicy() *RulePolicy {
	return &RulePolicy{}
}

// Decide maps the message to a decision for the session's current state.
// It never mutates the session.
func (p *RulePolicy) Decide(ctx context.Context, state *models.SessionState, message string) (Decision, error) {
	if message == "" {
		return Decision{}, models.ErrEmptyMessage
	}

	// Informational lookups answer in place from any state past brand setup,
	// but only when the message is not itself a generation request.
	if state.Brand.IsComplete() && !wantsGeneration(message) {
		if containsAny(message, "festival", "festivals", "holiday", "holidays", "occasion", "occasions") {
			return Decision{Op: OpLookupFestivals}, nil
		}
		if containsAny(message, "trending", "trends", "trend") {
			return Decision{Op: OpLookupTrends}, nil
		}
	}

	// The brand gate: nothing generates until the brand has a name.
	if !state.Brand.IsComplete() {
		switch state.WorkflowState {
		case models.StateStart:
			return Decision{Path: []models.WorkflowState{models.StateBrandSetup}, Op: OpCollectBrand}, nil
		case models.StateBrandSetup:
			return Decision{Op: OpCollectBrand}, nil
		default:
			return Clarify("Let's set up your brand first. What's your brand called?"), nil
		}
	}

	switch state.WorkflowState {
	case models.StateStart:
		return Decision{Path: []models.WorkflowState{models.StateBrandSetup}, Op: OpCollectBrand}, nil
	case models.StateBrandSetup:
		return Decision{Op: OpCollectBrand}, nil
	case models.StateBrandComplete:
		return Decision{Path: []models.WorkflowState{models.StateModeSelection}, Reply: modeMenu}, nil
	case models.StateModeSelection:
		return p.decideMode(message), nil

	case models.StateGeneralImagePrompt:
		return Decision{
			Path:   []models.WorkflowState{models.StateGeneralImageGenerating},
			Op:     OpGeneralImage,
			OnDone: models.StateImageGenerated,
		}, nil

	case models.StatePostIdeaSource:
		if wantsIdeas(message) {
			return Decision{
				Path:   []models.WorkflowState{models.StateIdeaRequest},
				Op:     OpGenerateIdeas,
				OnDone: models.StateIdeasShown,
			}, nil
		}
		return Decision{
			Path:   []models.WorkflowState{models.StatePostBriefGeneration},
			Op:     OpWriteBrief,
			OnDone: models.StateBriefShown,
		}, nil

	case models.StateIdeasShown:
		if wantsIdeas(message) || isNegative(message) {
			return Decision{
				Path:   []models.WorkflowState{models.StateIdeaRequest},
				Op:     OpGenerateIdeas,
				OnDone: models.StateIdeasShown,
			}, nil
		}
		if _, ok := ParseIdeaChoice(message); ok {
			return Decision{
				Path:   []models.WorkflowState{models.StateIdeaSelected, models.StatePostBriefGeneration},
				Op:     OpWriteBrief,
				OnDone: models.StateBriefShown,
			}, nil
		}
		return Clarify("Which idea would you like? Reply with its number, or ask for more ideas."), nil

	case models.StateBriefShown:
		if isAffirmative(message) {
			return Decision{
				Path:   []models.WorkflowState{models.StateBriefApproved, models.StatePostGenerating},
				Op:     OpGenerateImage,
				OnDone: models.StateImageGenerated,
			}, nil
		}
		if isNegative(message) {
			return Decision{
				Path:   []models.WorkflowState{models.StateIdeaSelected, models.StatePostBriefGeneration},
				Op:     OpWriteBrief,
				OnDone: models.StateBriefShown,
			}, nil
		}
		return Clarify("Shall I go ahead with this visual, or would you like changes?"), nil

	case models.StateImageGenerated:
		return p.decideAfterImage(state, message), nil

	case models.StateAnimationChoice:
		if isNegative(message) || containsAny(message, "skip", "no video") {
			return Decision{
				Path:   []models.WorkflowState{models.StateCaptionRequest},
				Op:     OpWriteCaption,
				OnDone: models.StateCaptionGenerated,
			}, nil
		}
		return Decision{
			Op:     OpGenerateVideo,
			OnDone: models.StateAnimationGenerated,
		}, nil

	case models.StateAnimationGenerated:
		return Decision{
			Path:   []models.WorkflowState{models.StateCaptionRequest},
			Op:     OpWriteCaption,
			OnDone: models.StateCaptionGenerated,
		}, nil

	case models.StateCaptionRequest:
		return Decision{
			Op:     OpWriteCaption,
			OnDone: models.StateCaptionGenerated,
		}, nil

	case models.StateCaptionGenerated:
		if containsAny(message, "improve", "shorter", "longer", "rewrite", "change", "tweak") {
			return Decision{Op: OpImproveCaption}, nil
		}
		if wantsAnotherRound(message) {
			return Decision{Path: []models.WorkflowState{models.StateModeSelection}, Reply: modeMenu}, nil
		}
		return Decision{Path: []models.WorkflowState{models.StateComplete}, Reply: "All done. Your post is ready to publish."}, nil

	case models.StateCampaignSetup:
		return Decision{
			Path: []models.WorkflowState{models.StateCampaignDetailsSet},
			Op:   OpSetCampaignPlan,
		}, nil

	case models.StateCampaignDetailsSet:
		if wantsIdeas(message) {
			return Decision{
				Path:   []models.WorkflowState{models.StateCampaignIdeaSource},
				Op:     OpGenerateIdeas,
				OnDone: models.StateCampaignIdeasGenerated,
			}, nil
		}
		return Decision{
			Path:   []models.WorkflowState{models.StateWeekPlanning},
			Op:     OpPlanWeek,
			OnDone: models.StateWeekPresented,
		}, nil

	case models.StateCampaignIdeasGenerated:
		return Decision{
			Path:   []models.WorkflowState{models.StateWeekPlanning},
			Op:     OpPlanWeek,
			OnDone: models.StateWeekPresented,
		}, nil

	case models.StateWeekPresented:
		if isAffirmative(message) {
			return Decision{
				Path:   []models.WorkflowState{models.StateWeekApproved, models.StateWeekGenerating},
				Op:     OpGenerateWeek,
				OnDone: models.StateWeekComplete,
			}, nil
		}
		if isNegative(message) {
			return Decision{
				Path:   []models.WorkflowState{models.StateWeekPlanning},
				Op:     OpPlanWeek,
				OnDone: models.StateWeekPresented,
			}, nil
		}
		return Clarify("Should I generate this week's posts, or rework the plan?"), nil

	case models.StateWeekComplete:
		return p.decideWeekComplete(state, message), nil

	case models.StateCampaignComplete:
		if wantsAnotherRound(message) {
			return Decision{Path: []models.WorkflowState{models.StateModeSelection}, Reply: modeMenu}, nil
		}
		return Decision{Path: []models.WorkflowState{models.StateComplete}, Reply: "Campaign wrapped. Great work."}, nil

	case models.StateCarouselSetup:
		return Decision{
			Path:   []models.WorkflowState{models.StateCarouselGenerating},
			Op:     OpGenerateCarousel,
			OnDone: models.StateCarouselComplete,
		}, nil

	case models.StateCarouselComplete:
		if wantsAnotherRound(message) {
			return Decision{Path: []models.WorkflowState{models.StateModeSelection}, Reply: modeMenu}, nil
		}
		return Decision{Path: []models.WorkflowState{models.StateComplete}, Reply: "Carousel complete."}, nil

	case models.StateComplete:
		return Decision{Path: []models.WorkflowState{models.StateModeSelection}, Reply: modeMenu}, nil
	case models.StateError:
		return Decision{Path: []models.WorkflowState{models.StateModeSelection}, Reply: modeMenu}, nil
	}

	return Clarify("I didn't catch that. " + modeMenu), nil
}

const modeMenu = "What would you like to create? A single post, a campaign, a carousel, or a quick image?"

// decideMode routes a mode-selection message to one of the four flows.
func (p *RulePolicy) decideMode(message string) Decision {
	switch {
	case containsAny(message, "campaign", "month of", "weekly plan"):
		return Decision{
			Path:  []models.WorkflowState{models.StateCampaignSetup},
			Reply: "Which month is this campaign for, and how many posts per week?",
		}
	case containsAny(message, "carousel", "slides", "multi-image"):
		return Decision{
			Path:  []models.WorkflowState{models.StateCarouselSetup},
			Reply: "What's the carousel about, and how many slides?",
		}
	case containsAny(message, "quick image", "just an image", "general image", "one image"):
		return Decision{
			Path:  []models.WorkflowState{models.StateGeneralImagePrompt},
			Reply: "Describe the image you'd like.",
		}
	case wantsIdeas(message):
		return Decision{
			Path:   []models.WorkflowState{models.StateIdeaRequest},
			Op:     OpGenerateIdeas,
			OnDone: models.StateIdeasShown,
		}
	case containsAny(message, "post", "single"):
		return Decision{
			Path:  []models.WorkflowState{models.StatePostIdeaSource},
			Reply: "Do you have a post idea in mind, or should I suggest some?",
		}
	default:
		return Clarify(modeMenu)
	}
}

// decideAfterImage handles the branch point after an image is produced.
func (p *RulePolicy) decideAfterImage(state *models.SessionState, message string) Decision {
	switch {
	case containsAny(message, "edit", "fix", "adjust", "remove", "brighter", "darker", "warmer"):
		return Decision{
			Path:   []models.WorkflowState{models.StatePostEditRequested, models.StatePostEditing},
			Op:     OpEditImage,
			OnDone: models.StateImageGenerated,
		}
	case containsAny(message, "animate", "video", "motion"):
		return Decision{
			Path:  []models.WorkflowState{models.StateAnimationChoice},
			Reply: "What kind of motion? Describe it, or say skip to go straight to the caption.",
		}
	case containsAny(message, "caption", "text", "hashtag"):
		return Decision{
			Path:   []models.WorkflowState{models.StateCaptionRequest},
			Op:     OpWriteCaption,
			OnDone: models.StateCaptionGenerated,
		}
	case wantsAnotherRound(message):
		return Decision{Path: []models.WorkflowState{models.StateModeSelection}, Reply: modeMenu}
	case containsAny(message, "done", "finish", "that's all", "thanks"):
		return Decision{Path: []models.WorkflowState{models.StateComplete}, Reply: "All done. Your post is ready."}
	default:
		return Clarify("You can edit the image, animate it, add a caption, start something new, or say done.")
	}
}

// decideWeekComplete routes the end-of-week branch: continue, extend or stop.
func (p *RulePolicy) decideWeekComplete(state *models.SessionState, message string) Decision {
	if add, ok := ParseExtension(message); ok && add > 0 {
		return Decision{Op: OpExtendCampaign}
	}
	campaignDone := len(state.Campaign.CompletedWeeks) >= state.Campaign.TotalWeeks
	if containsAny(message, "stop", "done", "finish", "enough") {
		return Decision{Path: []models.WorkflowState{models.StateComplete}, Reply: "Stopping here. The finished weeks are saved."}
	}
	if campaignDone {
		return Decision{
			Path:  []models.WorkflowState{models.StateCampaignComplete},
			Reply: "That was the final week. The campaign is complete.",
		}
	}
	return Decision{
		Path:   []models.WorkflowState{models.StateCampaignNextWeek, models.StateWeekPlanning},
		Op:     OpPlanWeek,
		OnDone: models.StateWeekPresented,
	}
}
