// Package models defines context state structures for Content Studio sessions.
package models

import (
	"fmt"
	"strings"
	"time"
)

// UsageIntent tags a user-uploaded image with how it should be used in
// generation. The vocabulary is closed: unknown intents are inert, not fatal.
type UsageIntent string

const (
	// IntentBackground uses the image as a background.
	IntentBackground UsageIntent = "background"
	// IntentProductFocus shows the product prominently in the foreground.
	IntentProductFocus UsageIntent = "product_focus"
	// IntentTeamPeople includes people or a team in the composition.
	IntentTeamPeople UsageIntent = "team_people"
	// IntentStyleReference informs aesthetics only; never composited directly.
	IntentStyleReference UsageIntent = "style_reference"
	// IntentLogoBadge overlays the image as a logo or badge.
	IntentLogoBadge UsageIntent = "logo_badge"
	// IntentAuto lets the generator decide placement.
	IntentAuto UsageIntent = "auto"
)

// UserImageIntents lists the closed usage-intent vocabulary.
var UserImageIntents = []UsageIntent{
	IntentBackground,
	IntentProductFocus,
	IntentTeamPeople,
	IntentStyleReference,
	IntentLogoBadge,
	IntentAuto,
}

// IsValidUsageIntent reports whether intent is part of the closed vocabulary.
func IsValidUsageIntent(intent UsageIntent) bool {
	for _, v := range UserImageIntents {
		if v == intent {
			return true
		}
	}
	return false
}

// UserImage is a single user-uploaded image attached to the brand.
type UserImage struct {
	ID              string      `json:"id"`
	Filename        string      `json:"filename"`
	Path            string      `json:"path"`
	URL             string      `json:"url,omitempty"`
	UploadedAt      string      `json:"uploaded_at,omitempty"`
	UsageIntent     UsageIntent `json:"usage_intent"`
	ExtractedColors []string    `json:"extracted_colors,omitempty"`
}

// BrandContext holds the brand identity supplied once per session. It is
// populated incrementally during brand setup and read-only afterwards.
type BrandContext struct {
	Name            string      `json:"name"`
	Industry        string      `json:"industry"`
	Overview        string      `json:"overview"`
	Tone            string      `json:"tone"`
	LogoPath        string      `json:"logo_path,omitempty"`
	Colors          []string    `json:"colors,omitempty"` // hex values, first is primary
	ReferenceImages []string    `json:"reference_images,omitempty"`
	UserImages      []UserImage `json:"user_images,omitempty"`
}

// DefaultBrandTone is applied when no tone has been chosen.
const DefaultBrandTone = "creative"

// NewBrandContext returns an empty brand context with the default tone.
func NewBrandContext() BrandContext {
	return BrandContext{Tone: DefaultBrandTone}
}

// IsComplete reports whether the basic brand info is set. A non-empty name
// is the single gate that unblocks mode selection.
func (b *BrandContext) IsComplete() bool {
	return b.Name != ""
}

// ImagesForGeneration returns the uploaded images intended for direct use in
// post generation, excluding style references.
func (b *BrandContext) ImagesForGeneration() []UserImage {
	var out []UserImage
	for _, img := range b.UserImages {
		if img.UsageIntent != IntentStyleReference {
			out = append(out, img)
		}
	}
	return out
}

// StyleReferenceImages returns the style-reference uploads plus the legacy
// flat reference image paths, expressed uniformly as UserImage values.
func (b *BrandContext) StyleReferenceImages() []UserImage {
	var out []UserImage
	for _, img := range b.UserImages {
		if img.UsageIntent == IntentStyleReference {
			out = append(out, img)
		}
	}
	for _, p := range b.ReferenceImages {
		out = append(out, UserImage{Path: p, UsageIntent: IntentStyleReference})
	}
	return out
}

// UserImagesByIntent filters uploads by exact intent match. An intent outside
// the vocabulary simply yields an empty result.
func (b *BrandContext) UserImagesByIntent(intent UsageIntent) []UserImage {
	var out []UserImage
	for _, img := range b.UserImages {
		if img.UsageIntent == intent {
			out = append(out, img)
		}
	}
	return out
}

// Idea is a selected post idea. Typed fields replace the reference
// implementation's open dictionary.
type Idea struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	TargetSegment string `json:"target_segment,omitempty"`
	Occasion      string `json:"occasion,omitempty"`
}

// VisualBrief describes the image to be generated for a post.
type VisualBrief struct {
	Headline     string `json:"headline"`
	Subtext      string `json:"subtext,omitempty"`
	CTA          string `json:"cta,omitempty"`
	Scene        string `json:"scene,omitempty"`
	GreetingText string `json:"greeting_text,omitempty"`
}

// IsZero reports whether the brief carries no content.
func (v VisualBrief) IsZero() bool {
	return v == VisualBrief{}
}

// PostContext is the mutable scratch state for the single post currently
// being produced. It must be reset at every new-post boundary.
type PostContext struct {
	Theme          string       `json:"theme,omitempty"`
	CandidateIdeas []Idea       `json:"candidate_ideas,omitempty"`
	SelectedIdea   *Idea        `json:"selected_idea,omitempty"`
	VisualBrief    *VisualBrief `json:"visual_brief,omitempty"`
	ImagePath      string       `json:"image_path,omitempty"`
	AnimationStyle string       `json:"animation_style,omitempty"`
	VideoPath      string       `json:"video_path,omitempty"`
	CarouselPaths  []string     `json:"carousel_paths,omitempty"`
	Caption        string       `json:"caption,omitempty"`
	Hashtags       []string     `json:"hashtags,omitempty"`
}

// Reset clears the post context to its defaults for a new post. Stale fields
// from a previous post must never leak into a new one.
func (p *PostContext) Reset() {
	*p = PostContext{}
}

// Campaign limits. Eight weeks is two months of planning, the practical
// ceiling before briefs go stale.
const (
	MaxPostsPerWeek      = 5
	MaxCampaignWeeks     = 8
	DefaultPostsPerWeek  = 2
	DefaultCampaignWeeks = 4
	WeeksPerMonth        = 4
)

// CampaignPost records one generated post inside a campaign.
type CampaignPost struct {
	Week      int    `json:"week"`
	Theme     string `json:"theme,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// CampaignContext tracks a multi-week campaign in progress.
type CampaignContext struct {
	Month          string         `json:"month,omitempty"`
	PostsPerWeek   int            `json:"posts_per_week"`
	TotalWeeks     int            `json:"total_weeks"`
	CurrentWeek    int            `json:"current_week"`
	CompletedWeeks []int          `json:"completed_weeks,omitempty"`
	PostsGenerated []CampaignPost `json:"posts_generated,omitempty"`
}

// NewCampaignContext returns a campaign context with default pacing.
func NewCampaignContext() CampaignContext {
	return CampaignContext{
		PostsPerWeek: DefaultPostsPerWeek,
		TotalWeeks:   DefaultCampaignWeeks,
		CurrentWeek:  1,
	}
}

// Reset clears the campaign back to its defaults.
func (c *CampaignContext) Reset() {
	*c = NewCampaignContext()
}

// SetSchedule sets the campaign pacing, clamping both values to their policy
// ceilings. Values below one are raised to one.
func (c *CampaignContext) SetSchedule(postsPerWeek, totalWeeks int) {
	if postsPerWeek < 1 {
		postsPerWeek = 1
	}
	if postsPerWeek > MaxPostsPerWeek {
		postsPerWeek = MaxPostsPerWeek
	}
	if totalWeeks < 1 {
		totalWeeks = 1
	}
	if totalWeeks > MaxCampaignWeeks {
		totalWeeks = MaxCampaignWeeks
	}
	c.PostsPerWeek = postsPerWeek
	c.TotalWeeks = totalWeeks
	if c.CurrentWeek < 1 {
		c.CurrentWeek = 1
	}
}

// ExtendWeeks grows the campaign by additional weeks. Unlike the initial
// schedule, an explicit extension past the ceiling is rejected rather than
// clamped so the caller can tell the user why.
func (c *CampaignContext) ExtendWeeks(additional int) error {
	if additional < 1 {
		return fmt.Errorf("extension must add at least one week, got %d", additional)
	}
	if c.TotalWeeks+additional > MaxCampaignWeeks {
		return fmt.Errorf("campaign cannot exceed %d weeks: have %d, requested %d more",
			MaxCampaignWeeks, c.TotalWeeks, additional)
	}
	c.TotalWeeks += additional
	return nil
}

// CompleteCurrentWeek records the current week as done and advances the
// pointer. The pointer never moves past TotalWeeks; completing the final
// week reports done=true.
func (c *CampaignContext) CompleteCurrentWeek() (done bool) {
	for _, w := range c.CompletedWeeks {
		if w == c.CurrentWeek {
			// already recorded; completed_weeks only grows
			if c.CurrentWeek >= c.TotalWeeks {
				return true
			}
			c.CurrentWeek++
			return false
		}
	}
	c.CompletedWeeks = append(c.CompletedWeeks, c.CurrentWeek)
	if c.CurrentWeek >= c.TotalWeeks {
		return true
	}
	c.CurrentWeek++
	return false
}

// Mode is the session-level flow selection.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeCampaign Mode = "campaign"
	ModeCarousel Mode = "carousel"
	ModeGeneral  Mode = "general"
)

// SessionState is the complete state of one conversation: workflow position
// plus the three context objects. A session exclusively owns its contexts.
type SessionState struct {
	SessionID     string          `json:"session_id"`
	UserID        string          `json:"user_id"`
	WorkflowState WorkflowState   `json:"workflow_state"`
	Mode          Mode            `json:"mode,omitempty"`
	Brand         BrandContext    `json:"brand"`
	Post          PostContext     `json:"post"`
	Campaign      CampaignContext `json:"campaign"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewSessionState creates a fresh session in the START state.
func NewSessionState(sessionID, userID string) *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		SessionID:     sessionID,
		UserID:        userID,
		WorkflowState: StateStart,
		Brand:         NewBrandContext(),
		Campaign:      NewCampaignContext(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Transition moves the session to newState after consulting the transition
// table. An undeclared transition fails closed: the state is left unchanged
// and ErrInvalidTransition is returned.
func (s *SessionState) Transition(newState WorkflowState) error {
	if !IsValidTransition(s.WorkflowState, newState) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.WorkflowState, newState)
	}
	s.WorkflowState = newState
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ForceTransition sets the workflow state without consulting the table.
// Escape hatch for recovery paths that must move a wedged session; normal
// flow code goes through Transition.
func (s *SessionState) ForceTransition(newState WorkflowState) {
	s.WorkflowState = newState
	s.UpdatedAt = time.Now().UTC()
}

// ContextSummary produces a compact digest of the session for re-injection
// into stateless model calls. Parts are joined by " | ".
func (s *SessionState) ContextSummary() string {
	parts := []string{fmt.Sprintf("State: %s", s.WorkflowState)}
	if s.Brand.Name != "" {
		parts = append(parts, fmt.Sprintf("Brand: %s", s.Brand.Name))
	}
	if s.Mode != "" {
		parts = append(parts, fmt.Sprintf("Mode: %s", s.Mode))
	}
	if s.Post.Theme != "" {
		parts = append(parts, fmt.Sprintf("Theme: %s", s.Post.Theme))
	}
	if s.Post.ImagePath != "" {
		parts = append(parts, fmt.Sprintf("Image: %s", s.Post.ImagePath))
	}
	if s.Campaign.Month != "" {
		parts = append(parts, fmt.Sprintf("Campaign: %s, Week %d/%d",
			s.Campaign.Month, s.Campaign.CurrentWeek, s.Campaign.TotalWeeks))
	}
	return strings.Join(parts, " | ")
}
