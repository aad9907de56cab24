package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

func session(t *testing.T, state models.WorkflowState, brandName string) *models.SessionState {
	t.Helper()
	s := models.NewSessionState("sess-1", "user-1")
	s.Brand.Name = brandName
	s.ForceTransition(state)
	return s
}

func TestDecide_EmptyMessage(t *testing.T) {
	p := NewRulePolicy()
	_, err := p.Decide(context.Background(), session(t, models.StateStart, ""), "")
	if !errors.Is(err, models.ErrEmptyMessage) {
		t.Errorf("Expected ErrEmptyMessage, got %v", err)
	}
}

func TestDecide_BrandGateRedirects(t *testing.T) {
	p := NewRulePolicy()
	s := session(t, models.StateModeSelection, "")

	d, err := p.Decide(context.Background(), s, "make me a campaign")
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if len(d.Path) != 0 || d.Op != OpNone {
		t.Errorf("Expected clarify-only decision behind the brand gate, got %+v", d)
	}
	if d.Reply == "" {
		t.Error("Expected a redirect message")
	}
}

func TestDecide_ModeRouting(t *testing.T) {
	p := NewRulePolicy()
	tests := []struct {
		name    string
		message string
		first   models.WorkflowState
	}{
		{"campaign", "I want a campaign for November", models.StateCampaignSetup},
		{"carousel", "a carousel about our story", models.StateCarouselSetup},
		{"quick image", "just an image of a chai cup", models.StateGeneralImagePrompt},
		{"single post", "let's make a post", models.StatePostIdeaSource},
		{"ideas", "can you suggest something", models.StateIdeaRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session(t, models.StateModeSelection, "Chai & Co")
			d, err := p.Decide(context.Background(), s, tt.message)
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if len(d.Path) == 0 || d.Path[0] != tt.first {
				t.Errorf("Expected first hop %q, got %+v", tt.first, d.Path)
			}
		})
	}
}

func TestDecide_UnknownModeClarifies(t *testing.T) {
	p := NewRulePolicy()
	s := session(t, models.StateModeSelection, "Chai & Co")
	d, _ := p.Decide(context.Background(), s, "hmm")
	if len(d.Path) != 0 || d.Reply == "" {
		t.Errorf("Expected clarification, got %+v", d)
	}
}

func TestDecide_BriefApprovalGeneratesImage(t *testing.T) {
	p := NewRulePolicy()
	s := session(t, models.StateBriefShown, "Chai & Co")

	d, _ := p.Decide(context.Background(), s, "looks good, go ahead")
	if d.Op != OpGenerateImage {
		t.Errorf("Expected OpGenerateImage, got %q", d.Op)
	}
	if d.OnDone != models.StateImageGenerated {
		t.Errorf("Expected OnDone image_generated, got %q", d.OnDone)
	}
}

func TestDecide_BriefRejectionReworksBrief(t *testing.T) {
	p := NewRulePolicy()
	s := session(t, models.StateBriefShown, "Chai & Co")

	d, _ := p.Decide(context.Background(), s, "not quite, try again")
	if d.Op != OpWriteBrief || d.OnDone != models.StateBriefShown {
		t.Errorf("Expected brief rework decision, got %+v", d)
	}
}

func TestDecide_ProposedPathsFollowTransitionTable(t *testing.T) {
	p := NewRulePolicy()
	messages := []string{
		"yes", "no", "suggest some ideas", "make it a campaign for March",
		"edit the image, warmer light", "animate it", "caption please",
		"a carousel", "done", "2", "just an image", "new post", "add another month",
	}
	for _, state := range models.AllWorkflowStates() {
		for _, msg := range messages {
			s := session(t, state, "Chai & Co")
			d, err := p.Decide(context.Background(), s, msg)
			if err != nil {
				t.Fatalf("Decide(%s, %q) failed: %v", state, msg, err)
			}
			from := state
			for _, hop := range d.Path {
				if !models.IsValidTransition(from, hop) {
					t.Errorf("Decide(%s, %q) proposed illegal hop %s -> %s", state, msg, from, hop)
				}
				from = hop
			}
			if d.OnDone != "" && !models.IsValidTransition(from, d.OnDone) {
				t.Errorf("Decide(%s, %q) proposed illegal completion %s -> %s", state, msg, from, d.OnDone)
			}
		}
	}
}

func TestDecide_WeekCompleteBranches(t *testing.T) {
	p := NewRulePolicy()

	s := session(t, models.StateWeekComplete, "Chai & Co")
	s.Campaign.SetSchedule(2, 4)
	s.Campaign.CompletedWeeks = []int{1}
	d, _ := p.Decide(context.Background(), s, "continue")
	if d.Op != OpPlanWeek {
		t.Errorf("Expected next week planning, got %+v", d)
	}

	s.Campaign.CompletedWeeks = []int{1, 2, 3, 4}
	d, _ = p.Decide(context.Background(), s, "continue")
	if len(d.Path) == 0 || d.Path[0] != models.StateCampaignComplete {
		t.Errorf("Expected campaign completion, got %+v", d)
	}

	d, _ = p.Decide(context.Background(), s, "stop here")
	if len(d.Path) == 0 || d.Path[0] != models.StateComplete {
		t.Errorf("Expected stop decision, got %+v", d)
	}

	d, _ = p.Decide(context.Background(), s, "add two more weeks")
	if d.Op != OpExtendCampaign {
		t.Errorf("Expected OpExtendCampaign, got %+v", d)
	}
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		message string
		want    Schedule
	}{
		{"a campaign for November, 3 posts per week for 2 weeks", Schedule{Month: "November", PostsPerWeek: 3, TotalWeeks: 2}},
		{"January and February, 2 posts a week", Schedule{Month: "January", PostsPerWeek: 2, TotalWeeks: 8}},
		{"2 months, 1 post per week", Schedule{PostsPerWeek: 1, TotalWeeks: 8}},
		{"something in march", Schedule{Month: "March", TotalWeeks: 4}},
		{"January, february and March madness", Schedule{Month: "January", TotalWeeks: models.MaxCampaignWeeks}},
		{"June and June again", Schedule{Month: "June", TotalWeeks: 4}},
		{"march through may, 10 weeks", Schedule{Month: "March", TotalWeeks: 8}},
		{"no pacing mentioned", Schedule{}},
	}
	for _, tt := range tests {
		if got := ParseSchedule(tt.message); got != tt.want {
			t.Errorf("ParseSchedule(%q) = %+v, want %+v", tt.message, got, tt.want)
		}
	}
}

func TestParseMonth(t *testing.T) {
	if m, ok := ParseMonth("posts for February and January"); !ok || m.String() != "February" {
		t.Errorf("Expected the first-mentioned month February, got %v (%v)", m, ok)
	}
	if _, ok := ParseMonth("soldiers marching in the mayhem"); ok {
		t.Error("Month names should only match whole words")
	}
	if m, ok := ParseMonth("sometime in OCTOBER please"); !ok || m.String() != "October" {
		t.Errorf("Expected October regardless of case, got %v (%v)", m, ok)
	}
}

func TestParseIdeaChoice(t *testing.T) {
	if n, ok := ParseIdeaChoice("let's go with 2"); !ok || n != 2 {
		t.Errorf("Expected choice 2, got %d (%v)", n, ok)
	}
	if _, ok := ParseIdeaChoice("the kite one"); ok {
		t.Error("Expected no numeric choice")
	}
}

func TestParseExtension(t *testing.T) {
	tests := []struct {
		message string
		weeks   int
		ok      bool
	}{
		{"add 2 more weeks", 2, true},
		{"extend by 1 month", models.WeeksPerMonth, true},
		{"add another month", models.WeeksPerMonth, true},
		{"continue", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseExtension(tt.message)
		if ok != tt.ok || got != tt.weeks {
			t.Errorf("ParseExtension(%q) = %d,%v want %d,%v", tt.message, got, ok, tt.weeks, tt.ok)
		}
	}
}

func TestContainsAny_WordBoundaries(t *testing.T) {
	if containsAny("now is the time", "no") {
		t.Error("'no' should not match inside 'now'")
	}
	if !containsAny("No, redo it", "no") {
		t.Error("'no' should match as a word")
	}
	if !containsAny("that looks good to me", "looks good") {
		t.Error("multi-word phrase should match as substring")
	}
}
