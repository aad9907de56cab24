package capability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// mockPromptService implements PromptService for testing.
type mockPromptService struct {
	resp string
	err  error

	gotSystem string
	gotUser   string
}

func (m *mockPromptService) GeneratePromptWithContext(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.gotSystem = systemPrompt
	m.gotUser = userPrompt
	return m.resp, m.err
}

func TestWriteCaption_IncludesBrandAndTheme(t *testing.T) {
	mock := &mockPromptService{resp: "  Warm chai, warmer moments.  "}
	w := NewGenAIWriter(mock)

	out, err := w.WriteCaption(context.Background(), CaptionRequest{
		Brand: models.BrandContext{Name: "Chai & Co", Industry: "beverages", Tone: "playful"},
		Theme: "winter launch",
	})
	if err != nil {
		t.Fatalf("WriteCaption failed: %v", err)
	}
	if out != "Warm chai, warmer moments." {
		t.Errorf("Expected trimmed caption, got %q", out)
	}
	for _, want := range []string{"Chai & Co", "beverages", "playful", "winter launch"} {
		if !strings.Contains(mock.gotUser, want) {
			t.Errorf("Expected prompt to mention %q, prompt was:\n%s", want, mock.gotUser)
		}
	}
}

func TestWriteCaption_ClassifiesProviderError(t *testing.T) {
	w := NewGenAIWriter(&mockPromptService{err: errors.New("429 rate limit exceeded")})
	_, err := w.WriteCaption(context.Background(), CaptionRequest{})
	var capErr *models.CapabilityError
	if !errors.As(err, &capErr) || capErr.Category != models.ErrorCategoryBusy {
		t.Errorf("Expected busy CapabilityError, got %v", err)
	}
}

func TestGenerateHashtags_ParsesAndDedupes(t *testing.T) {
	mock := &mockPromptService{resp: "#chai #winter\nHere are more: #chai, #cozy!\n#Winter"}
	w := NewGenAIWriter(mock)

	tags, err := w.GenerateHashtags(context.Background(), CaptionRequest{Theme: "winter"})
	if err != nil {
		t.Fatalf("GenerateHashtags failed: %v", err)
	}
	want := []string{"#chai", "#winter", "#cozy"}
	if len(tags) != len(want) {
		t.Fatalf("Expected %d tags, got %v", len(want), tags)
	}
	for i, tag := range want {
		if tags[i] != tag {
			t.Errorf("tags[%d] = %q, want %q", i, tags[i], tag)
		}
	}
}

func TestGenerateHashtags_CapsAtMax(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxHashtags+10; i++ {
		b.WriteString("#tag")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(" ")
	}
	w := NewGenAIWriter(&mockPromptService{resp: b.String()})

	tags, err := w.GenerateHashtags(context.Background(), CaptionRequest{})
	if err != nil {
		t.Fatalf("GenerateHashtags failed: %v", err)
	}
	if len(tags) != MaxHashtags {
		t.Errorf("Expected cap of %d tags, got %d", MaxHashtags, len(tags))
	}
}

func TestGenerateHashtags_NoTagsIsError(t *testing.T) {
	w := NewGenAIWriter(&mockPromptService{resp: "I could not think of any."})
	if _, err := w.GenerateHashtags(context.Background(), CaptionRequest{}); err == nil {
		t.Error("Expected error when response has no hashtags")
	}
}

func TestGenerateIdeas_ParsesJSONWithFence(t *testing.T) {
	resp := "```json\n[{\"title\": \"Kite festival special\", \"description\": \"Tie-in with Makar Sankranti\", \"occasion\": \"Makar Sankranti\"}]\n```"
	w := NewGenAIWriter(&mockPromptService{resp: resp})

	ideas, err := w.GenerateIdeas(context.Background(), models.BrandContext{Name: "Chai & Co"}, "festivals", 3)
	if err != nil {
		t.Fatalf("GenerateIdeas failed: %v", err)
	}
	if len(ideas) != 1 || ideas[0].Title != "Kite festival special" {
		t.Errorf("Unexpected ideas: %+v", ideas)
	}
}

func TestGenerateIdeas_RejectsNonJSON(t *testing.T) {
	w := NewGenAIWriter(&mockPromptService{resp: "Sure! Here are some ideas..."})
	if _, err := w.GenerateIdeas(context.Background(), models.BrandContext{}, "", 3); err == nil {
		t.Error("Expected error for non-JSON response")
	}
}

func TestWriteBrief_ParsesJSON(t *testing.T) {
	resp := `{"headline": "Fly High", "subtext": "Festive brews all week", "cta": "Order now", "scene": "kites over a chai stall at sunset"}`
	w := NewGenAIWriter(&mockPromptService{resp: resp})

	brief, err := w.WriteBrief(context.Background(), models.BrandContext{Name: "Chai & Co"}, models.Idea{Title: "Kite festival special"})
	if err != nil {
		t.Fatalf("WriteBrief failed: %v", err)
	}
	if brief.Headline != "Fly High" || brief.Scene == "" {
		t.Errorf("Unexpected brief: %+v", brief)
	}
}

func TestWriteBrief_EmptyBriefIsError(t *testing.T) {
	w := NewGenAIWriter(&mockPromptService{resp: "{}"})
	if _, err := w.WriteBrief(context.Background(), models.BrandContext{}, models.Idea{}); err == nil {
		t.Error("Expected error for empty brief")
	}
}

func TestTrendingTopics_ParsesBulletedLines(t *testing.T) {
	resp := "1. Sustainable packaging\n- Regional flavors\n* Behind-the-scenes reels\n\n"
	w := NewGenAIWriter(&mockPromptService{resp: resp})

	topics, err := w.TrendingTopics(context.Background(), "beverages")
	if err != nil {
		t.Fatalf("TrendingTopics failed: %v", err)
	}
	want := []string{"Sustainable packaging", "Regional flavors", "Behind-the-scenes reels"}
	if len(topics) != len(want) {
		t.Fatalf("Expected %d topics, got %v", len(want), topics)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[1]", "[1]"},
		{"```json\n[1]\n```", "[1]"},
		{"```\n[1]\n```", "[1]"},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFence(tt.in); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
