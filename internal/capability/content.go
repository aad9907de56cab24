package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// Bounds for text capabilities.
const (
	MaxHashtags     = 30
	MaxIdeas        = 10
	DefaultIdeas    = 3
	MaxTrendResults = 10
)

// PromptService is the language model surface the text capabilities use.
// *genai.Client satisfies it.
type PromptService interface {
	GeneratePromptWithContext(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenAIWriter implements ContentWriter, IdeaWriter and TrendLookup on top
// of a language model.
type GenAIWriter struct {
	llm PromptService
}

// NewGenAIWriter creates the text capability backed by the given model.
func NewGenAIWriter(llm PromptService) *GenAIWriter {
	return &GenAIWriter{llm: llm}
}

const captionSystemPrompt = `You are a social media copywriter. Write engaging captions of 50 to 150 words. Match the brand voice. Return only the caption text, no preamble.`

// WriteCaption produces a post caption for the brand and theme.
func (w *GenAIWriter) WriteCaption(ctx context.Context, req CaptionRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a caption for a social media post.\n")
	writeBrandLines(&b, req.Brand)
	if req.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", req.Theme)
	}
	if req.Description != "" {
		fmt.Fprintf(&b, "The post shows: %s\n", req.Description)
	}
	out, err := w.llm.GeneratePromptWithContext(ctx, captionSystemPrompt, b.String())
	if err != nil {
		return "", Classify(err)
	}
	return strings.TrimSpace(out), nil
}

const hashtagSystemPrompt = `You are a social media strategist. Return relevant hashtags for the post, one per line, each starting with #. No other text.`

// GenerateHashtags produces a deduplicated hashtag set, capped at MaxHashtags.
func (w *GenAIWriter) GenerateHashtags(ctx context.Context, req CaptionRequest) ([]string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest hashtags for a social media post.\n")
	writeBrandLines(&b, req.Brand)
	if req.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", req.Theme)
	}
	out, err := w.llm.GeneratePromptWithContext(ctx, hashtagSystemPrompt, b.String())
	if err != nil {
		return nil, Classify(err)
	}
	tags := parseHashtags(out)
	if len(tags) == 0 {
		return nil, fmt.Errorf("no hashtags in model response")
	}
	return tags, nil
}

const improveSystemPrompt = `You are a social media copywriter. Rewrite the caption following the instruction. Keep the brand voice. Return only the rewritten caption.`

// ImproveCaption rewrites a caption per the user's instruction.
func (w *GenAIWriter) ImproveCaption(ctx context.Context, caption, instruction string) (string, error) {
	user := fmt.Sprintf("Caption:\n%s\n\nInstruction: %s", caption, instruction)
	out, err := w.llm.GeneratePromptWithContext(ctx, improveSystemPrompt, user)
	if err != nil {
		return "", Classify(err)
	}
	return strings.TrimSpace(out), nil
}

const ideaSystemPrompt = `You are a social media campaign planner. Respond with a JSON array of idea objects with fields: title, description, target_segment, occasion. No other text.`

// GenerateIdeas produces campaign post ideas for the brand around a theme.
func (w *GenAIWriter) GenerateIdeas(ctx context.Context, brand models.BrandContext, theme string, count int) ([]models.Idea, error) {
	if count < 1 {
		count = DefaultIdeas
	}
	if count > MaxIdeas {
		count = MaxIdeas
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d campaign post ideas.\n", count)
	writeBrandLines(&b, brand)
	if theme != "" {
		fmt.Fprintf(&b, "Campaign theme: %s\n", theme)
	}
	out, err := w.llm.GeneratePromptWithContext(ctx, ideaSystemPrompt, b.String())
	if err != nil {
		return nil, Classify(err)
	}

	var ideas []models.Idea
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &ideas); err != nil {
		slog.Error("Idea response was not valid JSON", "error", err)
		return nil, fmt.Errorf("failed to parse idea response: %w", err)
	}
	if len(ideas) == 0 {
		return nil, fmt.Errorf("no ideas in model response")
	}
	if len(ideas) > count {
		ideas = ideas[:count]
	}
	return ideas, nil
}

const briefSystemPrompt = `You are an art director. Respond with one JSON object describing the post visual with fields: headline, subtext, cta, scene, greeting_text. No other text.`

// WriteBrief turns an idea into a visual brief for image generation.
func (w *GenAIWriter) WriteBrief(ctx context.Context, brand models.BrandContext, idea models.Idea) (*models.VisualBrief, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Design the visual for this post idea.\n")
	writeBrandLines(&b, brand)
	fmt.Fprintf(&b, "Idea: %s\n", idea.Title)
	if idea.Description != "" {
		fmt.Fprintf(&b, "Details: %s\n", idea.Description)
	}
	if idea.Occasion != "" {
		fmt.Fprintf(&b, "Occasion: %s\n", idea.Occasion)
	}
	out, err := w.llm.GeneratePromptWithContext(ctx, briefSystemPrompt, b.String())
	if err != nil {
		return nil, Classify(err)
	}

	var brief models.VisualBrief
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &brief); err != nil {
		slog.Error("Brief response was not valid JSON", "error", err)
		return nil, fmt.Errorf("failed to parse brief response: %w", err)
	}
	if brief.IsZero() {
		return nil, fmt.Errorf("empty brief in model response")
	}
	return &brief, nil
}

const trendSystemPrompt = `You are a social media analyst. List topics currently trending for the given industry, one per line. No other text.`

// TrendingTopics returns current content themes for an industry.
func (w *GenAIWriter) TrendingTopics(ctx context.Context, industry string) ([]string, error) {
	out, err := w.llm.GeneratePromptWithContext(ctx, trendSystemPrompt, fmt.Sprintf("Industry: %s", industry))
	if err != nil {
		return nil, Classify(err)
	}
	var topics []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line == "" {
			continue
		}
		topics = append(topics, line)
		if len(topics) == MaxTrendResults {
			break
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("no trends in model response")
	}
	return topics, nil
}

func writeBrandLines(b *strings.Builder, brand models.BrandContext) {
	if brand.Name != "" {
		fmt.Fprintf(b, "Brand: %s\n", brand.Name)
	}
	if brand.Industry != "" {
		fmt.Fprintf(b, "Industry: %s\n", brand.Industry)
	}
	if brand.Tone != "" {
		fmt.Fprintf(b, "Voice: %s\n", brand.Tone)
	}
	if brand.Overview != "" {
		fmt.Fprintf(b, "About: %s\n", brand.Overview)
	}
}

// parseHashtags extracts #tags from model output, deduplicating while
// preserving order and capping at MaxHashtags.
func parseHashtags(raw string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, token := range strings.Fields(raw) {
		token = strings.Trim(token, ".,;:!?")
		if !strings.HasPrefix(token, "#") || len(token) < 2 {
			continue
		}
		key := strings.ToLower(token)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, token)
		if len(tags) == MaxHashtags {
			break
		}
	}
	return tags
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
