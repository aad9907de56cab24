package flow

import (
	"fmt"
	"strings"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
	"github.com/Praveenbabu5991/ContentStudio/internal/tone"
)

// greetings that must not be mistaken for a brand name.
var greetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "yo": true, "start": true,
	"hi there": true, "hello there": true, "get started": true,
	"good morning": true, "good afternoon": true, "good evening": true,
}

// applyBrandInfo folds free-text brand details into the context. Lines of
// the form "key: value" set the matching field; a bare message with no
// recognized keys names the brand when it is still unnamed.
func applyBrandInfo(brand *models.BrandContext, message string) {
	if greetings[strings.ToLower(strings.TrimSpace(message))] {
		return
	}
	matched := false
	for _, line := range strings.Split(message, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name", "brand", "brand name":
			brand.Name = value
			matched = true
		case "industry", "business":
			brand.Industry = value
			matched = true
		case "tone", "style":
			if t, ok := tone.Normalize(value); ok {
				brand.Tone = t
			}
			matched = true
		case "colors", "colours", "color", "colour":
			brand.Colors = splitList(value)
			matched = true
		case "overview", "about", "description":
			brand.Overview = value
			matched = true
		}
	}
	if !matched && brand.Name == "" {
		if name := strings.TrimSpace(message); name != "" {
			brand.Name = name
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatIdeas(ideas []models.Idea) string {
	var b strings.Builder
	for i, idea := range ideas {
		fmt.Fprintf(&b, "%d. %s", i+1, idea.Title)
		if idea.Description != "" {
			fmt.Fprintf(&b, " - %s", idea.Description)
		}
		if idea.Occasion != "" {
			fmt.Fprintf(&b, " (%s)", idea.Occasion)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBrief(brief *models.VisualBrief) string {
	var b strings.Builder
	b.WriteString("Here's the visual brief:\n")
	fmt.Fprintf(&b, "Headline: %s\n", brief.Headline)
	if brief.Subtext != "" {
		fmt.Fprintf(&b, "Subtext: %s\n", brief.Subtext)
	}
	if brief.CTA != "" {
		fmt.Fprintf(&b, "Call to action: %s\n", brief.CTA)
	}
	if brief.Scene != "" {
		fmt.Fprintf(&b, "Scene: %s\n", brief.Scene)
	}
	if brief.GreetingText != "" {
		fmt.Fprintf(&b, "Greeting: %s\n", brief.GreetingText)
	}
	return strings.TrimRight(b.String(), "\n")
}

// promptFromBrief renders an approved brief as an image prompt. The scene
// leads; overlay text follows so the generator treats it as typography.
func promptFromBrief(brief *models.VisualBrief) string {
	var parts []string
	if brief.Scene != "" {
		parts = append(parts, brief.Scene)
	}
	if brief.Headline != "" {
		parts = append(parts, fmt.Sprintf("Overlay the headline text %q prominently.", brief.Headline))
	}
	if brief.Subtext != "" {
		parts = append(parts, fmt.Sprintf("Include the supporting text %q in a smaller size.", brief.Subtext))
	}
	if brief.CTA != "" {
		parts = append(parts, fmt.Sprintf("Add a call-to-action button or banner reading %q.", brief.CTA))
	}
	if brief.GreetingText != "" {
		parts = append(parts, fmt.Sprintf("Work in the greeting %q.", brief.GreetingText))
	}
	return strings.Join(parts, " ")
}

func referencePaths(brand models.BrandContext) []string {
	refs := brand.StyleReferenceImages()
	paths := make([]string, 0, len(refs))
	for _, img := range refs {
		paths = append(paths, img.Path)
	}
	return paths
}

func animationPrompt(state *models.SessionState) string {
	style := state.Post.AnimationStyle
	if style == "" {
		style = "a subtle, elegant motion"
	}
	prompt := fmt.Sprintf("Animate this image with %s.", style)
	if state.Post.Theme != "" {
		prompt += fmt.Sprintf(" The post is about %s.", state.Post.Theme)
	}
	return prompt
}

func captionTheme(state *models.SessionState, message string) string {
	if state.Post.Theme != "" {
		return state.Post.Theme
	}
	if state.Post.SelectedIdea != nil {
		return state.Post.SelectedIdea.Title
	}
	return message
}

func briefDescription(state *models.SessionState) string {
	if state.Post.VisualBrief != nil {
		return promptFromBrief(state.Post.VisualBrief)
	}
	if state.Post.SelectedIdea != nil {
		return state.Post.SelectedIdea.Description
	}
	return ""
}
