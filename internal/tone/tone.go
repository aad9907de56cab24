// Package tone defines the closed vocabulary of brand tones and the visual
// style each one carries into generation prompts. Free-text tone input is
// normalized against the vocabulary; unknown tones are rejected rather than
// passed through to the generators.
package tone

import "strings"

// Default is applied when no tone has been chosen.
const Default = "creative"

// visualStyles maps each tone to the style fragment woven into image prompts.
var visualStyles = map[string]string{
	"creative":     "imaginative, vibrant, artistic composition",
	"professional": "clean, polished, studio quality",
	"playful":      "fun, colorful, energetic, whimsical details",
	"minimal":      "minimalist, generous negative space, simple shapes",
	"bold":         "high contrast, striking colors, dramatic lighting",
}

// synonyms maps common free-text descriptions onto the vocabulary.
var synonyms = map[string]string{
	"artistic":    "creative",
	"imaginative": "creative",
	"corporate":   "professional",
	"formal":      "professional",
	"business":    "professional",
	"fun":         "playful",
	"quirky":      "playful",
	"whimsical":   "playful",
	"clean":       "minimal",
	"simple":      "minimal",
	"minimalist":  "minimal",
	"dramatic":    "bold",
	"striking":    "bold",
	"loud":        "bold",
}

// All returns the tone vocabulary in stable order.
func All() []string {
	return []string{"creative", "professional", "playful", "minimal", "bold"}
}

// IsValid reports whether t is part of the vocabulary.
func IsValid(t string) bool {
	_, ok := visualStyles[t]
	return ok
}

// Normalize maps free-text tone input onto the vocabulary. It reports false
// for input that matches neither a tone nor a known synonym.
func Normalize(raw string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if IsValid(t) {
		return t, true
	}
	if mapped, ok := synonyms[t]; ok {
		return mapped, true
	}
	return "", false
}

// VisualStyle returns the prompt style fragment for a tone. Unknown tones
// fall back to the default's style.
func VisualStyle(t string) string {
	if style, ok := visualStyles[t]; ok {
		return style
	}
	return visualStyles[Default]
}
