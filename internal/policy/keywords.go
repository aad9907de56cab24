package policy

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// containsAny reports whether the lowercased message contains any phrase.
// Multi-word phrases match as substrings; single words match whole words
// only, so "no" does not fire on "now".
func containsAny(message string, phrases ...string) bool {
	msg := strings.ToLower(message)
	var words []string
	for _, p := range phrases {
		if strings.ContainsRune(p, ' ') {
			if strings.Contains(msg, p) {
				return true
			}
			continue
		}
		if words == nil {
			words = strings.FieldsFunc(msg, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
			})
		}
		for _, w := range words {
			if w == p {
				return true
			}
		}
	}
	return false
}

func isAffirmative(message string) bool {
	return containsAny(message,
		"yes", "yeah", "yep", "sure", "ok", "okay", "approve", "approved",
		"looks good", "go ahead", "perfect", "love it", "let's do it", "proceed")
}

func isNegative(message string) bool {
	return containsAny(message,
		"no", "nope", "redo", "different", "something else", "not quite",
		"try again", "another idea", "don't like")
}

func wantsIdeas(message string) bool {
	return containsAny(message, "suggest", "ideas", "recommend", "inspire", "help me", "some options")
}

func wantsGeneration(message string) bool {
	return containsAny(message,
		"create", "make", "generate", "design", "plan", "write", "draw",
		"post", "posts", "campaign", "carousel", "image", "caption") ||
		wantsIdeas(message)
}

func wantsAnotherRound(message string) bool {
	return containsAny(message, "new post", "another post", "start over", "something new", "new campaign", "next one")
}

var monthNames = []struct {
	name  string
	month time.Month
}{
	{"january", time.January}, {"february", time.February}, {"march", time.March},
	{"april", time.April}, {"may", time.May}, {"june", time.June},
	{"july", time.July}, {"august", time.August}, {"september", time.September},
	{"october", time.October}, {"november", time.November}, {"december", time.December},
}

// namedMonths lists the distinct months named in the message, in the order
// they appear. Matching is by whole word, so "marching" is not March.
func namedMonths(message string) []time.Month {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var found []time.Month
	seen := make(map[time.Month]bool)
	for _, w := range words {
		for _, mn := range monthNames {
			if w == mn.name && !seen[mn.month] {
				seen[mn.month] = true
				found = append(found, mn.month)
			}
		}
	}
	return found
}

// ParseMonth finds the first month named in the message.
func ParseMonth(message string) (time.Month, bool) {
	if found := namedMonths(message); len(found) > 0 {
		return found[0], true
	}
	return 0, false
}

var (
	postsPerWeekRe = regexp.MustCompile(`(\d+)\s*posts?(\s*(per|a|each)\s*week)?`)
	weeksRe        = regexp.MustCompile(`(\d+)\s*weeks?`)
	monthsRe       = regexp.MustCompile(`(\d+)\s*months?`)
	choiceRe       = regexp.MustCompile(`\b(\d+)\b`)
	extendRe       = regexp.MustCompile(`(?:add|extend(?:\s*by)?|another)\s*(\d+)?\s*(?:more\s+)?(week|month)s?`)
)

// Schedule is the campaign pacing parsed from a setup message. Zero fields
// mean the user did not say; callers apply defaults.
type Schedule struct {
	Month        string
	PostsPerWeek int
	TotalWeeks   int
}

// ParseSchedule extracts month, posts-per-week and duration from free text.
// A duration in months converts at WeeksPerMonth; absent a numeric duration,
// each named month contributes a month's worth of weeks, so "January and
// February" runs eight weeks.
func ParseSchedule(message string) Schedule {
	msg := strings.ToLower(message)
	var s Schedule
	named := namedMonths(msg)
	if len(named) > 0 {
		s.Month = named[0].String()
	}
	if match := postsPerWeekRe.FindStringSubmatch(msg); match != nil {
		s.PostsPerWeek, _ = strconv.Atoi(match[1])
	}
	if match := weeksRe.FindStringSubmatch(msg); match != nil {
		s.TotalWeeks, _ = strconv.Atoi(match[1])
	} else if match := monthsRe.FindStringSubmatch(msg); match != nil {
		n, _ := strconv.Atoi(match[1])
		s.TotalWeeks = n * models.WeeksPerMonth
	} else if len(named) > 0 {
		s.TotalWeeks = len(named) * models.WeeksPerMonth
	}
	if s.TotalWeeks > models.MaxCampaignWeeks {
		s.TotalWeeks = models.MaxCampaignWeeks
	}
	return s
}

// ParseIdeaChoice reads a 1-based idea selection from the message.
func ParseIdeaChoice(message string) (int, bool) {
	match := choiceRe.FindStringSubmatch(strings.ToLower(message))
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ParseExtension reads "add two more weeks" style requests, returning the
// number of additional weeks. A bare "add a month" counts as WeeksPerMonth.
func ParseExtension(message string) (int, bool) {
	match := extendRe.FindStringSubmatch(strings.ToLower(message))
	if match == nil {
		return 0, false
	}
	n := 1
	if match[1] != "" {
		n, _ = strconv.Atoi(match[1])
	}
	if match[2] == "month" {
		n *= models.WeeksPerMonth
	}
	return n, true
}
