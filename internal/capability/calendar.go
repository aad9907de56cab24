package capability

import "time"

// festivals holds the built-in event calendar used for campaign planning.
var festivals = map[time.Month][]Festival{
	time.January: {
		{Date: "01", Name: "New Year's Day", Type: "holiday", Themes: []string{"new beginnings", "goals", "fresh start"}},
		{Date: "14", Name: "Makar Sankranti", Type: "festival", Region: "India", Themes: []string{"harvest", "kites", "celebration"}},
		{Date: "26", Name: "Republic Day", Type: "national", Region: "India", Themes: []string{"patriotism", "pride", "unity"}},
	},
	time.February: {
		{Date: "14", Name: "Valentine's Day", Type: "observance", Themes: []string{"love", "relationships", "gifts"}},
	},
	time.March: {
		{Date: "08", Name: "International Women's Day", Type: "awareness", Themes: []string{"empowerment", "equality", "women"}},
		{Date: "variable", Name: "Holi", Type: "festival", Region: "India", Themes: []string{"colors", "celebration", "spring"}},
	},
	time.April: {
		{Date: "22", Name: "Earth Day", Type: "awareness", Themes: []string{"environment", "sustainability", "nature"}},
	},
	time.May: {
		{Date: "second_sunday", Name: "Mother's Day", Type: "observance", Themes: []string{"mothers", "gratitude", "family"}},
	},
	time.June: {
		{Date: "third_sunday", Name: "Father's Day", Type: "observance", Themes: []string{"fathers", "gratitude", "family"}},
		{Date: "21", Name: "International Yoga Day", Type: "awareness", Themes: []string{"wellness", "health", "mindfulness"}},
	},
	time.July: {
		{Date: "04", Name: "Independence Day", Type: "national", Region: "US", Themes: []string{"freedom", "patriotism", "celebration"}},
	},
	time.August: {
		{Date: "15", Name: "Independence Day", Type: "national", Region: "India", Themes: []string{"freedom", "patriotism", "pride"}},
		{Date: "variable", Name: "Raksha Bandhan", Type: "festival", Region: "India", Themes: []string{"siblings", "bond", "love"}},
	},
	time.September: {
		{Date: "05", Name: "Teachers' Day", Type: "observance", Region: "India", Themes: []string{"education", "gratitude", "teachers"}},
	},
	time.October: {
		{Date: "02", Name: "Gandhi Jayanti", Type: "national", Region: "India", Themes: []string{"peace", "non-violence", "inspiration"}},
		{Date: "variable", Name: "Dussehra/Navratri", Type: "festival", Region: "India", Themes: []string{"victory", "celebration", "tradition"}},
		{Date: "31", Name: "Halloween", Type: "observance", Themes: []string{"costumes", "fun", "spooky"}},
	},
	time.November: {
		{Date: "variable", Name: "Diwali", Type: "festival", Region: "India", Themes: []string{"lights", "prosperity", "celebration"}},
		{Date: "fourth_thursday", Name: "Thanksgiving", Type: "holiday", Region: "US", Themes: []string{"gratitude", "family", "feast"}},
		{Date: "last_friday", Name: "Black Friday", Type: "commercial", Themes: []string{"sales", "shopping", "deals"}},
	},
	time.December: {
		{Date: "25", Name: "Christmas", Type: "holiday", Themes: []string{"gifts", "joy", "celebration", "family"}},
		{Date: "31", Name: "New Year's Eve", Type: "holiday", Themes: []string{"celebration", "reflection", "party"}},
	},
}

// StaticCalendar serves the built-in festival table. It implements
// CalendarLookup.
type StaticCalendar struct{}

// NewStaticCalendar returns the built-in calendar.
func NewStaticCalendar() *StaticCalendar {
	return &StaticCalendar{}
}

// FestivalsForMonth returns the month's events, optionally filtered by region.
// Entries without a region tag are global and always included.
func (c *StaticCalendar) FestivalsForMonth(month time.Month, region string) []Festival {
	var out []Festival
	for _, f := range festivals[month] {
		if region != "" && f.Region != "" && f.Region != region {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ContentThemes returns the deduplicated theme suggestions for the month.
func (c *StaticCalendar) ContentThemes(month time.Month, region string) []string {
	seen := make(map[string]bool)
	var themes []string
	for _, f := range c.FestivalsForMonth(month, region) {
		for _, theme := range f.Themes {
			if seen[theme] {
				continue
			}
			seen[theme] = true
			themes = append(themes, theme)
		}
	}
	return themes
}
