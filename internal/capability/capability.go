// Package capability implements the content generation tools: images,
// videos, captions, hashtags, campaign ideas, visual briefs, the festival
// calendar and trend lookups.
//
// Each capability is a small interface so the flow engine can be tested
// against fakes. Provider errors are classified into stable categories
// before they reach the user.
package capability

import (
	"context"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// ImageRequest describes one image to produce.
type ImageRequest struct {
	Prompt         string
	Brand          models.BrandContext
	Size           string
	ReferencePaths []string
}

// ImageEditRequest modifies an existing image with an instruction.
type ImageEditRequest struct {
	SourcePath  string
	Instruction string
	Brand       models.BrandContext
}

// ImageResult is the saved output of a generation or edit.
type ImageResult struct {
	Path string
}

// ImageGenerator produces a brand-styled image from a visual brief prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// ImageEditor applies an instruction to a previously generated image.
type ImageEditor interface {
	Edit(ctx context.Context, req ImageEditRequest) (*ImageResult, error)
}

// VideoRequest describes a short video to produce from an approved image.
type VideoRequest struct {
	Prompt      string
	SourceImage string
	Brand       models.BrandContext
}

// VideoResult is the finished video location.
type VideoResult struct {
	Path string
	URL  string
}

// VideoGenerator starts a video job and waits for it to finish. Wait
// returns models.ErrGenerationTimeout when the job outlives the polling
// ceiling and the context's error when cancelled.
type VideoGenerator interface {
	Start(ctx context.Context, req VideoRequest) (jobID string, err error)
	Wait(ctx context.Context, jobID string) (*VideoResult, error)
}

// CaptionRequest describes the post a caption should be written for.
type CaptionRequest struct {
	Brand       models.BrandContext
	Theme       string
	Description string
}

// ContentWriter covers the text capabilities: captions, hashtag sets and
// caption rewrites.
type ContentWriter interface {
	WriteCaption(ctx context.Context, req CaptionRequest) (string, error)
	GenerateHashtags(ctx context.Context, req CaptionRequest) ([]string, error)
	ImproveCaption(ctx context.Context, caption, instruction string) (string, error)
}

// IdeaWriter produces campaign ideas and visual briefs.
type IdeaWriter interface {
	GenerateIdeas(ctx context.Context, brand models.BrandContext, theme string, count int) ([]models.Idea, error)
	WriteBrief(ctx context.Context, brand models.BrandContext, idea models.Idea) (*models.VisualBrief, error)
}

// Festival is one calendar entry with marketing angles. Date is a day of
// month where fixed, or a marker like "variable" or "second_sunday".
type Festival struct {
	Date   string   `json:"date"`
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Region string   `json:"region,omitempty"`
	Themes []string `json:"themes"`
}

// CalendarLookup answers which festivals and observances fall in a month.
// An empty region means no filtering; otherwise region-tagged entries not
// matching it are dropped.
type CalendarLookup interface {
	FestivalsForMonth(month time.Month, region string) []Festival
	ContentThemes(month time.Month, region string) []string
}

// TrendLookup fetches what is currently trending for an industry.
type TrendLookup interface {
	TrendingTopics(ctx context.Context, industry string) ([]string, error)
}
