package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/capability"
	"github.com/Praveenbabu5991/ContentStudio/internal/memory"
	"github.com/Praveenbabu5991/ContentStudio/internal/models"
	"github.com/Praveenbabu5991/ContentStudio/internal/policy"
)

// Carousel sizing. Three slides is the smallest carousel worth swiping.
const (
	DefaultCarouselSlides = 3
	MaxCarouselSlides     = 10
)

const modeMenuReply = "What would you like to create? A single post, a campaign, a carousel, or a quick image?"

// runOp executes one policy operation against the session. It returns the
// reply to show the user; any error leaves the caller to restore the
// pre-turn workflow state.
func (e *Engine) runOp(ctx context.Context, state *models.SessionState, op policy.Operation, message string, result *TurnResult) (string, error) {
	switch op {
	case policy.OpCollectBrand:
		return e.collectBrand(state, message)
	case policy.OpGenerateIdeas:
		return e.generateIdeas(ctx, state, message, result)
	case policy.OpWriteBrief:
		return e.writeBrief(ctx, state, message, result)
	case policy.OpGenerateImage:
		return e.generateImage(ctx, state, result)
	case policy.OpGeneralImage:
		return e.generalImage(ctx, state, message, result)
	case policy.OpEditImage:
		return e.editImage(ctx, state, message, result)
	case policy.OpGenerateVideo:
		return e.generateVideo(ctx, state, message, result)
	case policy.OpWriteCaption:
		return e.writeCaption(ctx, state, message, result)
	case policy.OpImproveCaption:
		return e.improveCaption(ctx, state, message, result)
	case policy.OpSetCampaignPlan:
		return e.setCampaignPlan(state, message)
	case policy.OpExtendCampaign:
		return e.extendCampaign(state, message)
	case policy.OpPlanWeek:
		return e.planWeek(ctx, state, result)
	case policy.OpGenerateWeek:
		return e.generateWeek(ctx, state)
	case policy.OpGenerateCarousel:
		return e.generateCarousel(ctx, state, message, result)
	case policy.OpLookupFestivals:
		return e.lookupFestivals(state, message)
	case policy.OpLookupTrends:
		return e.lookupTrends(ctx, state)
	}
	return "", fmt.Errorf("%w: %s", models.ErrUnknownCapability, op)
}

// collectBrand folds the message into the brand context. When the brand
// becomes complete during setup it advances straight to mode selection.
func (e *Engine) collectBrand(state *models.SessionState, message string) (string, error) {
	applyBrandInfo(&state.Brand, message)
	if !state.Brand.IsComplete() {
		return "What's your brand called? You can also tell me the industry, tone and colors, one per line.", nil
	}
	if state.WorkflowState == models.StateBrandSetup {
		if err := state.Transition(models.StateModeSelection); err != nil {
			return "", err
		}
	}
	profile := memory.Profile{Username: state.UserID, Brand: state.Brand}
	if err := e.store.SaveProfile(profile); err != nil {
		slog.Warn("Engine profile save failed", "userID", state.UserID, "error", err)
	}
	return fmt.Sprintf("%s it is. %s", state.Brand.Name, modeMenuReply), nil
}

func (e *Engine) generateIdeas(ctx context.Context, state *models.SessionState, message string, result *TurnResult) (string, error) {
	if e.caps.Ideas == nil {
		return "", fmt.Errorf("%w: idea generation", models.ErrUnknownCapability)
	}
	theme := message
	theme += e.seasonalAngles(message, state)
	if topics := e.trendAngles(ctx, state, message); topics != "" {
		theme += topics
	}

	ideas, err := e.caps.Ideas.GenerateIdeas(ctx, state.Brand, theme, capability.DefaultIdeas)
	if err != nil {
		return "", err
	}
	state.Post.CandidateIdeas = ideas
	result.Ideas = ideas
	return formatIdeas(ideas) + "\nReply with a number to pick one, or ask for more ideas.", nil
}

func (e *Engine) writeBrief(ctx context.Context, state *models.SessionState, message string, result *TurnResult) (string, error) {
	if e.caps.Ideas == nil {
		return "", fmt.Errorf("%w: brief writing", models.ErrUnknownCapability)
	}
	idea := selectIdea(state, message)
	brief, err := e.caps.Ideas.WriteBrief(ctx, state.Brand, idea)
	if err != nil {
		return "", err
	}
	state.Post.SelectedIdea = &idea
	state.Post.VisualBrief = brief
	if state.Post.Theme == "" {
		state.Post.Theme = idea.Title
	}
	result.Brief = brief
	return formatBrief(brief) + "\nShall I generate the image?", nil
}

// selectIdea resolves which idea the brief is for: a numbered pick from the
// candidates, a rework of the already selected idea, or the message itself
// as a fresh idea.
func selectIdea(state *models.SessionState, message string) models.Idea {
	if n, ok := policy.ParseIdeaChoice(message); ok && n <= len(state.Post.CandidateIdeas) {
		return state.Post.CandidateIdeas[n-1]
	}
	if state.Post.SelectedIdea != nil {
		idea := *state.Post.SelectedIdea
		idea.Description = strings.TrimSpace(strings.TrimSuffix(idea.Description, ".") + ". Revision notes: " + message)
		return idea
	}
	return models.Idea{Title: message}
}

func (e *Engine) generateImage(ctx context.Context, state *models.SessionState, result *TurnResult) (string, error) {
	if e.caps.Images == nil {
		return "", fmt.Errorf("%w: image generation", models.ErrUnknownCapability)
	}
	brief := state.Post.VisualBrief
	if brief == nil {
		return "", models.ErrMissingBrief
	}
	res, err := e.caps.Images.Generate(ctx, capability.ImageRequest{
		Prompt:         promptFromBrief(brief),
		Brand:          state.Brand,
		ReferencePaths: referencePaths(state.Brand),
	})
	if err != nil {
		return "", err
	}
	state.Post.ImagePath = res.Path
	result.ImagePath = res.Path
	e.saveContent(state, memory.ContentKindImage, res.Path, "")
	return fmt.Sprintf("Here's your image: %s\nYou can edit it, animate it, ask for a caption, or start a new post.", res.Path), nil
}

func (e *Engine) generalImage(ctx context.Context, state *models.SessionState, message string, result *TurnResult) (string, error) {
	if e.caps.Images == nil {
		return "", fmt.Errorf("%w: image generation", models.ErrUnknownCapability)
	}
	res, err := e.caps.Images.Generate(ctx, capability.ImageRequest{
		Prompt:         message,
		Brand:          state.Brand,
		ReferencePaths: referencePaths(state.Brand),
	})
	if err != nil {
		return "", err
	}
	state.Post.Theme = message
	state.Post.ImagePath = res.Path
	result.ImagePath = res.Path
	e.saveContent(state, memory.ContentKindImage, res.Path, "")
	return fmt.Sprintf("Done: %s\nWant to edit it, animate it, or get a caption?", res.Path), nil
}

func (e *Engine) editImage(ctx context.Context, state *models.SessionState, message string, result *TurnResult) (string, error) {
	if e.caps.Editor == nil {
		return "", fmt.Errorf("%w: image editing", models.ErrUnknownCapability)
	}
	if state.Post.ImagePath == "" {
		return "", models.ErrMissingImage
	}
	res, err := e.caps.Editor.Edit(ctx, capability.ImageEditRequest{
		SourcePath:  state.Post.ImagePath,
		Instruction: message,
		Brand:       state.Brand,
	})
	if err != nil {
		return "", err
	}
	state.Post.ImagePath = res.Path
	result.ImagePath = res.Path
	e.saveContent(state, memory.ContentKindImage, res.Path, "")
	return fmt.Sprintf("Updated: %s\nAnything else to change?", res.Path), nil
}

func (e *Engine) generateVideo(ctx context.Context, state *models.SessionState, message string, result *TurnResult) (string, error) {
	if e.caps.Video == nil {
		return "", fmt.Errorf("%w: video generation", models.ErrUnknownCapability)
	}
	if state.Post.ImagePath == "" {
		return "", models.ErrMissingImage
	}
	state.Post.AnimationStyle = strings.TrimSpace(message)
	jobID, err := e.caps.Video.Start(ctx, capability.VideoRequest{
		Prompt:      animationPrompt(state),
		SourceImage: state.Post.ImagePath,
		Brand:       state.Brand,
	})
	if err != nil {
		return "", err
	}
	res, err := e.caps.Video.Wait(ctx, jobID)
	if err != nil {
		return "", err
	}
	location := res.URL
	if location == "" {
		location = res.Path
	}
	state.Post.VideoPath = location
	result.VideoLocation = location
	e.saveContent(state, memory.ContentKindVideo, location, "")
	if err := e.notifier.VideoReady(ctx, state.UserID, location); err != nil {
		slog.Warn("Engine video notification failed", "userID", state.UserID, "error", err)
	}
	return fmt.Sprintf("Your animation is ready: %s\nWant a caption to go with it?", location), nil
}

func (e *Engine) writeCaption(ctx context.Context, state *models.SessionState, message string, result *TurnResult) (string, error) {
	if e.caps.Writer == nil {
		return "", fmt.Errorf("%w: caption writing", models.ErrUnknownCapability)
	}
	req := capability.CaptionRequest{
		Brand:       state.Brand,
		Theme:       captionTheme(state, message),
		Description: briefDescription(state),
	}
	caption, err := e.caps.Writer.WriteCaption(ctx, req)
	if err != nil {
		return "", err
	}
	tags, err := e.caps.Writer.GenerateHashtags(ctx, req)
	if err != nil {
		return "", err
	}
	state.Post.Caption = caption
	state.Post.Hashtags = tags
	result.Caption = caption
	result.Hashtags = tags
	e.saveContent(state, memory.ContentKindCaption, "", caption+"\n"+strings.Join(tags, " "))
	return fmt.Sprintf("%s\n\n%s\nWant me to tweak it, or is this post done?", caption, strings.Join(tags, " ")), nil
}

func (e *Engine) improveCaption(ctx context.Context, state *models.SessionState, message string, result *TurnResult) (string, error) {
	if e.caps.Writer == nil {
		return "", fmt.Errorf("%w: caption writing", models.ErrUnknownCapability)
	}
	if state.Post.Caption == "" {
		return "There's no caption yet. Ask for one first.", nil
	}
	improved, err := e.caps.Writer.ImproveCaption(ctx, state.Post.Caption, message)
	if err != nil {
		return "", err
	}
	state.Post.Caption = improved
	result.Caption = improved
	result.Hashtags = state.Post.Hashtags
	e.saveContent(state, memory.ContentKindCaption, "", improved)
	return improved + "\nAnything else to adjust?", nil
}

func (e *Engine) setCampaignPlan(state *models.SessionState, message string) (string, error) {
	sched := policy.ParseSchedule(message)
	state.Campaign.Reset()
	posts := sched.PostsPerWeek
	if posts == 0 {
		posts = models.DefaultPostsPerWeek
	}
	weeks := sched.TotalWeeks
	if weeks == 0 {
		weeks = models.DefaultCampaignWeeks
	}
	state.Campaign.SetSchedule(posts, weeks)
	month := sched.Month
	if month == "" {
		month = time.Now().Month().String()
	}
	state.Campaign.Month = month

	reply := fmt.Sprintf("Campaign set: %s, %d post(s) a week for %d weeks.",
		month, state.Campaign.PostsPerWeek, state.Campaign.TotalWeeks)
	if names := e.festivalNames(month); len(names) > 0 {
		reply += " Worth planning around: " + strings.Join(names, ", ") + "."
	}
	return reply + " Want idea suggestions for week 1, or do you have your own themes?", nil
}

func (e *Engine) extendCampaign(state *models.SessionState, message string) (string, error) {
	add, ok := policy.ParseExtension(message)
	if !ok {
		return "How many more weeks should I add?", nil
	}
	if err := state.Campaign.ExtendWeeks(add); err != nil {
		// a refused extension is an answer, not a failure
		return fmt.Sprintf("I can't extend that far: a campaign tops out at %d weeks and you're at %d.",
			models.MaxCampaignWeeks, state.Campaign.TotalWeeks), nil
	}
	// completing the final week leaves the pointer on it; an extension
	// reopens the campaign, so move past the finished week
	for _, w := range state.Campaign.CompletedWeeks {
		if w == state.Campaign.CurrentWeek && state.Campaign.CurrentWeek < state.Campaign.TotalWeeks {
			state.Campaign.CurrentWeek++
			break
		}
	}
	return fmt.Sprintf("Done, the campaign now runs %d weeks. Say continue when you're ready for week %d.",
		state.Campaign.TotalWeeks, state.Campaign.CurrentWeek), nil
}

func (e *Engine) planWeek(ctx context.Context, state *models.SessionState, result *TurnResult) (string, error) {
	if e.caps.Ideas == nil {
		return "", fmt.Errorf("%w: idea generation", models.ErrUnknownCapability)
	}
	week := state.Campaign.CurrentWeek
	theme := fmt.Sprintf("%s campaign, week %d of %d", state.Campaign.Month, week, state.Campaign.TotalWeeks)
	theme += e.seasonalAngles(state.Campaign.Month, state)

	ideas, err := e.caps.Ideas.GenerateIdeas(ctx, state.Brand, theme, state.Campaign.PostsPerWeek)
	if err != nil {
		return "", err
	}
	state.Post.CandidateIdeas = ideas
	result.Ideas = ideas
	return fmt.Sprintf("Here's the plan for week %d:\n%s\nApprove it and I'll generate the posts, or ask for a different plan.",
		week, formatIdeas(ideas)), nil
}

// generateWeek produces every post of the approved week plan: brief, image
// and caption per idea. Campaign state is only updated once the whole week
// succeeds.
func (e *Engine) generateWeek(ctx context.Context, state *models.SessionState) (string, error) {
	if e.caps.Ideas == nil || e.caps.Images == nil || e.caps.Writer == nil {
		return "", fmt.Errorf("%w: campaign generation", models.ErrUnknownCapability)
	}
	ideas := state.Post.CandidateIdeas
	if len(ideas) == 0 {
		return "", fmt.Errorf("no approved week plan to generate")
	}
	week := state.Campaign.CurrentWeek
	posts := make([]models.CampaignPost, 0, len(ideas))
	for _, idea := range ideas {
		brief, err := e.caps.Ideas.WriteBrief(ctx, state.Brand, idea)
		if err != nil {
			return "", fmt.Errorf("week %d post %q: %w", week, idea.Title, err)
		}
		img, err := e.caps.Images.Generate(ctx, capability.ImageRequest{
			Prompt:         promptFromBrief(brief),
			Brand:          state.Brand,
			ReferencePaths: referencePaths(state.Brand),
		})
		if err != nil {
			return "", fmt.Errorf("week %d post %q: %w", week, idea.Title, err)
		}
		caption, err := e.caps.Writer.WriteCaption(ctx, capability.CaptionRequest{
			Brand:       state.Brand,
			Theme:       idea.Title,
			Description: idea.Description,
		})
		if err != nil {
			return "", fmt.Errorf("week %d post %q: %w", week, idea.Title, err)
		}
		posts = append(posts, models.CampaignPost{
			Week:      week,
			Theme:     idea.Title,
			ImagePath: img.Path,
			Caption:   caption,
		})
	}
	for _, p := range posts {
		e.saveContent(state, memory.ContentKindImage, p.ImagePath, p.Caption)
	}
	state.Campaign.PostsGenerated = append(state.Campaign.PostsGenerated, posts...)
	state.Post.CandidateIdeas = nil
	done := state.Campaign.CompleteCurrentWeek()
	if done {
		return fmt.Sprintf("Week %d is done: %d post(s) ready. That completes the planned campaign. Say add more weeks to extend, or we can stop here.",
			week, len(posts)), nil
	}
	return fmt.Sprintf("Week %d is done: %d post(s) ready. Say continue for week %d, or stop here.",
		week, len(posts), state.Campaign.CurrentWeek), nil
}

func (e *Engine) generateCarousel(ctx context.Context, state *models.SessionState, message string, result *TurnResult) (string, error) {
	if e.caps.Images == nil {
		return "", fmt.Errorf("%w: image generation", models.ErrUnknownCapability)
	}
	count := DefaultCarouselSlides
	if n, ok := policy.ParseIdeaChoice(message); ok && n >= 2 {
		count = n
		if count > MaxCarouselSlides {
			count = MaxCarouselSlides
		}
	}
	paths := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		res, err := e.caps.Images.Generate(ctx, capability.ImageRequest{
			Prompt: fmt.Sprintf("%s. Slide %d of %d in a cohesive social media carousel; keep the palette and typography consistent across slides.",
				message, i, count),
			Brand:          state.Brand,
			ReferencePaths: referencePaths(state.Brand),
		})
		if err != nil {
			return "", fmt.Errorf("slide %d of %d: %w", i, count, err)
		}
		paths = append(paths, res.Path)
	}
	state.Post.Theme = message
	state.Post.CarouselPaths = paths
	result.CarouselPaths = paths
	e.saveContent(state, memory.ContentKindCarousel, paths[0], strings.Join(paths, "\n"))
	return fmt.Sprintf("Your %d-slide carousel is ready:\n%s", count, strings.Join(paths, "\n")), nil
}

func (e *Engine) lookupFestivals(state *models.SessionState, message string) (string, error) {
	if e.caps.Calendar == nil {
		return "", fmt.Errorf("%w: festival calendar", models.ErrUnknownCapability)
	}
	month, ok := policy.ParseMonth(message)
	if !ok {
		if m, found := policy.ParseMonth(state.Campaign.Month); found {
			month = m
		} else {
			month = time.Now().Month()
		}
	}
	fests := e.caps.Calendar.FestivalsForMonth(month, "")
	if len(fests) == 0 {
		return fmt.Sprintf("Nothing notable on the %s calendar.", month), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Coming up in %s:\n", month)
	for _, f := range fests {
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Name, f.Date, strings.Join(f.Themes, ", "))
	}
	b.WriteString("Want to build a post or campaign around one of these?")
	return b.String(), nil
}

func (e *Engine) lookupTrends(ctx context.Context, state *models.SessionState) (string, error) {
	if e.caps.Trends == nil {
		return "", fmt.Errorf("%w: trend lookup", models.ErrUnknownCapability)
	}
	topics, err := e.caps.Trends.TrendingTopics(ctx, state.Brand.Industry)
	if err != nil {
		return "", err
	}
	if len(topics) == 0 {
		return "I couldn't find anything trending for your industry right now.", nil
	}
	var b strings.Builder
	b.WriteString("Trending right now:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	b.WriteString("Want ideas built on any of these?")
	return b.String(), nil
}

// saveContent appends to the generated-content log; persistence problems are
// logged and never fail the turn.
func (e *Engine) saveContent(state *models.SessionState, kind, path, text string) {
	err := e.store.SaveGeneratedContent(memory.GeneratedContent{
		SessionID: state.SessionID,
		Kind:      kind,
		Path:      path,
		Text:      text,
	})
	if err != nil {
		slog.Warn("Engine content save failed", "sessionID", state.SessionID, "kind", kind, "error", err)
	}
}

// seasonalAngles returns festival themes for the month named in text, the
// campaign month, or the current month, formatted for appending to an idea
// theme. Empty when no calendar is wired or nothing is on it.
func (e *Engine) seasonalAngles(text string, state *models.SessionState) string {
	if e.caps.Calendar == nil {
		return ""
	}
	month, ok := policy.ParseMonth(text)
	if !ok {
		if m, found := policy.ParseMonth(state.Campaign.Month); found {
			month = m
		} else {
			month = time.Now().Month()
		}
	}
	themes := e.caps.Calendar.ContentThemes(month, "")
	if len(themes) == 0 {
		return ""
	}
	return " (seasonal angles: " + strings.Join(themes, ", ") + ")"
}

// trendAngles fetches trending topics when the message asks for them.
// Lookup failures degrade to no enrichment rather than failing the turn.
func (e *Engine) trendAngles(ctx context.Context, state *models.SessionState, message string) string {
	if e.caps.Trends == nil {
		return ""
	}
	lower := strings.ToLower(message)
	if !strings.Contains(lower, "trend") {
		return ""
	}
	topics, err := e.caps.Trends.TrendingTopics(ctx, state.Brand.Industry)
	if err != nil || len(topics) == 0 {
		if err != nil {
			slog.Warn("Engine trend lookup failed", "industry", state.Brand.Industry, "error", err)
		}
		return ""
	}
	return " (currently trending: " + strings.Join(topics, ", ") + ")"
}

func (e *Engine) festivalNames(month string) []string {
	if e.caps.Calendar == nil {
		return nil
	}
	m, ok := policy.ParseMonth(month)
	if !ok {
		return nil
	}
	fests := e.caps.Calendar.FestivalsForMonth(m, "")
	names := make([]string, 0, len(fests))
	for _, f := range fests {
		names = append(names, f.Name)
	}
	return names
}
