// Package flow drives a Content Studio conversation: it applies the policy's
// decision to the session's workflow state, executes the chosen capability,
// and renders a reply. All state movement goes through the transition table;
// a capability failure restores the workflow state recorded before the turn.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Praveenbabu5991/ContentStudio/internal/capability"
	"github.com/Praveenbabu5991/ContentStudio/internal/memory"
	"github.com/Praveenbabu5991/ContentStudio/internal/models"
	"github.com/Praveenbabu5991/ContentStudio/internal/notify"
	"github.com/Praveenbabu5991/ContentStudio/internal/policy"
	"github.com/Praveenbabu5991/ContentStudio/internal/session"
)

// Capabilities bundles the generation backends the engine can call. Nil
// entries are allowed; an operation that needs a missing capability fails
// with models.ErrUnknownCapability instead of panicking.
type Capabilities struct {
	Images   capability.ImageGenerator
	Editor   capability.ImageEditor
	Video    capability.VideoGenerator
	Writer   capability.ContentWriter
	Ideas    capability.IdeaWriter
	Calendar capability.CalendarLookup
	Trends   capability.TrendLookup
}

// Attachment is an image uploaded alongside a message.
type Attachment struct {
	Filename string             `json:"filename"`
	Path     string             `json:"path"`
	Intent   models.UsageIntent `json:"usage_intent,omitempty"`
	Colors   []string           `json:"extracted_colors,omitempty"`
}

// TurnResult is everything one processed turn produced.
type TurnResult struct {
	SessionID     string               `json:"session_id"`
	UserID        string               `json:"user_id"`
	State         models.WorkflowState `json:"state"`
	Mode          models.Mode          `json:"mode,omitempty"`
	Reply         string               `json:"reply"`
	Ideas         []models.Idea        `json:"ideas,omitempty"`
	Brief         *models.VisualBrief  `json:"brief,omitempty"`
	ImagePath     string               `json:"image_path,omitempty"`
	VideoLocation string               `json:"video_location,omitempty"`
	Caption       string               `json:"caption,omitempty"`
	Hashtags      []string             `json:"hashtags,omitempty"`
	CarouselPaths []string             `json:"carousel_paths,omitempty"`
	ErrorCategory models.ErrorCategory `json:"error_category,omitempty"`
}

// Opts holds the optional engine configuration.
type Opts struct {
	Notifier notify.Notifier
}

// Option configures the engine.
type Option func(*Opts)

// WithNotifier sets the notifier used for long-running results.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Opts) { o.Notifier = n }
}

// Engine executes conversation turns against session state.
type Engine struct {
	sessions *session.Manager
	store    memory.Store
	policy   policy.Policy
	caps     Capabilities
	notifier notify.Notifier
}

// NewEngine creates an engine over the given session manager, memory store,
// policy and capability set.
func NewEngine(sessions *session.Manager, store memory.Store, pol policy.Policy, caps Capabilities, opts ...Option) *Engine {
	options := Opts{Notifier: notify.NoopNotifier{}}
	for _, opt := range opts {
		opt(&options)
	}
	return &Engine{
		sessions: sessions,
		store:    store,
		policy:   pol,
		caps:     caps,
		notifier: options.Notifier,
	}
}

// ProcessTurn handles one user message. An empty sessionID starts a new
// session for the user. The turn runs under the session's turn lock, so a
// second concurrent call for the same session fails fast with
// models.ErrTurnInProgress.
func (e *Engine) ProcessTurn(ctx context.Context, userID, sessionID, message string, attachments []Attachment) (*TurnResult, error) {
	slog.Debug("Engine ProcessTurn invoked", "userID", userID, "sessionID", sessionID, "attachments", len(attachments))
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}
	if sessionID == "" {
		state, err := e.sessions.Create(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = state.SessionID
	}

	var result *TurnResult
	err := e.sessions.Do(sessionID, func(state *models.SessionState) error {
		if state.UserID != userID {
			return models.ErrSessionNotFound
		}
		r, err := e.processTurn(ctx, state, message, attachments)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		slog.Error("Engine ProcessTurn failed", "sessionID", sessionID, "error", err)
		return nil, err
	}
	slog.Info("Engine ProcessTurn succeeded", "sessionID", sessionID, "state", result.State)
	return result, nil
}

// processTurn runs under the session turn lock.
func (e *Engine) processTurn(ctx context.Context, state *models.SessionState, message string, attachments []Attachment) (*TurnResult, error) {
	result := &TurnResult{SessionID: state.SessionID, UserID: state.UserID}
	for _, att := range attachments {
		e.ingestAttachment(state, att)
	}

	msg := strings.TrimSpace(message)
	if msg == "" {
		if len(attachments) == 0 {
			return nil, models.ErrEmptyMessage
		}
		result.State = state.WorkflowState
		result.Mode = state.Mode
		result.Reply = fmt.Sprintf("Saved %d image(s) to your brand library.", len(attachments))
		return result, nil
	}

	snapshot := state.WorkflowState
	decision, err := e.policy.Decide(ctx, state, msg)
	if err != nil {
		return nil, err
	}

	for _, hop := range decision.Path {
		if err := state.Transition(hop); err != nil {
			state.ForceTransition(snapshot)
			slog.Warn("Engine rejected workflow path", "sessionID", state.SessionID, "from", snapshot, "to", hop, "error", err)
			result.State = snapshot
			result.Mode = state.Mode
			result.Reply = staleStateReply(snapshot)
			return result, nil
		}
		e.enterState(state, hop)
	}

	reply := decision.Reply
	if decision.Op != policy.OpNone {
		opReply, opErr := e.runOp(ctx, state, decision.Op, msg, result)
		if opErr != nil {
			state.ForceTransition(snapshot)
			result.State = snapshot
			result.Mode = state.Mode
			result.Reply, result.ErrorCategory = e.failureReply(decision.Op, opErr)
			return result, nil
		}
		if opReply != "" {
			reply = opReply
		}
		if decision.OnDone != "" && state.WorkflowState != decision.OnDone {
			if err := state.Transition(decision.OnDone); err != nil {
				state.ForceTransition(snapshot)
				return nil, fmt.Errorf("completion transition failed after %s: %w", decision.Op, err)
			}
		}
	}

	result.State = state.WorkflowState
	result.Mode = state.Mode
	result.Reply = reply
	if err := e.store.SetSessionContext(state.SessionID, state.ContextSummary()); err != nil {
		slog.Warn("Engine session context save failed", "sessionID", state.SessionID, "error", err)
	}
	return result, nil
}

// enterState applies the side effects of arriving at a state: mode selection
// and the context resets that stop one post's scratch state leaking into the
// next.
func (e *Engine) enterState(state *models.SessionState, entered models.WorkflowState) {
	switch entered {
	case models.StateModeSelection:
		state.Post.Reset()
	case models.StatePostIdeaSource:
		state.Mode = models.ModeSingle
	case models.StateIdeaRequest:
		if state.Mode == "" {
			state.Mode = models.ModeSingle
		}
	case models.StateGeneralImagePrompt:
		state.Mode = models.ModeGeneral
	case models.StateCampaignSetup:
		state.Mode = models.ModeCampaign
		state.Campaign.Reset()
		state.Post.Reset()
	case models.StateCarouselSetup:
		state.Mode = models.ModeCarousel
		state.Post.Reset()
	}
}

// ingestAttachment records an uploaded image on the brand context.
func (e *Engine) ingestAttachment(state *models.SessionState, att Attachment) {
	intent := att.Intent
	if intent == "" || !models.IsValidUsageIntent(intent) {
		intent = models.IntentAuto
	}
	state.Brand.UserImages = append(state.Brand.UserImages, models.UserImage{
		ID:              uuid.NewString(),
		Filename:        att.Filename,
		Path:            att.Path,
		UploadedAt:      time.Now().UTC().Format(time.RFC3339),
		UsageIntent:     intent,
		ExtractedColors: att.Colors,
	})
	// A logo carries the brand identity: remember its path and let its
	// palette stand in until the user states colors explicitly.
	if intent == models.IntentLogoBadge {
		state.Brand.LogoPath = att.Path
		if len(state.Brand.Colors) == 0 && len(att.Colors) > 0 {
			state.Brand.Colors = append([]string(nil), att.Colors...)
		}
	}
	slog.Debug("Engine attachment ingested", "sessionID", state.SessionID, "filename", att.Filename, "intent", intent)
}

// failureReply turns an operation error into a user-facing reply. Missing
// prerequisites get a pointed hint; everything else is classified.
func (e *Engine) failureReply(op policy.Operation, err error) (string, models.ErrorCategory) {
	switch {
	case errors.Is(err, models.ErrMissingBrief):
		return "There's no approved brief yet. Pick an idea or describe the post first.", ""
	case errors.Is(err, models.ErrMissingImage):
		return "There's no image to work with yet. Generate one first.", ""
	case errors.Is(err, models.ErrUnknownCapability):
		slog.Error("Engine capability not configured", "op", op, "error", err)
		return "That feature isn't available right now.", models.ErrorCategoryConfig
	}
	capErr := capability.Classify(err)
	slog.Error("Engine op failed", "op", op, "category", capErr.Category, "error", err)
	return capErr.Message, capErr.Category
}

func staleStateReply(state models.WorkflowState) string {
	next := models.ValidNextStates(state)
	if len(next) == 0 {
		return "I can't do that from here. Let's start something new."
	}
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	return fmt.Sprintf("I can't do that from here (currently at %s). Possible next steps: %s.",
		state, strings.Join(names, ", "))
}
