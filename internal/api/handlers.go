package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Praveenbabu5991/ContentStudio/internal/flow"
	"github.com/Praveenbabu5991/ContentStudio/internal/models"
)

// chatRequest is the body of POST /chat. An empty session_id starts a new
// session for the user.
type chatRequest struct {
	UserID      string            `json:"user_id"`
	SessionID   string            `json:"session_id,omitempty"`
	Message     string            `json:"message"`
	Attachments []flow.Attachment `json:"attachments,omitempty"`
}

// createSessionRequest is the body of POST /sessions.
type createSessionRequest struct {
	UserID string `json:"user_id"`
}

// uploadResponse describes a stored upload for later use in chat attachments.
type uploadResponse struct {
	Filename    string             `json:"filename"`
	Path        string             `json:"path"`
	ContentType string             `json:"content_type"`
	UsageIntent models.UsageIntent `json:"usage_intent"`
}

// allowedUploadTypes is the image content-type allowlist for uploads.
var allowedUploadTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	result, err := s.engine.ProcessTurn(r.Context(), req.UserID, req.SessionID, req.Message, req.Attachments)
	if err != nil {
		status := http.StatusInternalServerError
		category := models.ErrorCategoryUnknown
		switch {
		case errors.Is(err, models.ErrEmptyUserID), errors.Is(err, models.ErrEmptyMessage):
			status = http.StatusBadRequest
			category = ""
		case errors.Is(err, models.ErrSessionNotFound):
			status = http.StatusNotFound
			category = models.ErrorCategoryNotFound
		case errors.Is(err, models.ErrTurnInProgress):
			status = http.StatusConflict
			category = models.ErrorCategoryBusy
		}
		slog.Warn("Server.chatHandler: turn failed", "userID", req.UserID, "status", status, "error", err)
		if category == "" {
			writeJSONResponse(w, status, models.Error(err.Error()))
		} else {
			writeJSONResponse(w, status, errorWithCategory(category, err.Error()))
		}
		return
	}
	slog.Info("Server.chatHandler: turn processed", "sessionID", result.SessionID, "state", result.State)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// sessionsHandler routes /sessions, /sessions/{user} and
// /sessions/{user}/{id}.
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.sessionsHandler invoked", "method", r.Method, "path", r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/sessions")
	path = strings.TrimPrefix(path, "/")
	segments := strings.Split(path, "/")

	if len(segments) == 0 || segments[0] == "" {
		// /sessions
		switch r.Method {
		case http.MethodPost:
			s.createSessionHandler(w, r)
		default:
			w.Header().Set("Allow", http.MethodPost)
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	userID := segments[0]
	if len(segments) == 1 {
		// /sessions/{user}
		switch r.Method {
		case http.MethodGet:
			s.listSessionsHandler(w, r, userID)
		default:
			w.Header().Set("Allow", http.MethodGet)
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	if len(segments) == 2 {
		// /sessions/{user}/{id}
		sessionID := segments[1]
		switch r.Method {
		case http.MethodGet:
			s.getSessionHandler(w, r, userID, sessionID)
		case http.MethodDelete:
			s.deleteSessionHandler(w, r, userID, sessionID)
		default:
			w.Header().Set("Allow", "GET, DELETE")
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown sessions endpoint"))
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.createSessionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	state, err := s.sessions.Create(req.UserID)
	if err != nil {
		slog.Warn("Server.createSessionHandler: create failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	slog.Info("Server.createSessionHandler: session created", "sessionID", state.SessionID, "userID", req.UserID)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Session created", state))
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request, userID string) {
	states := s.sessions.ListByUser(userID)
	slog.Debug("Server.listSessionsHandler: sessions listed", "userID", userID, "count", len(states))
	writeJSONResponse(w, http.StatusOK, models.Success(states))
}

func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request, userID, sessionID string) {
	state, err := s.sessions.Get(sessionID)
	if err != nil || state.UserID != userID {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request, userID, sessionID string) {
	if err := s.sessions.Delete(userID, sessionID); err != nil {
		slog.Warn("Server.deleteSessionHandler: delete failed", "sessionID", sessionID, "error", err)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	slog.Info("Server.deleteSessionHandler: session deleted", "sessionID", sessionID, "userID", userID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
}

// uploadHandler accepts a multipart image upload (field "file") with an
// optional "usage_intent" field and stores it for use as a chat attachment.
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.uploadHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(DefaultMaxUploadBytes); err != nil {
		slog.Warn("Server.uploadHandler: failed to parse form", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: file"))
		return
	}
	defer file.Close()

	// sniff the content type rather than trusting the client header
	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		slog.Error("Server.uploadHandler: failed to read upload", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read upload"))
		return
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		slog.Warn("Server.uploadHandler: rejected content type", "contentType", contentType, "filename", header.Filename)
		writeJSONResponse(w, http.StatusUnsupportedMediaType, models.Error("Unsupported image type: "+contentType))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		slog.Error("Server.uploadHandler: failed to rewind upload", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read upload"))
		return
	}

	intent := models.UsageIntent(r.FormValue("usage_intent"))
	if intent == "" {
		intent = models.IntentAuto
	}
	if !models.IsValidUsageIntent(intent) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid usage_intent: "+string(intent)))
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		slog.Error("Server.uploadHandler: failed to create upload dir", "dir", s.uploadDir, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to store upload"))
		return
	}
	destPath := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	dest, err := os.Create(destPath)
	if err != nil {
		slog.Error("Server.uploadHandler: failed to create file", "path", destPath, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to store upload"))
		return
	}
	defer dest.Close()
	if _, err := io.Copy(dest, file); err != nil {
		slog.Error("Server.uploadHandler: failed to write file", "path", destPath, "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to store upload"))
		return
	}

	slog.Info("Server.uploadHandler: upload stored", "path", destPath, "contentType", contentType, "intent", intent)
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Upload stored", uploadResponse{
		Filename:    header.Filename,
		Path:        destPath,
		ContentType: contentType,
		UsageIntent: intent,
	}))
}

// recentContentHandler returns the generated-content log, newest first
// (GET /content/recent?limit=N).
func (s *Server) recentContentHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.recentContentHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := DefaultRecentContentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit"))
			return
		}
		limit = n
	}
	if limit > MaxRecentContentLimit {
		limit = MaxRecentContentLimit
	}
	content, err := s.store.GetRecentContent(limit)
	if err != nil {
		slog.Error("Server.recentContentHandler: fetch failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch content"))
		return
	}
	slog.Debug("Server.recentContentHandler: content fetched", "count", len(content))
	writeJSONResponse(w, http.StatusOK, models.Success(content))
}

// healthHandler provides a health check endpoint for monitoring.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"context":   s.store.ContextSummary(),
	}
	writeJSONResponse(w, http.StatusOK, healthData)
}
