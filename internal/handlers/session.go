package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calebmoss/storyweave/pkg/chat"
	"github.com/calebmoss/storyweave/pkg/engine"
)

// CreateSessionRequest starts a new playthrough of a story.
type CreateSessionRequest struct {
	StoryID   string            `json:"story_id"`
	Variables map[string]string `json:"variables,omitempty"`
}

// ChoiceRequest applies a choice on the current narrative scene.
type ChoiceRequest struct {
	ChoiceIndex int `json:"choice_index"`
}

// SessionHandler handles session lifecycle and reader actions.
// Routes:
//
//	POST   /v1/sessions               - create session
//	GET    /v1/sessions/{id}          - read session
//	DELETE /v1/sessions/{id}          - delete session
//	POST   /v1/sessions/{id}/choice   - apply a choice
//	POST   /v1/sessions/{id}/continue - implicit continue
//	POST   /v1/sessions/{id}/message  - submit a chat message
type SessionHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewSessionHandler(eng *engine.Engine, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		engine: eng,
		logger: logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported at /v1/sessions.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleRead(w, r, sessionID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, sessionID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		switch parts[1] {
		case "choice":
			h.handleChoice(w, r, sessionID)
		case "continue":
			h.handleContinue(w, r, sessionID)
		case "message":
			h.handleMessage(w, r, sessionID)
		default:
			writeError(w, h.logger, http.StatusNotFound, "Unknown session action")
		}
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed for this path")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'story_id' field.")
		return
	}
	if req.StoryID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "story_id is required")
		return
	}

	s, err := h.engine.CreateSession(r.Context(), req.StoryID, req.Variables)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, s)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.engine.GetSession(r.Context(), id)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.engine.DeleteSession(r.Context(), id); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleChoice(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'choice_index' field.")
		return
	}

	s, err := h.engine.ApplyChoice(r.Context(), id, req.ChoiceIndex)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionHandler) handleContinue(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.engine.Continue(r.Context(), id)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, s)
}

func (h *SessionHandler) handleMessage(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req chat.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'text' field.")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	result, err := h.engine.SubmitMessage(r.Context(), id, req.Text)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, chat.MessageResponse{
		Reply:          result.Reply,
		Images:         result.Images,
		SceneChanged:   result.SceneChanged,
		CurrentSceneID: result.Session.CurrentSceneID,
	})
}
