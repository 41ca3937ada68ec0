package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/calebmoss/storyweave/pkg/engine"
	"github.com/calebmoss/storyweave/pkg/story"
)

// StoryHandler serves the immutable story catalog.
// Routes:
//
//	GET /v1/stories                 - list catalog summaries
//	GET /v1/stories/{id}            - story detail
//	GET /v1/stories/{id}/sessions   - sessions for a story
type StoryHandler struct {
	catalog *story.Catalog
	engine  *engine.Engine
	logger  *slog.Logger
}

func NewStoryHandler(catalog *story.Catalog, eng *engine.Engine, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{
		catalog: catalog,
		engine:  eng,
		logger:  logger,
	}
}

func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for stories endpoint", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/stories"), "/")
	if path == "" {
		writeJSON(w, h.logger, http.StatusOK, h.catalog.Summaries())
		return
	}

	parts := strings.Split(path, "/")
	storyID := parts[0]

	st, ok := h.catalog.Story(storyID)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, fmt.Sprintf("story %q not found", storyID))
		return
	}

	switch {
	case len(parts) == 1:
		writeJSON(w, h.logger, http.StatusOK, st)
	case len(parts) == 2 && parts[1] == "sessions":
		sessions, err := h.engine.SessionsForStory(r.Context(), storyID)
		if err != nil {
			writeEngineError(w, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, sessions)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown stories path")
	}
}
