package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/calebmoss/storyweave/internal/services"
	"github.com/calebmoss/storyweave/internal/storage"
	"github.com/calebmoss/storyweave/pkg/chat"
	"github.com/calebmoss/storyweave/pkg/engine"
	"github.com/calebmoss/storyweave/pkg/session"
	"github.com/calebmoss/storyweave/pkg/story"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCatalog(t *testing.T) *story.Catalog {
	t.Helper()
	st := &story.Story{
		ID:           "harbor",
		Title:        "Harbor",
		EntrySceneID: "s1",
		DefaultStats: map[string]int{"trust": 50},
		Scenes: []story.Scene{
			{
				ID:   "s1",
				Type: story.SceneNarrative,
				Text: "An opening.",
				Choices: []story.Choice{
					{Text: "A", NextSceneID: "s2", Effects: map[string]int{"trust": 2}},
					{Text: "B", NextSceneID: "s3"},
				},
			},
			{
				ID:            "s2",
				Type:          story.SceneChat,
				CharacterName: "Mara",
				SystemPrompt:  "P",
				SceneTriggers: []story.SceneTrigger{{Keyword: "home", NextSceneID: "arrival"}},
			},
			{ID: "s3", Type: story.SceneNarrative, Text: "A bridge.", NextSceneID: "arrival"},
			{ID: "arrival", Type: story.SceneNarrative, Text: "The end."},
		},
	}
	catalog, err := story.NewCatalog(st)
	if err != nil {
		t.Fatalf("Failed to build test catalog: %v", err)
	}
	return catalog
}

func setupSessionHandler(t *testing.T) (*SessionHandler, *engine.Engine, *storage.MockStorage, *services.MockDialogue) {
	t.Helper()
	store := storage.NewMockStorage()
	dialogue := services.NewMockDialogue()
	eng := engine.New(testCatalog(t), store, dialogue, testLogger())
	return NewSessionHandler(eng, testLogger()), eng, store, dialogue
}

func TestSessionHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful create",
			method:         http.MethodPost,
			body:           CreateSessionRequest{StoryID: "harbor"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "method not allowed",
			method:         http.MethodGet,
			body:           nil,
			expectedStatus: http.StatusMethodNotAllowed,
			expectedError:  "Method not allowed. Only POST is supported at /v1/sessions.",
		},
		{
			name:           "invalid JSON body",
			method:         http.MethodPost,
			body:           "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request body. Expected JSON with 'story_id' field.",
		},
		{
			name:           "missing story id",
			method:         http.MethodPost,
			body:           CreateSessionRequest{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "story_id is required",
		},
		{
			name:           "unknown story",
			method:         http.MethodPost,
			body:           CreateSessionRequest{StoryID: "missing"},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, _, _ := setupSessionHandler(t)

			var bodyReader *bytes.Reader
			if tt.body != nil {
				if s, ok := tt.body.(string); ok {
					bodyReader = bytes.NewReader([]byte(s))
				} else {
					data, err := json.Marshal(tt.body)
					assert.NoError(t, err)
					bodyReader = bytes.NewReader(data)
				}
			} else {
				bodyReader = bytes.NewReader(nil)
			}

			req := httptest.NewRequest(tt.method, "/v1/sessions", bodyReader)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tt.expectedError != "" {
				var resp ErrorResponse
				assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Contains(t, resp.Error, tt.expectedError)
				return
			}
			if tt.expectedStatus == http.StatusCreated {
				var s session.Session
				assert.NoError(t, json.NewDecoder(w.Body).Decode(&s))
				assert.Equal(t, "harbor", s.StoryID)
				assert.Equal(t, "s1", s.CurrentSceneID)
				assert.Equal(t, 50, s.Stats["trust"])
			}
		})
	}
}

func TestSessionHandler_ReadAndDelete(t *testing.T) {
	handler, eng, _, _ := setupSessionHandler(t)
	ctx := context.Background()

	s, err := eng.CreateSession(ctx, "harbor", nil)
	assert.NoError(t, err)

	// Read it back.
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+s.ID.String(), nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var loaded session.Session
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&loaded))
	assert.Equal(t, s.ID, loaded.ID)

	// Delete it.
	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+s.ID.String(), nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Reading it again is a 404.
	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+s.ID.String(), nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_InvalidSessionID(t *testing.T) {
	handler, _, _, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Invalid session ID format", resp.Error)
}

func TestSessionHandler_Choice(t *testing.T) {
	handler, eng, _, _ := setupSessionHandler(t)
	ctx := context.Background()

	s, err := eng.CreateSession(ctx, "harbor", nil)
	assert.NoError(t, err)

	body, _ := json.Marshal(ChoiceRequest{ChoiceIndex: 0})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/choice", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var updated session.Session
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "s2", updated.CurrentSceneID)
	assert.Equal(t, 52, updated.Stats["trust"])

	// Out-of-range index maps to 400.
	body, _ = json.Marshal(ChoiceRequest{ChoiceIndex: 5})
	req = httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/choice", bytes.NewReader(body))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_Continue(t *testing.T) {
	handler, eng, _, _ := setupSessionHandler(t)
	ctx := context.Background()

	s, err := eng.CreateSession(ctx, "harbor", nil)
	assert.NoError(t, err)
	_, err = eng.ApplyChoice(ctx, s.ID, 1) // B -> s3
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/continue", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var updated session.Session
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "arrival", updated.CurrentSceneID)
	assert.True(t, updated.IsCompleted)
}

func TestSessionHandler_Message(t *testing.T) {
	handler, eng, _, dialogue := setupSessionHandler(t)
	ctx := context.Background()
	dialogue.GenerateReplyFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return "Glad you stayed.", nil
	}

	s, err := eng.CreateSession(ctx, "harbor", nil)
	assert.NoError(t, err)
	_, err = eng.ApplyChoice(ctx, s.ID, 0) // reach chat scene s2
	assert.NoError(t, err)

	body, _ := json.Marshal(chat.MessageRequest{Text: "why did you miss the ferry?"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/message", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp chat.MessageResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Glad you stayed.", resp.Reply)
	assert.False(t, resp.SceneChanged)
	assert.Equal(t, "s2", resp.CurrentSceneID)
}

func TestSessionHandler_MessageSceneTrigger(t *testing.T) {
	handler, eng, _, _ := setupSessionHandler(t)
	ctx := context.Background()

	s, err := eng.CreateSession(ctx, "harbor", nil)
	assert.NoError(t, err)
	_, err = eng.ApplyChoice(ctx, s.ID, 0)
	assert.NoError(t, err)

	body, _ := json.Marshal(chat.MessageRequest{Text: "see you at home"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/message", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp chat.MessageResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.SceneChanged)
	assert.Empty(t, resp.Reply)
	assert.Equal(t, "arrival", resp.CurrentSceneID)
}

func TestSessionHandler_MessageValidation(t *testing.T) {
	handler, eng, _, _ := setupSessionHandler(t)
	ctx := context.Background()

	s, err := eng.CreateSession(ctx, "harbor", nil)
	assert.NoError(t, err)

	body, _ := json.Marshal(chat.MessageRequest{Text: ""})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/message", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "text cannot be empty")
}

func TestSessionHandler_PersistenceFailure(t *testing.T) {
	handler, eng, store, _ := setupSessionHandler(t)
	ctx := context.Background()

	s, err := eng.CreateSession(ctx, "harbor", nil)
	assert.NoError(t, err)

	store.SetSaveError(assert.AnError)

	body, _ := json.Marshal(ChoiceRequest{ChoiceIndex: 0})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+s.ID.String()+"/choice", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp ErrorResponse
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Could not save progress. Please try again.", resp.Error)
}

func TestSessionHandler_UnknownAction(t *testing.T) {
	handler, _, _, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+uuid.NewString()+"/teleport", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
