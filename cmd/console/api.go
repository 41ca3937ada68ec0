package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/calebmoss/storyweave/pkg/chat"
	"github.com/calebmoss/storyweave/pkg/session"
	"github.com/calebmoss/storyweave/pkg/story"
)

type apiClient struct {
	baseURL string
	client  *http.Client
}

type apiError struct {
	Error string `json:"error"`
}

func (c *apiClient) get(path string, out any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func (c *apiClient) post(path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	resp, err := c.client.Post(c.baseURL+path, "application/json", reader)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *apiClient) health() bool {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func (c *apiClient) listStories() ([]story.Summary, error) {
	var summaries []story.Summary
	if err := c.get("/v1/stories", &summaries); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return summaries, nil
}

func (c *apiClient) getStory(id string) (*story.Story, error) {
	var st story.Story
	if err := c.get("/v1/stories/"+id, &st); err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return &st, nil
}

func (c *apiClient) createSession(storyID string) (*session.Session, error) {
	var s session.Session
	req := struct {
		StoryID string `json:"story_id"`
	}{StoryID: storyID}
	if err := c.post("/v1/sessions", req, &s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

func (c *apiClient) getSession(id uuid.UUID) (*session.Session, error) {
	var s session.Session
	if err := c.get("/v1/sessions/"+id.String(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *apiClient) applyChoice(id uuid.UUID, index int) (*session.Session, error) {
	var s session.Session
	req := struct {
		ChoiceIndex int `json:"choice_index"`
	}{ChoiceIndex: index}
	if err := c.post("/v1/sessions/"+id.String()+"/choice", req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *apiClient) continueScene(id uuid.UUID) (*session.Session, error) {
	var s session.Session
	if err := c.post("/v1/sessions/"+id.String()+"/continue", struct{}{}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *apiClient) sendMessage(id uuid.UUID, text string) (*chat.MessageResponse, error) {
	var resp chat.MessageResponse
	req := chat.MessageRequest{Text: text}
	if err := c.post("/v1/sessions/"+id.String()+"/message", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
