package story

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Catalog is the immutable in-memory registry of stories. It is built
// once at process start and is safe for concurrent reads.
type Catalog struct {
	stories []*Story
	byID    map[string]*Story
}

// NewCatalog builds a catalog from pre-loaded stories, validating each
// one and indexing scenes for O(1) lookup.
func NewCatalog(stories ...*Story) (*Catalog, error) {
	c := &Catalog{
		stories: make([]*Story, 0, len(stories)),
		byID:    make(map[string]*Story, len(stories)),
	}
	for _, st := range stories {
		if err := st.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byID[st.ID]; exists {
			return nil, fmt.Errorf("duplicate story id %q", st.ID)
		}
		st.buildIndex()
		c.stories = append(c.stories, st)
		c.byID[st.ID] = st
	}
	return c, nil
}

// LoadCatalog reads every *.json file under dir as a story definition.
// Files that fail to parse or validate abort the load: bad content is a
// deploy problem, not something to limp past at runtime.
func LoadCatalog(dir string, logger *slog.Logger) (*Catalog, error) {
	var stories []*Story

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read story file %s: %w", path, err)
		}

		var st Story
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("failed to unmarshal story file %s: %w", path, err)
		}

		logger.Debug("Loaded story file", "path", path, "story_id", st.ID, "scenes", len(st.Scenes))
		stories = append(stories, &st)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load stories from %s: %w", dir, err)
	}

	// Directory walk order is already lexical, but make the listing
	// order explicit so /v1/stories is stable.
	sort.Slice(stories, func(i, j int) bool { return stories[i].ID < stories[j].ID })

	return NewCatalog(stories...)
}

// Story returns the story with the given id, if present.
func (c *Catalog) Story(id string) (*Story, bool) {
	st, ok := c.byID[id]
	return st, ok
}

// Stories returns all stories in listing order.
func (c *Catalog) Stories() []*Story {
	return c.stories
}

// Summary is a catalog listing entry.
type Summary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	SceneCount int    `json:"scene_count"`
}

// Summaries returns listing entries for all stories.
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.stories))
	for _, st := range c.stories {
		out = append(out, Summary{ID: st.ID, Title: st.Title, SceneCount: len(st.Scenes)})
	}
	return out
}
