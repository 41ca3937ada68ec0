package textmatch

import (
	"testing"

	"github.com/calebmoss/storyweave/pkg/story"
)

func TestContains_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keyword  string
		expected bool
	}{
		{"exact match", "meet you at home", "meet you at home", true},
		{"all caps input", "MEET YOU AT HOME", "meet you at home", true},
		{"mixed case input", "Meet You At Home", "meet you at home", true},
		{"caps keyword", "meet you at home", "MEET YOU AT HOME", true},
		{"substring", "ok, see you at home tonight", "home", true},
		{"no match", "see you at the office", "home", false},
		{"empty keyword never matches", "anything", "", false},
		{"empty text", "", "home", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.text, tt.keyword); got != tt.expected {
				t.Errorf("Contains(%q, %q) = %v, expected %v", tt.text, tt.keyword, got, tt.expected)
			}
		})
	}
}

func TestMatch_FirstDeclaredWins(t *testing.T) {
	sceneTriggers := []story.SceneTrigger{
		{Keyword: "home", NextSceneID: "arrival"},
		{Keyword: "walk home", NextSceneID: "stroll"},
	}

	// "walk home" contains both keywords; the first declared wins.
	r := Match("let's walk home", sceneTriggers, nil)
	if r.Scene == nil {
		t.Fatal("Expected a scene trigger match")
	}
	if r.Scene.NextSceneID != "arrival" {
		t.Errorf("Expected first-declared trigger to win, got %s", r.Scene.NextSceneID)
	}
}

func TestMatch_CategoriesIndependent(t *testing.T) {
	sceneTriggers := []story.SceneTrigger{{Keyword: "home", NextSceneID: "arrival"}}
	imageTriggers := []story.ImageTrigger{{Keyword: "photo", Images: []string{"img1"}}}

	r := Match("send me the photo when you get home", sceneTriggers, imageTriggers)
	if r.Scene == nil || r.Scene.NextSceneID != "arrival" {
		t.Error("Expected scene trigger to fire")
	}
	if r.Image == nil || r.Image.Images[0] != "img1" {
		t.Error("Expected image trigger to fire on the same message")
	}

	r = Match("nothing relevant here", sceneTriggers, imageTriggers)
	if r.Scene != nil || r.Image != nil {
		t.Error("Expected no matches")
	}

	r = Match("just the photo please", sceneTriggers, imageTriggers)
	if r.Scene != nil {
		t.Error("Scene trigger should not fire")
	}
	if r.Image == nil {
		t.Error("Image trigger should fire alone")
	}
}
