// Package textmatch scans reader-submitted free text for authored
// trigger keywords. Matching is case-insensitive substring containment
// using Unicode case folding, so keywords authored in any casing match
// text typed in any casing.
package textmatch

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/calebmoss/storyweave/pkg/story"
)

var folder = cases.Fold()

// Contains reports whether text contains keyword, ignoring case.
func Contains(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(folder.String(text), folder.String(keyword))
}

// Result holds the triggers fired by one submitted message. Scene and
// Image are evaluated independently: the same message may both reveal
// images and transition the scene.
type Result struct {
	Scene *story.SceneTrigger
	Image *story.ImageTrigger
}

// Match evaluates the scene's triggers against submitted text.
// Triggers are checked in declaration order and the first match in
// each category wins. No match leaves the corresponding field nil.
func Match(text string, sceneTriggers []story.SceneTrigger, imageTriggers []story.ImageTrigger) Result {
	var r Result
	for i := range sceneTriggers {
		if Contains(text, sceneTriggers[i].Keyword) {
			r.Scene = &sceneTriggers[i]
			break
		}
	}
	for i := range imageTriggers {
		if Contains(text, imageTriggers[i].Keyword) {
			r.Image = &imageTriggers[i]
			break
		}
	}
	return r
}
