package prompts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/calebmoss/storyweave/pkg/session"
)

var titleCaser = cases.Title(language.English)

// RenderStats formats the current relationship state for injection
// into the system prompt, e.g. "Affection: 62, Trust: 55". Attribute
// names are sorted so the rendering is deterministic regardless of map
// insertion order.
func RenderStats(stats session.Stats) string {
	if len(stats) == 0 {
		return ""
	}

	attrs := make([]string, 0, len(stats))
	for attr := range stats {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, fmt.Sprintf("%s: %d", titleCaser.String(attr), stats[attr]))
	}
	return strings.Join(parts, ", ")
}
