package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/calebmoss/storyweave/pkg/story"
)

// validate checks authored story files before they ship: strict JSON
// shape, scene union rules, and dangling scene references.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <story.json> [story.json ...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
			failed = true
			continue
		}
		fmt.Printf("%s: ok\n", filename)
	}

	if failed {
		os.Exit(1)
	}
}

func validateFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if !json.Valid(data) {
		return fmt.Errorf("file contains invalid JSON")
	}

	var st story.Story
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&st); err != nil {
		return fmt.Errorf("strict JSON unmarshaling failed: %w", err)
	}

	return st.Validate()
}
