package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type consoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

func main() {
	cfg := &consoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    60 * time.Second,
	}

	api := &apiClient{
		baseURL: cfg.APIBaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}

	if !api.health() {
		fmt.Fprintf(os.Stderr, "Could not connect to API at %s. Please ensure the API is running.\n", cfg.APIBaseURL)
		os.Exit(1)
	}

	summaries, err := api.listStories()
	if err != nil || len(summaries) == 0 {
		fmt.Fprintf(os.Stderr, "Failed to list stories: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Available Stories:")
	for i, s := range summaries {
		fmt.Printf("  %d - %s (%d scenes)\n", i+1, s.Title, s.SceneCount)
	}
	fmt.Print("\nSelect a story by number: ")

	var choice int
	if _, err := fmt.Scanf("%d", &choice); err != nil || choice < 1 || choice > len(summaries) {
		fmt.Fprintf(os.Stderr, "Invalid selection\n")
		os.Exit(1)
	}

	st, err := api.getStory(summaries[choice-1].ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load story: %v\n", err)
		os.Exit(1)
	}

	sess, err := api.createSession(st.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newConsoleUI(api, st, sess), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
