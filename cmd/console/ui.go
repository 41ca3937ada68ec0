package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/calebmoss/storyweave/pkg/chat"
	"github.com/calebmoss/storyweave/pkg/session"
	"github.com/calebmoss/storyweave/pkg/story"
)

const placeholderText = "Type a choice number or a message..."

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	narrativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// consoleUI is the BubbleTea model that runs the reader client.
type consoleUI struct {
	api   *apiClient
	story *story.Story
	sess  *session.Session

	viewport   viewport.Model
	textarea   textarea.Model
	transcript []string
	ready      bool
	width      int
	height     int
	loading    bool
	err        error
}

type sessionMsg struct {
	sess *session.Session
	err  error
}

type replyMsg struct {
	resp *chat.MessageResponse
	err  error
}

func newConsoleUI(api *apiClient, st *story.Story, sess *session.Session) *consoleUI {
	ta := textarea.New()
	ta.Placeholder = placeholderText
	ta.Focus()
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	ui := &consoleUI{
		api:      api,
		story:    st,
		sess:     sess,
		textarea: ta,
	}
	ui.appendScene()
	return ui
}

func (ui *consoleUI) Init() tea.Cmd {
	return textarea.Blink
}

// currentScene resolves the session's scene in the loaded story.
func (ui *consoleUI) currentScene() *story.Scene {
	sc, ok := ui.story.Scene(ui.sess.CurrentSceneID)
	if !ok {
		return nil
	}
	return sc
}

// appendScene renders the current scene into the transcript.
func (ui *consoleUI) appendScene() {
	sc := ui.currentScene()
	if sc == nil {
		ui.transcript = append(ui.transcript, errorStyle.Render("Scene not found: "+ui.sess.CurrentSceneID))
		return
	}

	switch sc.Type {
	case story.SceneNarrative:
		ui.transcript = append(ui.transcript, narrativeStyle.Render(sc.Text))
		for i, c := range sc.Choices {
			ui.transcript = append(ui.transcript, choiceStyle.Render(fmt.Sprintf("  %d. %s", i+1, c.Text)))
		}
		if sc.IsTerminal() {
			ui.transcript = append(ui.transcript, titleStyle.Render("~ The End ~"))
		} else if len(sc.Choices) == 0 {
			ui.transcript = append(ui.transcript, statsStyle.Render("(press enter to continue)"))
		}
	case story.SceneChat:
		ui.transcript = append(ui.transcript, speakerStyle.Render(sc.CharacterName)+narrativeStyle.Render(" is here. Say something."))
	}
}

func (ui *consoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)
	ui.textarea, taCmd = ui.textarea.Update(msg)
	ui.viewport, vpCmd = ui.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		ui.width = msg.Width
		ui.height = msg.Height
		if !ui.ready {
			ui.viewport = viewport.New(msg.Width, msg.Height-6)
			ui.ready = true
		} else {
			ui.viewport.Width = msg.Width
			ui.viewport.Height = msg.Height - 6
		}
		ui.textarea.SetWidth(msg.Width - 2)
		ui.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return ui, tea.Quit
		case tea.KeyEnter:
			if ui.loading {
				return ui, nil
			}
			input := strings.TrimSpace(ui.textarea.Value())
			ui.textarea.Reset()
			return ui, ui.submit(input)
		}

	case sessionMsg:
		ui.loading = false
		if msg.err != nil {
			ui.err = msg.err
			ui.transcript = append(ui.transcript, errorStyle.Render(msg.err.Error()))
		} else {
			ui.sess = msg.sess
			ui.appendScene()
		}
		ui.refreshViewport()

	case replyMsg:
		ui.loading = false
		if msg.err != nil {
			ui.err = msg.err
			ui.transcript = append(ui.transcript, errorStyle.Render(msg.err.Error()))
			ui.refreshViewport()
			return ui, taCmd
		}
		return ui, ui.handleReply(msg.resp)
	}

	return ui, tea.Batch(taCmd, vpCmd)
}

// submit dispatches the reader's input based on the current scene.
func (ui *consoleUI) submit(input string) tea.Cmd {
	sc := ui.currentScene()
	if sc == nil {
		return nil
	}

	switch {
	case sc.Type == story.SceneChat:
		if input == "" {
			return nil
		}
		ui.transcript = append(ui.transcript, userStyle.Render("You: "+input))
		ui.loading = true
		ui.refreshViewport()
		id := ui.sess.ID
		return func() tea.Msg {
			resp, err := ui.api.sendMessage(id, input)
			return replyMsg{resp: resp, err: err}
		}

	case len(sc.Choices) > 0:
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(sc.Choices) {
			ui.transcript = append(ui.transcript, errorStyle.Render(fmt.Sprintf("Pick a number between 1 and %d.", len(sc.Choices))))
			ui.refreshViewport()
			return nil
		}
		ui.transcript = append(ui.transcript, userStyle.Render("> "+sc.Choices[n-1].Text))
		ui.loading = true
		ui.refreshViewport()
		id := ui.sess.ID
		return func() tea.Msg {
			s, err := ui.api.applyChoice(id, n-1)
			return sessionMsg{sess: s, err: err}
		}

	case sc.NextSceneID != "":
		ui.loading = true
		id := ui.sess.ID
		return func() tea.Msg {
			s, err := ui.api.continueScene(id)
			return sessionMsg{sess: s, err: err}
		}
	}

	return nil
}

// handleReply appends a chat reply and follows a scene transition if
// the message fired a trigger.
func (ui *consoleUI) handleReply(resp *chat.MessageResponse) tea.Cmd {
	sc := ui.currentScene()

	if resp.Reply != "" && sc != nil {
		ui.transcript = append(ui.transcript, speakerStyle.Render(sc.CharacterName+": ")+narrativeStyle.Render(resp.Reply))
	}
	for _, img := range resp.Images {
		ui.transcript = append(ui.transcript, choiceStyle.Render("[image revealed: "+img+"]"))
	}

	if resp.SceneChanged {
		ui.loading = true
		id := ui.sess.ID
		ui.refreshViewport()
		return func() tea.Msg {
			s, err := ui.api.getSession(id)
			return sessionMsg{sess: s, err: err}
		}
	}

	ui.refreshViewport()
	return nil
}

func (ui *consoleUI) refreshViewport() {
	if !ui.ready {
		return
	}
	content := strings.Join(ui.transcript, "\n\n")
	ui.viewport.SetContent(wordwrap.String(content, ui.viewport.Width-2))
	ui.viewport.GotoBottom()
}

func (ui *consoleUI) View() string {
	if !ui.ready {
		return "Loading..."
	}

	header := titleStyle.Render(ui.story.Title)
	if rendered := renderStatsLine(ui.sess.Stats); rendered != "" {
		header += "  " + statsStyle.Render(rendered)
	}
	if ui.loading {
		header += "  " + statsStyle.Render("...")
	}

	return fmt.Sprintf("%s\n%s\n%s", header, ui.viewport.View(), ui.textarea.View())
}

func renderStatsLine(stats session.Stats) string {
	if len(stats) == 0 {
		return ""
	}
	parts := make([]string, 0, len(stats))
	for _, attr := range []string{"affection", "trust", "respect", "friendship"} {
		if v, ok := stats[attr]; ok {
			parts = append(parts, fmt.Sprintf("%s %d", attr, v))
		}
	}
	return strings.Join(parts, " | ")
}
