package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"NewsNarrator/internal/domain"
)

// Narrator is the TUI-facing subset of the application.
type Narrator interface {
	Submit(ctx context.Context, topic string) string
	LatestStory(ctx context.Context) (domain.Story, bool)
}

type role int

const (
	roleUser role = iota
	roleAssistant
)

type chatEntry struct {
	role role
	text string
}

// storyMsg carries the result of one background pipeline run.
type storyMsg struct {
	reply string
	story domain.Story
	found bool
}

// Model is the Bubble Tea model for the chat UI.
type Model struct {
	narrator   Narrator
	ctx        context.Context
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	history    []chatEntry
	lastStory  domain.Story
	hasStory   bool
	showEvents bool
	running    bool
	status     string
	ready      bool
}

// New creates a new chat model bound to narrator.
func New(ctx context.Context, narrator Narrator) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about a news topic and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		narrator: narrator,
		ctx:      ctx,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Enter a topic. Ctrl+E toggles the events behind the last story. Ctrl+C quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, spinner and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, hh := historyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-hh)
		m.refresh()
		return m, nil

	case storyMsg:
		m.running = false
		m.history = append(m.history, chatEntry{role: roleAssistant, text: msg.reply})
		m.lastStory, m.hasStory = msg.story, msg.found
		m.status = "Done."
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "ctrl+e":
			m.showEvents = !m.showEvents
			m.refresh()
			return m, nil
		case "enter":
			topic := strings.TrimSpace(m.input.Value())
			if topic == "" || m.running {
				return m, nil
			}
			m.input.Reset()
			m.history = append(m.history, chatEntry{role: roleUser, text: topic})
			m.running = true
			m.status = "Fetching news and writing the story..."
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.ask(topic))
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(topic string) tea.Cmd {
	narrator, ctx := m.narrator, m.ctx
	return func() tea.Msg {
		reply := narrator.Submit(ctx, topic)
		story, found := narrator.LatestStory(ctx)
		return storyMsg{reply: reply, story: story, found: found}
	}
}

// View renders the chat history, optional events panel, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("News Narrator")
	status := statusStyle.Render(m.status)
	if m.running {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		historyBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return mutedStyle.Render("No messages yet.")
	}
	var b strings.Builder
	for i, e := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.role {
		case roleUser:
			b.WriteString(userStyle.Render("You: ") + e.text)
		default:
			b.WriteString(assistantStyle.Render("Narrator: ") + e.text)
		}
	}
	if m.showEvents {
		b.WriteString("\n\n")
		b.WriteString(renderEvents(m.lastStory, m.hasStory))
	}
	return b.String()
}

func renderEvents(story domain.Story, found bool) string {
	if !found {
		return mutedStyle.Render("No story stored yet.")
	}
	var b strings.Builder
	b.WriteString(eventsHeaderStyle.Render(fmt.Sprintf("Events used (%d)", len(story.Events))))
	if len(story.Events) == 0 {
		b.WriteString("\n" + mutedStyle.Render("none"))
	}
	for _, e := range story.Events {
		b.WriteString("\n- " + e)
	}
	return b.String()
}

var (
	headerStyle       = lipgloss.NewStyle().Bold(true)
	historyBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	mutedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	eventsHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	spinnerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)
