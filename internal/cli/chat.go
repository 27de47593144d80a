package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jhartinger/vitacoach-go/internal/client"
	"github.com/jhartinger/vitacoach-go/internal/coach"
)

var (
	chatServer      string
	chatSessionID   string
	chatPersonality string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the coach",
	Long: `Start an interactive chat with the coach against a running
vitacoach-server. Replies stream in as the model produces them.

Examples:
  vitacoach chat
  vitacoach chat --personality direct
  vitacoach chat --session sess-abc123`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServer, "server", "", "server URL (default VITACOACH_SERVER_URL or localhost:8474)")
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "continue an existing conversation")
	chatCmd.Flags().StringVar(&chatPersonality, "personality", "", "coach personality: supportive, direct, playful")
}

func runChat(cmd *cobra.Command, args []string) error {
	c := client.New(chatServer)
	stream, err := c.OpenStream(context.Background())
	if err != nil {
		return fmt.Errorf("connect to server: %w", err)
	}
	defer stream.Close()

	model := newChatModel(stream, owner, chatSessionID, chatPersonality)
	p := tea.NewProgram(model)

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	if m, ok := final.(chatModel); ok && m.err != nil {
		return m.err
	}
	return nil
}

// chatTheme holds the color scheme for the chat display.
type chatTheme struct {
	You   lipgloss.Color
	Coach lipgloss.Color
	Hint  lipgloss.Color
	Error lipgloss.Color
}

var defaultChatTheme = chatTheme{
	You:   lipgloss.Color("#5FAFD7"), // light blue
	Coach: lipgloss.Color("#00D787"), // green
	Hint:  lipgloss.Color("#6C6C6C"), // dim gray
	Error: lipgloss.Color("#FF005F"), // red
}

func (t chatTheme) youStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.You).Bold(true)
}

func (t chatTheme) coachStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Coach).Bold(true)
}

func (t chatTheme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t chatTheme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

// Messages flowing through the chat UI.
type (
	sentMsg      struct{}
	frameMsg     coach.Frame
	streamErrMsg struct{ err error }
)

// chatModel is the bubbletea model for the chat REPL.
type chatModel struct {
	stream *client.Stream

	owner       string
	sessionID   string
	personality string
	title       string

	input   textinput.Model
	spinner spinner.Model
	theme   chatTheme

	transcript []string
	partial    strings.Builder
	waiting    bool
	quitting   bool
	err        error
}

func newChatModel(stream *client.Stream, owner, sessionID, personality string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask your coach..."
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		stream:      stream,
		owner:       owner,
		sessionID:   sessionID,
		personality: personality,
		input:       ti,
		spinner:     sp,
		theme:       defaultChatTheme,
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.transcript = append(m.transcript, m.theme.youStyle().Render("You: ")+text)
			m.input.SetValue("")
			m.waiting = true
			return m, m.sendTurn(text)
		}

	case sentMsg:
		return m, m.readFrame()

	case frameMsg:
		f := coach.Frame(msg)
		if f.TextDelta != "" {
			m.partial.WriteString(f.TextDelta)
		}
		if f.SessionID != "" {
			m.sessionID = f.SessionID
		}
		if f.ConversationTitle != "" {
			m.title = f.ConversationTitle
		}
		if !f.Complete {
			return m, m.readFrame()
		}
		reply := strings.TrimSpace(m.partial.String())
		m.partial.Reset()
		m.waiting = false
		if reply != "" {
			m.transcript = append(m.transcript, m.theme.coachStyle().Render("Coach: ")+reply)
		}
		if f.Error != "" && reply == "" {
			m.transcript = append(m.transcript, m.theme.errorStyle().Render("The coach could not respond. Try again."))
		}
		return m, nil

	case streamErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render("Bye! Keep moving.\n")
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(m.theme.hintStyle().Render(m.title) + "\n\n")
	}
	for _, line := range m.transcript {
		b.WriteString(line + "\n")
	}

	if m.waiting {
		if m.partial.Len() > 0 {
			b.WriteString(m.theme.coachStyle().Render("Coach: ") + m.partial.String() + "\n")
		} else {
			b.WriteString(m.spinner.View() + " thinking...\n")
		}
	} else {
		b.WriteString("\n" + m.input.View() + "\n")
		b.WriteString(m.theme.hintStyle().Render("Enter to send, Esc to quit") + "\n")
	}

	return b.String()
}

// sendTurn submits the message on the stream.
// Runs as a command to keep Update non-blocking.
func (m chatModel) sendTurn(text string) tea.Cmd {
	req := coach.Request{
		Owner:       m.owner,
		Message:     text,
		SessionID:   m.sessionID,
		Personality: m.personality,
	}
	return func() tea.Msg {
		if err := m.stream.Send(req); err != nil {
			return streamErrMsg{err: err}
		}
		return sentMsg{}
	}
}

// readFrame reads the next frame from the stream.
func (m chatModel) readFrame() tea.Cmd {
	return func() tea.Msg {
		f, err := m.stream.Next()
		if err != nil {
			return streamErrMsg{err: err}
		}
		return frameMsg(f)
	}
}
