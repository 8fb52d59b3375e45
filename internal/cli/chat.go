package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AdiBot-max/Cube-AI-Trained/internal/client"
	"github.com/AdiBot-max/Cube-AI-Trained/internal/respond"
)

const (
	// askTimeout bounds a single round trip to the backend.
	askTimeout = 30 * time.Second

	// dialTimeout bounds the initial probe for a running server.
	dialTimeout = 3 * time.Second

	// historyWindow is how many exchanges stay on screen.
	historyWindow = 10
)

var (
	chatServer    string
	chatMaxTokens int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session",
	Long: `Start an interactive chat session.

Prefers a running cube server (via --server or CUBE_SERVER_URL) and falls
back to answering directly from the configured corpus when no server is
reachable.

Examples:
  cube chat
  cube chat --server http://localhost:8420`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServer, "server", "", "Server base URL (default: CUBE_SERVER_URL or http://localhost:8420)")
	chatCmd.Flags().IntVarP(&chatMaxTokens, "max-tokens", "m", 0, "Maximum reply length in tokens (0 uses the backend default)")
}

// Theme holds the color scheme for the chat display.
type Theme struct {
	Header lipgloss.Color
	User   lipgloss.Color
	Bot    lipgloss.Color
	Error  lipgloss.Color
	Hint   lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Header: lipgloss.Color("#5FAFD7"), // light blue
	User:   lipgloss.Color("#00D787"), // green
	Bot:    lipgloss.Color("#5FAFD7"), // light blue
	Error:  lipgloss.Color("#FF005F"), // red
	Hint:   lipgloss.Color("#6C6C6C"), // dim gray
}

// Style functions for dynamic theming
func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Header).Bold(true)
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) botStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Bot).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// chatAnswer is one backend reply, whichever backend produced it.
type chatAnswer struct {
	reply  string
	intent string
	label  string
	score  float64
}

// chatBackend answers prompts either over the wire or from the local corpus.
type chatBackend interface {
	ask(ctx context.Context, prompt string) (chatAnswer, error)
	describe() string
	close() error
}

// serverBackend keeps a websocket session to a running daemon.
type serverBackend struct {
	session   *client.ChatSession
	url       string
	maxTokens int
}

func (b *serverBackend) ask(ctx context.Context, prompt string) (chatAnswer, error) {
	rep, err := b.session.Ask(ctx, prompt, b.maxTokens)
	if err != nil {
		return chatAnswer{}, err
	}
	if rep.Error != "" {
		return chatAnswer{}, fmt.Errorf("%s", rep.Error)
	}
	return chatAnswer{reply: rep.Reply, intent: rep.Intent, label: rep.Label, score: rep.Score}, nil
}

func (b *serverBackend) describe() string { return "connected to " + b.url }

func (b *serverBackend) close() error { return b.session.Close() }

// localBackend answers from an in-process responder.
type localBackend struct {
	responder *respond.Responder
	maxTokens int
}

func (b *localBackend) ask(ctx context.Context, prompt string) (chatAnswer, error) {
	res, err := b.responder.Generate(ctx, prompt, b.maxTokens)
	if err != nil {
		return chatAnswer{}, err
	}
	ans := chatAnswer{reply: res.Chosen, intent: res.Intent}
	if res.ChosenIndex >= 0 {
		ans.label = res.Candidates[res.ChosenIndex].Label
		ans.score = res.Candidates[res.ChosenIndex].Score
	}
	return ans, nil
}

func (b *localBackend) describe() string { return "answering from local corpus" }

func (b *localBackend) close() error { return nil }

// connectBackend prefers a running daemon and falls back to the local corpus.
func connectBackend(ctx context.Context) (chatBackend, error) {
	c := client.New(chatServer)

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	session, err := c.Chat(dialCtx)
	cancel()
	if err == nil {
		return &serverBackend{session: session, url: c.BaseURL(), maxTokens: chatMaxTokens}, nil
	}

	responder, lerr := localResponder(ctx)
	if lerr != nil {
		return nil, fmt.Errorf("no server at %s and no local corpus available: %w", c.BaseURL(), lerr)
	}
	return &localBackend{responder: responder, maxTokens: chatMaxTokens}, nil
}

// replyMsg carries the backend's answer for one prompt.
type replyMsg struct {
	answer chatAnswer
	err    error
}

// chatEntry is one prompt with its (possibly pending) outcome.
type chatEntry struct {
	prompt string
	answer chatAnswer
	err    error
}

// chatModel is the bubbletea model for the chat session.
type chatModel struct {
	backend chatBackend
	input   textinput.Model
	entries []chatEntry
	theme   Theme
	waiting bool
}

// newChatModel creates a new chat model.
func newChatModel(backend chatBackend) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about cubing..."
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Focus()

	return chatModel{
		backend: backend,
		input:   ti,
		theme:   defaultTheme,
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			prompt := strings.TrimSpace(m.input.Value())
			if prompt == "" || m.waiting {
				return m, nil
			}
			m.input.SetValue("")
			m.waiting = true
			m.entries = append(m.entries, chatEntry{prompt: prompt})
			return m, m.askBackend(prompt)
		}

	case replyMsg:
		m.waiting = false
		if len(m.entries) > 0 {
			last := &m.entries[len(m.entries)-1]
			last.answer = msg.answer
			last.err = msg.err
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m chatModel) renderContent() string {
	var b strings.Builder

	b.WriteString(m.theme.headerStyle().Render("cube chat"))
	b.WriteString("  ")
	b.WriteString(m.theme.hintStyle().Render(m.backend.describe()))
	b.WriteString("\n\n")

	entries := m.entries
	if len(entries) > historyWindow {
		entries = entries[len(entries)-historyWindow:]
	}
	for _, e := range entries {
		b.WriteString(m.theme.userStyle().Render("you>"))
		b.WriteString(" " + e.prompt + "\n")

		switch {
		case e.err != nil:
			b.WriteString(m.theme.errorStyle().Render("✗ " + e.err.Error()))
			b.WriteString("\n")
		case e.answer.reply != "":
			b.WriteString(m.theme.botStyle().Render("cube>"))
			b.WriteString(" " + e.answer.reply)
			if e.answer.intent != "" {
				b.WriteString(" " + m.theme.hintStyle().Render("["+e.answer.intent+"]"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.waiting {
		b.WriteString(m.theme.hintStyle().Render("thinking..."))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render("Enter to send, Ctrl+C to quit"))
	b.WriteString("\n")

	return b.String()
}

// askBackend sends the prompt to the backend.
// Runs in a separate goroutine (command) to avoid blocking Update().
func (m chatModel) askBackend(prompt string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
		defer cancel()

		answer, err := backend.ask(ctx, prompt)
		return replyMsg{answer: answer, err: err}
	}
}

// runChat runs the interactive chat UI.
func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("chat needs an interactive terminal; use 'cube say' for scripts")
	}

	ctx := context.Background()
	backend, err := connectBackend(ctx)
	if err != nil {
		return err
	}
	defer backend.close()

	p := tea.NewProgram(newChatModel(backend))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
