// app.go is the top-level Bubble Tea model.
//
// Flow:
//  1. Start in the init phase while the knowledge base and assistant are
//     prepared in the background
//  2. On success switch to the chat view
//  3. On failure show the error; the engine does not retry, so the only
//     way forward is to quit and fix the configuration
package tui

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const appVersion = "0.1.0"

// AppPhase tracks engine readiness.
type AppPhase int

const (
	PhaseInit AppPhase = iota
	PhaseChat
	PhaseFailed
)

// App is the root Bubble Tea model.
type App struct {
	ctx   context.Context
	opts  Options
	phase AppPhase
	chat  *ChatView

	initErr   error
	width     int
	height    int
	showHelp  bool
	statusMsg string
}

// NewApp creates the application in the init phase.
func NewApp(ctx context.Context, opts Options) *App {
	return &App{
		ctx:   ctx,
		opts:  opts,
		phase: PhaseInit,
		chat:  NewChatView(ctx, opts.Answerer, opts.MaxQuestionLength),
	}
}

// Phase reports the current phase.
func (a *App) Phase() AppPhase { return a.phase }

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.opts.Initialize == nil {
		return func() tea.Msg { return InitDoneMsg{} }
	}
	ctx, initialize := a.ctx, a.opts.Initialize
	return func() tea.Msg {
		return InitDoneMsg{Err: initialize(ctx)}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// header(1) + border(2) + status bar(1)
		a.chat.SetSize(max(a.width-2, 1), max(a.height-4, 1))
		return a, nil

	case InitDoneMsg:
		if msg.Err != nil {
			a.phase = PhaseFailed
			a.initErr = msg.Err
			return a, nil
		}
		a.phase = PhaseChat
		return a, a.chat.Init()

	case StatusMsg:
		a.statusMsg = string(msg)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return a, tea.Quit
		case "f1":
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.phase != PhaseChat || a.showHelp {
			return a, nil
		}
		a.statusMsg = ""
	}

	if a.phase != PhaseChat {
		return a, nil
	}
	v, cmd := a.chat.Update(msg)
	a.chat = v.(*ChatView)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	var content string
	switch {
	case a.showHelp:
		content = a.renderHelp()
	case a.phase == PhaseInit:
		content = StyleDimmed.Render("Building knowledge base and assistant...")
	case a.phase == PhaseFailed:
		content = StyleError.Render("Initialization failed") + "\n\n" +
			lipgloss.NewStyle().Width(max(a.width-4, 1)).Render(a.initErr.Error()) + "\n\n" +
			StyleDimmed.Render("Fix the configuration and restart. Press Ctrl+C to quit.")
	default:
		content = a.chat.View()
	}

	frame := StyleBorder.
		Width(a.width - 2).
		Height(max(a.height-4, 0)).
		Render(content)

	return a.renderHeader() + "\n" + frame + "\n" + a.renderStatusBar()
}

// renderHeader draws a simple text bar: logo + version + conversation.
func (a *App) renderHeader() string {
	left := StyleBold.Render("sqlagent") + StyleDimmed.Render(" v"+appVersion)
	if a.opts.Label != "" {
		left += StyleSuccess.Render("  " + a.opts.Label)
	}

	pos, total := a.chat.Position()
	thread := "new conversation"
	if id := a.chat.ConversationID(); id != "" {
		thread = "thread " + id
	}
	right := StyleDimmed.Render(thread + " [" + strconv.Itoa(pos) + "/" + strconv.Itoa(total) + "]")

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return lipgloss.NewStyle().
		Width(a.width).
		Render(left + strings.Repeat(" ", gap) + right)
}

func (a *App) renderStatusBar() string {
	content := a.statusMsg
	if content == "" {
		var parts []string
		for _, h := range a.helpItems() {
			parts = append(parts, StyleHelpKey.Render(h.Key)+" "+StyleHelpDesc.Render(h.Desc))
		}
		content = strings.Join(parts, "  │  ")
	}
	return StyleStatusBar.Width(a.width).Render(content)
}

func (a *App) helpItems() []KeyBinding {
	global := []KeyBinding{
		{Key: "F1", Desc: "help"},
		{Key: "Ctrl+C", Desc: "quit"},
	}
	if a.phase == PhaseChat {
		return append(a.chat.ShortHelp(), global...)
	}
	return global
}

func (a *App) renderHelp() string {
	help := []string{
		StyleTitle.Render("sqlagent Keyboard Shortcuts"),
		StyleHelpKey.Render("Enter") + "            Ask the question",
		StyleHelpKey.Render("Ctrl+N") + "           Start a new conversation",
		StyleHelpKey.Render("Tab / Shift+Tab") + "  Switch between conversations",
		StyleHelpKey.Render("Ctrl+L") + "           Clear the transcript",
		StyleHelpKey.Render("Ctrl+U") + "           Clear the input",
		StyleHelpKey.Render("↑/↓ PgUp/PgDn") + "    Scroll",
		StyleHelpKey.Render("F1") + "               Toggle this help",
		StyleHelpKey.Render("Ctrl+C / Esc") + "     Quit",
		"",
		StyleDimmed.Render("Follow-up questions refine the previous query in the same conversation."),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(help, "\n"))
}
