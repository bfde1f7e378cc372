// view_chat.go implements the question/answer panel.
//
// Each question is sent to the engine in a background command with the
// current conversation ID, so follow-up questions refine earlier ones.
// Several conversations live side by side in memory: Ctrl+N opens a new
// one, Tab / Shift+Tab switch between them. Nothing is persisted.
package tui

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DachengChen/sqlagent/ai"
	"github.com/DachengChen/sqlagent/assistant"
)

const chatPrompt = "Ask> "

type entryKind int

const (
	entryQuestion entryKind = iota
	entryAnswer
	entryError
	entryWarning
)

type entry struct {
	kind entryKind
	text string
}

// conversation is one thread and its transcript.
type conversation struct {
	id      string
	entries []entry
}

// ChatView sends questions to the engine and shows the transcript.
type ChatView struct {
	ctx       context.Context
	answerer  assistant.Answerer
	maxLength int

	input         string
	conversations []*conversation
	current       int
	// pending is the conversation waiting for an answer, -1 when idle.
	pending  int
	viewport *Viewport
	width    int
	height   int
}

// NewChatView creates the chat panel with one empty conversation.
// maxLength <= 0 uses assistant.DefaultMaxQuestionLength.
func NewChatView(ctx context.Context, answerer assistant.Answerer, maxLength int) *ChatView {
	return &ChatView{
		ctx:           ctx,
		answerer:      answerer,
		maxLength:     maxLength,
		conversations: []*conversation{{}},
		pending:       -1,
		viewport:      NewViewport(80, 20),
	}
}

func (v *ChatView) Name() string { return "Chat" }

// ConversationID returns the thread the next question continues.
func (v *ChatView) ConversationID() string { return v.conv().id }

// Position returns the 1-based index of the shown conversation and the
// number of open conversations.
func (v *ChatView) Position() (int, int) { return v.current + 1, len(v.conversations) }

func (v *ChatView) conv() *conversation { return v.conversations[v.current] }

func (v *ChatView) loading() bool { return v.pending >= 0 }

func (v *ChatView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "Enter", Desc: "ask"},
		{Key: "Ctrl+N", Desc: "new conversation"},
		{Key: "Tab", Desc: "switch"},
		{Key: "PgUp/PgDn", Desc: "scroll"},
	}
}

func (v *ChatView) SetSize(w, h int) {
	v.width = w
	v.height = h
	// scroll indicator + blank separator + input line
	v.viewport.SetSize(w, max(h-3, 1))
	v.refresh()
}

func (v *ChatView) Init() tea.Cmd { return nil }

func (v *ChatView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case AnswerMsg:
		if msg.Conversation < 0 || msg.Conversation >= len(v.conversations) {
			return v, nil
		}
		v.pending = -1
		c := v.conversations[msg.Conversation]
		if msg.Answer.ConversationID != "" {
			c.id = msg.Answer.ConversationID
		}
		if msg.Err != nil {
			c.entries = append(c.entries, entry{kind: entryError, text: msg.Err.Error()})
		} else {
			sql := ai.ExtractSQL(msg.Answer.Text)
			c.entries = append(c.entries, entry{kind: entryAnswer, text: sql})
			if sql != assistant.NoResponse && !ai.IsReadOnly(sql) {
				c.entries = append(c.entries, entry{kind: entryWarning, text: "this statement is not read-only; review it before running"})
			}
		}
		v.refresh()
		return v, nil
	}
	return v, nil
}

func (v *ChatView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if v.loading() {
			return v, nil
		}
		question := strings.TrimSpace(v.input)
		if question == "" {
			return v, nil
		}
		c := v.conv()
		c.entries = append(c.entries, entry{kind: entryQuestion, text: question})
		if problem := assistant.ValidateQuestion(question, v.maxLength); problem != "" {
			c.entries = append(c.entries, entry{kind: entryError, text: problem})
			v.refresh()
			return v, nil
		}
		v.input = ""
		v.pending = v.current
		v.refresh()
		return v, v.ask(v.current, question, c.id)

	case "ctrl+n":
		// An untouched conversation is already new.
		if c := v.conv(); len(c.entries) == 0 && c.id == "" {
			return v, nil
		}
		v.conversations = append(v.conversations, &conversation{})
		v.current = len(v.conversations) - 1
		v.refresh()
		return v, nil

	case "tab":
		v.current = (v.current + 1) % len(v.conversations)
		v.refresh()
	case "shift+tab":
		v.current = (v.current + len(v.conversations) - 1) % len(v.conversations)
		v.refresh()

	case "ctrl+l":
		v.conv().entries = nil
		v.refresh()
		return v, nil

	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "up":
		v.viewport.ScrollUp(1)
	case "down":
		v.viewport.ScrollDown(1)

	case "backspace":
		if r := []rune(v.input); len(r) > 0 {
			v.input = string(r[:len(r)-1])
		}
	case "ctrl+u":
		v.input = ""

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			v.input += string(msg.Runes)
		}
	}
	return v, nil
}

func (v *ChatView) ask(idx int, question, conversationID string) tea.Cmd {
	ctx, answerer := v.ctx, v.answerer
	return func() tea.Msg {
		ans, err := answerer.Answer(ctx, question, conversationID)
		return AnswerMsg{Conversation: idx, Answer: ans, Err: err}
	}
}

func (v *ChatView) View() string {
	input := StylePrompt.Render(chatPrompt) + v.input
	switch {
	case v.pending == v.current:
		input = StyleDimmed.Render("waiting for the assistant...")
	case v.loading():
		input = StyleDimmed.Render("waiting for the assistant in conversation " + strconv.Itoa(v.pending+1) + "...")
	default:
		input += "█"
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.viewport.Render(), "", input)
}

// refresh re-renders the transcript into the viewport and follows the tail.
func (v *ChatView) refresh() {
	v.viewport.SetContentLines(v.renderTranscript())
	v.viewport.End()
}

func (v *ChatView) renderTranscript() []string {
	width := max(v.viewport.Width(), 20)
	wrap := lipgloss.NewStyle().Width(width)

	var lines []string
	for i, e := range v.conv().entries {
		if i > 0 && e.kind == entryQuestion {
			lines = append(lines, "")
		}
		var block string
		switch e.kind {
		case entryQuestion:
			block = StyleUser.Render("You: ") + e.text
		case entryAnswer:
			block = StyleSQL.Render(e.text)
		case entryError:
			block = StyleError.Render("error: ") + e.text
		case entryWarning:
			block = StyleWarning.Render("warning: " + e.text)
		}
		lines = append(lines, strings.Split(wrap.Render(block), "\n")...)
	}
	if len(lines) == 0 {
		lines = append(lines, StyleDimmed.Render("Ask a question about your data, e.g. \"top 10 customers by revenue\"."))
	}
	return lines
}
