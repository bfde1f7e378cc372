package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DachengChen/sqlagent/assistant"
)

type call struct {
	question       string
	conversationID string
}

type fakeAnswerer struct {
	calls []call
	ans   assistant.Answer
	err   error
}

func (f *fakeAnswerer) Answer(_ context.Context, question, conversationID string) (assistant.Answer, error) {
	f.calls = append(f.calls, call{question, conversationID})
	return f.ans, f.err
}

func typeText(t *testing.T, v View, s string) View {
	t.Helper()
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return v
}

func TestChatView_AskAndContinue(t *testing.T) {
	f := &fakeAnswerer{ans: assistant.Answer{Text: "```sql\nSELECT 1\n```", ConversationID: "thread_1"}}
	var v View = NewChatView(context.Background(), f, 0)
	v.SetSize(80, 20)

	v = typeText(t, v, "count orders")
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "waiting for the assistant")

	v, _ = v.Update(cmd())
	chat := v.(*ChatView)
	assert.Equal(t, "thread_1", chat.ConversationID())
	require.Len(t, chat.conv().entries, 2)
	assert.Equal(t, entry{kind: entryAnswer, text: "SELECT 1"}, chat.conv().entries[1])

	v = typeText(t, v, "only 2024")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []call{{"count orders", ""}, {"only 2024", "thread_1"}}, f.calls)
}

func TestChatView_EmptyInputIgnored(t *testing.T) {
	f := &fakeAnswerer{}
	v := NewChatView(context.Background(), f, 0)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	typeText(t, v, "   ")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, f.calls)
}

func TestChatView_ErrorShownInline(t *testing.T) {
	f := &fakeAnswerer{
		ans: assistant.Answer{ConversationID: "thread_9"},
		err: errors.New("run failed: status=failed"),
	}
	v := NewChatView(context.Background(), f, 0)
	v.SetSize(80, 20)

	typeText(t, v, "q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())

	require.Len(t, v.conv().entries, 2)
	assert.Equal(t, entryError, v.conv().entries[1].kind)
	assert.Contains(t, v.View(), "run failed")
	assert.Equal(t, "thread_9", v.ConversationID())
	assert.False(t, v.loading())
}

func answer(t *testing.T, v *ChatView, question string) {
	t.Helper()
	typeText(t, v, question)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestChatView_ConversationsSwitch(t *testing.T) {
	f := &fakeAnswerer{ans: assistant.Answer{Text: "SELECT 1", ConversationID: "thread_1"}}
	v := NewChatView(context.Background(), f, 0)
	v.SetSize(80, 20)

	// A fresh conversation is not duplicated.
	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	pos, total := v.Position()
	assert.Equal(t, [2]int{1, 1}, [2]int{pos, total})

	answer(t, v, "count orders")
	assert.Equal(t, "thread_1", v.ConversationID())

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	pos, total = v.Position()
	assert.Equal(t, [2]int{2, 2}, [2]int{pos, total})
	assert.Empty(t, v.ConversationID())
	assert.NotContains(t, v.View(), "count orders")

	f.ans = assistant.Answer{Text: "SELECT 2", ConversationID: "thread_2"}
	answer(t, v, "count users")
	assert.Equal(t, "thread_2", v.ConversationID())

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "thread_1", v.ConversationID())
	assert.Contains(t, v.View(), "count orders")

	v.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "thread_2", v.ConversationID())

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, v.conv().entries)
	assert.Equal(t, "thread_2", v.ConversationID())

	assert.Equal(t, []call{{"count orders", ""}, {"count users", ""}}, f.calls)
}

func TestChatView_AnswerRoutedToAskingConversation(t *testing.T) {
	f := &fakeAnswerer{ans: assistant.Answer{Text: "SELECT 1", ConversationID: "thread_1"}}
	v := NewChatView(context.Background(), f, 0)
	v.conversations[0].id = "thread_1"

	typeText(t, v, "refine it")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Contains(t, v.View(), "conversation 1")

	// Asking is blocked until the pending answer arrives.
	typeText(t, v, "other")
	_, blocked := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, blocked)

	v.Update(cmd())
	assert.Empty(t, v.conv().entries)
	require.Len(t, v.conversations[0].entries, 2)
	assert.Equal(t, "SELECT 1", v.conversations[0].entries[1].text)
}

func TestChatView_QuestionTooLong(t *testing.T) {
	f := &fakeAnswerer{}
	v := NewChatView(context.Background(), f, 10)
	v.SetSize(80, 20)

	typeText(t, v, "more than ten characters")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, f.calls)
	assert.Contains(t, v.View(), assistant.MsgQuestionTooLong)
	assert.Equal(t, "more than ten characters", v.input, "input kept for editing")
}

func TestChatView_WarnsOnWriteStatements(t *testing.T) {
	f := &fakeAnswerer{ans: assistant.Answer{Text: "DELETE FROM Orders", ConversationID: "t"}}
	v := NewChatView(context.Background(), f, 0)
	v.SetSize(100, 20)

	answer(t, v, "remove all orders")
	require.Len(t, v.conv().entries, 3)
	assert.Equal(t, entryWarning, v.conv().entries[2].kind)

	f.ans = assistant.Answer{Text: assistant.NoResponse, ConversationID: "t"}
	answer(t, v, "again")
	assert.Equal(t, entryAnswer, v.conv().entries[len(v.conv().entries)-1].kind)
}

func TestChatView_Backspace(t *testing.T) {
	v := NewChatView(context.Background(), &fakeAnswerer{}, 0)
	typeText(t, v, "héllo")
	v.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "héll", v.input)
}

func TestApp_InitPhases(t *testing.T) {
	app := NewApp(context.Background(), Options{
		Answerer:   &fakeAnswerer{},
		Initialize: func(context.Context) error { return nil },
	})
	msg := app.Init()()
	assert.Equal(t, InitDoneMsg{}, msg)

	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, PhaseInit, app.Phase())
	assert.Contains(t, app.View(), "Building knowledge base")

	app.Update(msg)
	assert.Equal(t, PhaseChat, app.Phase())
	assert.Contains(t, app.View(), "new conversation [1/1]")
}

func TestApp_InitFailure(t *testing.T) {
	app := NewApp(context.Background(), Options{
		Answerer:   &fakeAnswerer{},
		Initialize: func(context.Context) error { return errors.New("indexing failed: status=failed") },
	})
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	app.Update(app.Init()())

	assert.Equal(t, PhaseFailed, app.Phase())
	assert.Contains(t, app.View(), "indexing failed")

	// Keystrokes are ignored until the user quits.
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestViewport_Scroll(t *testing.T) {
	v := NewViewport(20, 2)
	v.SetContentLines([]string{"a", "b", "c", "d"})
	assert.Contains(t, v.Render(), "a\nb")

	v.End()
	assert.Contains(t, v.Render(), "c\nd")

	v.ScrollDown(10)
	assert.Contains(t, v.Render(), "c\nd")
	v.PageUp()
	assert.Contains(t, v.Render(), "a\nb")
	v.ScrollUp(5)
	assert.Contains(t, v.Render(), "a\nb")
}
