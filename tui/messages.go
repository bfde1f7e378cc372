// messages.go defines Bubble Tea messages used for async communication.
//
// Engine initialization and every question run in commands and report
// back through these message types, so the UI never blocks.
package tui

import "github.com/DachengChen/sqlagent/assistant"

// InitDoneMsg is sent when engine initialization finishes.
type InitDoneMsg struct {
	Err error
}

// AnswerMsg is sent when a question completes.
type AnswerMsg struct {
	// Conversation is the index of the conversation that asked.
	Conversation int
	Answer       assistant.Answer
	Err          error
}

// StatusMsg is a transient status message for the status bar.
type StatusMsg string
