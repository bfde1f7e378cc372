package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DachengChen/sqlagent/assistant"
)

// Options wires the chat client to an engine.
type Options struct {
	// Answerer serves every question once Initialize returned nil.
	Answerer assistant.Answerer
	// Initialize prepares the engine. It runs in the background while the
	// TUI shows progress; nil means the engine is already ready.
	Initialize func(ctx context.Context) error
	// Label describes the schema source in the header.
	Label string
	// MaxQuestionLength bounds questions like the HTTP API does.
	MaxQuestionLength int
}

// Start launches the chat TUI and blocks until the user quits.
func Start(ctx context.Context, opts Options) error {
	app := NewApp(ctx, opts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	return err
}
