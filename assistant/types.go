// Package assistant drives the assistant protocol: it turns a database
// schema into an indexed knowledge base, binds an assistant to it, and
// answers questions over remote conversation threads.
package assistant

import (
	"context"
	"strings"
)

// NoResponse is returned as the answer when a completed run produced no
// assistant-authored message.
const NoResponse = "No response from assistant."

// TableSchema describes one table of the knowledge base.
type TableSchema struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Columns     []ColumnSchema `json:"columns" yaml:"columns"`
}

// ColumnSchema describes one column. Description already carries any
// primary or foreign key annotation.
type ColumnSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// String renders the table as one block of the knowledge document.
func (t TableSchema) String() string {
	var sb strings.Builder
	sb.WriteString("Table: " + t.Name + "\n")
	sb.WriteString("Description: " + t.Description + "\n")
	sb.WriteString("Columns:")
	for _, c := range t.Columns {
		sb.WriteString("\n  - " + c.String())
	}
	return sb.String()
}

// String renders the column as "Name (Type): Description".
func (c ColumnSchema) String() string {
	return c.Name + " (" + c.Type + "): " + c.Description
}

// Answer is the result of one question.
type Answer struct {
	Text           string `json:"sql"`
	ConversationID string `json:"threadId"`
}

// Answerer answers a question, optionally continuing a conversation.
// An empty conversationID starts a new one.
type Answerer interface {
	Answer(ctx context.Context, question, conversationID string) (Answer, error)
}
