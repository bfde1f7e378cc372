package ai

import (
	"errors"
	"fmt"
)

// Vector store file statuses.
const (
	FileInProgress = "in_progress"
	FileCompleted  = "completed"
)

// Run statuses. Only queued and in_progress are non-terminal.
const (
	RunQueued     = "queued"
	RunInProgress = "in_progress"
	RunCompleted  = "completed"
	RunFailed     = "failed"
	RunExpired    = "expired"
)

// RoleAssistant marks messages authored by the assistant.
const RoleAssistant = "assistant"

// File is an uploaded file.
type File struct {
	ID string `json:"id"`
}

func (f File) validate() error {
	if f.ID == "" {
		return errors.New("missing id")
	}
	return nil
}

// VectorStore is a remote semantic index.
type VectorStore struct {
	ID string `json:"id"`
}

func (v VectorStore) validate() error {
	if v.ID == "" {
		return errors.New("missing id")
	}
	return nil
}

// VectorStoreFile is the indexing state of one file inside a vector store.
type VectorStoreFile struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	LastError *LastError `json:"last_error,omitempty"`
}

func (f VectorStoreFile) validate() error {
	if f.Status == "" {
		return errors.New("missing status")
	}
	return nil
}

// LastError is the remote's explanation for a failed file or run.
type LastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Tool enables a capability on an assistant.
type Tool struct {
	Type string `json:"type"`
}

// ToolResources binds vector stores to the file_search tool.
type ToolResources struct {
	FileSearch FileSearchResources `json:"file_search"`
}

// FileSearchResources lists the vector stores searched by file_search.
type FileSearchResources struct {
	VectorStoreIDs []string `json:"vector_store_ids"`
}

// AssistantRequest is the body of POST /assistants.
type AssistantRequest struct {
	Instructions  string        `json:"instructions"`
	Name          string        `json:"name"`
	Tools         []Tool        `json:"tools"`
	Model         string        `json:"model"`
	ToolResources ToolResources `json:"tool_resources"`
	// Metadata is free-form key/value data stored with the assistant.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Assistant is a remote AI persona.
type Assistant struct {
	ID string `json:"id"`
}

func (a Assistant) validate() error {
	if a.ID == "" {
		return errors.New("missing id")
	}
	return nil
}

// Thread is a remote conversation.
type Thread struct {
	ID string `json:"id"`
}

func (t Thread) validate() error {
	if t.ID == "" {
		return errors.New("missing id")
	}
	return nil
}

// Run is one execution of an assistant against a thread.
type Run struct {
	ID        string     `json:"id"`
	ThreadID  string     `json:"thread_id,omitempty"`
	Status    string     `json:"status"`
	LastError *LastError `json:"last_error,omitempty"`
}

func (r Run) validate() error {
	if r.ID == "" {
		return errors.New("missing id")
	}
	if r.Status == "" {
		return errors.New("missing status")
	}
	return nil
}

// MessageList is a page of thread messages, newest first.
type MessageList struct {
	Data []Message `json:"data"`
}

func (l MessageList) validate() error {
	if l.Data == nil {
		return errors.New("missing data")
	}
	for i, m := range l.Data {
		if m.Role == "" {
			return fmt.Errorf("message %d has no role", i)
		}
	}
	return nil
}

// Message is one thread message.
type Message struct {
	ID      string           `json:"id,omitempty"`
	Role    string           `json:"role"`
	Content []MessageContent `json:"content"`
}

// MessageContent is one content block of a message.
type MessageContent struct {
	Type string       `json:"type"`
	Text *TextContent `json:"text,omitempty"`
}

// TextContent holds the text of a content block.
type TextContent struct {
	Value string `json:"value"`
}

// Text returns the first text block of m and whether one exists.
func (m Message) Text() (string, bool) {
	for _, c := range m.Content {
		if c.Text != nil {
			return c.Text.Value, true
		}
	}
	return "", false
}

// LatestAssistantText returns the text of the first assistant-authored
// message in the list (the newest, given the remote's ordering).
func (l MessageList) LatestAssistantText() (string, bool) {
	for _, m := range l.Data {
		if m.Role == RoleAssistant {
			return m.Text()
		}
	}
	return "", false
}

type validator interface {
	validate() error
}
