package assistant

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DachengChen/sqlagent/ai"
)

// FileSearchTool is the only tool enabled on the assistant.
const FileSearchTool = "file_search"

// InstructionsVersionKey is the assistant metadata key recording which
// prompt revision the assistant was created with.
const InstructionsVersionKey = "instructions_version"

// Registry resolves the process-wide assistant ID. Once resolved the ID
// is cached and never refreshed.
type Registry struct {
	Remote Remote
	Name   string
	Model  string
	// ConfiguredID, when set, is reused verbatim and no assistant is
	// created. It is not checked against the vector store.
	ConfiguredID string

	mu sync.Mutex
	id string
}

// Ensure returns the cached assistant ID, the configured one, or a newly
// created assistant bound to vectorStoreID.
func (r *Registry) Ensure(ctx context.Context, vectorStoreID, instructions string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.id != "" {
		return r.id, nil
	}
	if r.ConfiguredID != "" {
		r.id = r.ConfiguredID
		return r.id, nil
	}

	a, err := r.Remote.CreateAssistant(ctx, ai.AssistantRequest{
		Instructions: instructions,
		Name:         r.Name,
		Tools:        []ai.Tool{{Type: FileSearchTool}},
		Model:        r.Model,
		ToolResources: ai.ToolResources{
			FileSearch: ai.FileSearchResources{VectorStoreIDs: []string{vectorStoreID}},
		},
		Metadata: map[string]string{InstructionsVersionKey: ai.InstructionsVersion},
	})
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "assistant created",
		"assistant_id", a.ID,
		"model", r.Model,
		"instructions_version", ai.InstructionsVersion,
	)
	r.id = a.ID
	return r.id, nil
}

// ID returns the cached assistant ID, or "" before Ensure succeeded.
func (r *Registry) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}
