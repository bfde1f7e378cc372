package assistant

import (
	"context"
	"io"

	"github.com/DachengChen/sqlagent/ai"
)

// Remote is the part of the assistants API the engine drives.
// *ai.Client implements it.
type Remote interface {
	UploadFile(ctx context.Context, filename string, content io.Reader) (ai.File, error)
	CreateVectorStore(ctx context.Context, name string) (ai.VectorStore, error)
	AttachFile(ctx context.Context, vectorStoreID, fileID string) error
	GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (ai.VectorStoreFile, error)
	CreateAssistant(ctx context.Context, req ai.AssistantRequest) (ai.Assistant, error)
	CreateThread(ctx context.Context) (ai.Thread, error)
	AppendMessage(ctx context.Context, threadID, content string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (ai.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (ai.Run, error)
	ListMessages(ctx context.Context, threadID string) (ai.MessageList, error)
}

var _ Remote = (*ai.Client)(nil)
