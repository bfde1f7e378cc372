package assistant

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/DachengChen/sqlagent/ai"
)

// fakeRemote is a scripted in-memory Remote. Status scripts are consumed
// in order; the last entry repeats.
type fakeRemote struct {
	mu sync.Mutex

	calls map[string]int
	errs  map[string]error

	fileStatuses []string
	runStatuses  []string
	messages     ai.MessageList

	uploadedNames   []string
	uploadedContent []string
	assistantReqs   []ai.AssistantRequest
	appendThreads   []string
	runThreads      []string
	threadSeq       int

	// onGetRun runs before every GetRun, outside the lock.
	onGetRun func()
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls:        map[string]int{},
		errs:         map[string]error{},
		fileStatuses: []string{ai.FileCompleted},
		runStatuses:  []string{ai.RunCompleted},
		messages: ai.MessageList{Data: []ai.Message{
			{Role: ai.RoleAssistant, Content: []ai.MessageContent{{Type: "text", Text: &ai.TextContent{Value: "SELECT 1"}}}},
			{Role: "user", Content: []ai.MessageContent{{Type: "text", Text: &ai.TextContent{Value: "question"}}}},
		}},
	}
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func scripted(script []string, n int) string {
	if n >= len(script) {
		return script[len(script)-1]
	}
	return script[n]
}

func (f *fakeRemote) UploadFile(ctx context.Context, filename string, content io.Reader) (ai.File, error) {
	if err := f.enter("upload"); err != nil {
		return ai.File{}, err
	}
	b, err := io.ReadAll(content)
	if err != nil {
		return ai.File{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadedNames = append(f.uploadedNames, filename)
	f.uploadedContent = append(f.uploadedContent, string(b))
	return ai.File{ID: "file_1"}, nil
}

func (f *fakeRemote) CreateVectorStore(ctx context.Context, name string) (ai.VectorStore, error) {
	if err := f.enter("vector_store"); err != nil {
		return ai.VectorStore{}, err
	}
	return ai.VectorStore{ID: "vs_1"}, nil
}

func (f *fakeRemote) AttachFile(ctx context.Context, vectorStoreID, fileID string) error {
	return f.enter("attach")
}

func (f *fakeRemote) GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (ai.VectorStoreFile, error) {
	if err := f.enter("file_status"); err != nil {
		return ai.VectorStoreFile{}, err
	}
	n := f.count("file_status") - 1
	return ai.VectorStoreFile{ID: fileID, Status: scripted(f.fileStatuses, n)}, nil
}

func (f *fakeRemote) CreateAssistant(ctx context.Context, req ai.AssistantRequest) (ai.Assistant, error) {
	if err := f.enter("assistant"); err != nil {
		return ai.Assistant{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assistantReqs = append(f.assistantReqs, req)
	return ai.Assistant{ID: "asst_1"}, nil
}

func (f *fakeRemote) CreateThread(ctx context.Context) (ai.Thread, error) {
	if err := f.enter("thread"); err != nil {
		return ai.Thread{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threadSeq++
	return ai.Thread{ID: fmt.Sprintf("thread_%d", f.threadSeq)}, nil
}

func (f *fakeRemote) AppendMessage(ctx context.Context, threadID, content string) error {
	if err := f.enter("append"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendThreads = append(f.appendThreads, threadID)
	return nil
}

func (f *fakeRemote) CreateRun(ctx context.Context, threadID, assistantID string) (ai.Run, error) {
	if err := f.enter("run"); err != nil {
		return ai.Run{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runThreads = append(f.runThreads, threadID)
	return ai.Run{ID: fmt.Sprintf("run_%d", len(f.runThreads)), ThreadID: threadID, Status: ai.RunQueued}, nil
}

func (f *fakeRemote) GetRun(ctx context.Context, threadID, runID string) (ai.Run, error) {
	if f.onGetRun != nil {
		f.onGetRun()
	}
	if err := f.enter("run_status"); err != nil {
		return ai.Run{}, err
	}
	n := f.count("run_status") - 1
	return ai.Run{ID: runID, ThreadID: threadID, Status: scripted(f.runStatuses, n)}, nil
}

func (f *fakeRemote) ListMessages(ctx context.Context, threadID string) (ai.MessageList, error) {
	if err := f.enter("messages"); err != nil {
		return ai.MessageList{}, err
	}
	return f.messages, nil
}

var _ Remote = (*fakeRemote)(nil)
