package assistant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/DachengChen/sqlagent/ai"
)

// ErrEmptySchema is returned by Build when there is nothing to index.
var ErrEmptySchema = errors.New("knowledge base: schema has no tables")

// RenderKnowledge flattens tables into the knowledge document, one block
// per table separated by a blank line.
func RenderKnowledge(tables []TableSchema) string {
	blocks := make([]string, 0, len(tables))
	for _, t := range tables {
		blocks = append(blocks, t.String())
	}
	return strings.Join(blocks, "\n\n")
}

// KnowledgeBuilder uploads the knowledge document and indexes it in a new
// vector store.
type KnowledgeBuilder struct {
	Remote          Remote
	VectorStoreName string
	Poll            Policy
	// TempDir holds the transient document file. Empty means os.TempDir().
	TempDir string
	Metrics *Metrics
}

// Build renders tables, uploads the document, attaches it to a fresh
// vector store and waits until indexing completes. It returns the vector
// store ID.
func (b *KnowledgeBuilder) Build(ctx context.Context, tables []TableSchema) (string, error) {
	if len(tables) == 0 {
		return "", ErrEmptySchema
	}

	fileID, err := b.upload(ctx, RenderKnowledge(tables))
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "knowledge file uploaded", "file_id", fileID, "tables", len(tables))

	vs, err := b.Remote.CreateVectorStore(ctx, b.VectorStoreName)
	if err != nil {
		return "", err
	}
	if err := b.Remote.AttachFile(ctx, vs.ID, fileID); err != nil {
		return "", err
	}
	if err := b.waitIndexed(ctx, vs.ID, fileID); err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "vector store ready", "vector_store_id", vs.ID)
	return vs.ID, nil
}

// upload writes doc to a uniquely named temp file and uploads it. The
// file is removed whether or not the upload succeeds.
func (b *KnowledgeBuilder) upload(ctx context.Context, doc string) (string, error) {
	dir := b.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "schema_"+uuid.NewString()+".txt")

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", &ai.Error{Kind: ai.KindUpload, Op: "write knowledge file", Err: err}
	}
	defer func() {
		_ = f.Close()
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(ctx, "remove knowledge file", "path", path, "error", err)
		}
	}()

	if _, err := io.WriteString(f, doc); err != nil {
		return "", &ai.Error{Kind: ai.KindUpload, Op: "write knowledge file", Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", &ai.Error{Kind: ai.KindUpload, Op: "write knowledge file", Err: err}
	}

	file, err := b.Remote.UploadFile(ctx, filepath.Base(path), f)
	if err != nil {
		return "", err
	}
	return file.ID, nil
}

func (b *KnowledgeBuilder) waitIndexed(ctx context.Context, vectorStoreID, fileID string) error {
	attempts := 0
	last, err := Poll(ctx, b.Poll,
		func(ctx context.Context) (ai.VectorStoreFile, error) {
			attempts++
			f, err := b.Remote.GetVectorStoreFile(ctx, vectorStoreID, fileID)
			if err == nil {
				slog.DebugContext(ctx, "file processing status", "status", f.Status, "attempt", attempts)
			}
			return f, err
		},
		func(f ai.VectorStoreFile) bool { return f.Status != ai.FileInProgress })
	b.Metrics.observePoll("indexing", attempts)

	op := "index " + fileID
	if err != nil {
		return pollFailure(err, ai.KindIndexingTimeout, op, last.Status)
	}
	if last.Status != ai.FileCompleted {
		e := &ai.Error{Kind: ai.KindIndexing, Op: op, Status: last.Status}
		if last.LastError != nil {
			e.Body = last.LastError.Message
		}
		return e
	}
	return nil
}

// pollFailure maps a Poll error to the engine's taxonomy: exhaustion is
// the timeout kind, a done ctx is Cancelled, anything else is returned
// unchanged.
func pollFailure(err error, timeout ai.Kind, op, status string) error {
	switch {
	case errors.Is(err, ErrPollExhausted):
		return &ai.Error{Kind: timeout, Op: op, Status: status, Err: err}
	case ai.KindOf(err) == "" && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return &ai.Error{Kind: ai.KindCancelled, Op: op, Err: err}
	default:
		return err
	}
}

// cancelled wraps a ctx error as a Cancelled engine error.
func cancelled(op string, err error) error {
	return &ai.Error{Kind: ai.KindCancelled, Op: op, Err: err}
}
