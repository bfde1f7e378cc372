package assistant

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DachengChen/sqlagent/ai"
)

func ordersSchema() []TableSchema {
	return []TableSchema{{
		Name:        "Orders",
		Description: "Table containing information for Orders.",
		Columns: []ColumnSchema{
			{Name: "OrderID", Type: "int", Description: "OrderID of type int (Primary Key)"},
			{Name: "UserID", Type: "int", Description: "UserID of type int (Foreign Key to Users.UserID)"},
			{Name: "Quantity", Type: "int", Description: "Quantity of type int"},
		},
	}}
}

func newBuilder(t *testing.T, r Remote) *KnowledgeBuilder {
	return &KnowledgeBuilder{
		Remote:          r,
		VectorStoreName: "kb",
		Poll:            Policy{MaxAttempts: 20, Sleep: noSleep},
		TempDir:         t.TempDir(),
	}
}

func TestRenderKnowledge(t *testing.T) {
	tables := append(ordersSchema(), TableSchema{
		Name:        "Users",
		Description: "People",
		Columns:     []ColumnSchema{{Name: "UserID", Type: "int", Description: "id"}},
	})

	want := "Table: Orders\n" +
		"Description: Table containing information for Orders.\n" +
		"Columns:\n" +
		"  - OrderID (int): OrderID of type int (Primary Key)\n" +
		"  - UserID (int): UserID of type int (Foreign Key to Users.UserID)\n" +
		"  - Quantity (int): Quantity of type int\n" +
		"\n" +
		"Table: Users\n" +
		"Description: People\n" +
		"Columns:\n" +
		"  - UserID (int): id"
	assert.Equal(t, want, RenderKnowledge(tables))
	assert.Equal(t, "", RenderKnowledge(nil))
}

func TestBuild_Success(t *testing.T) {
	r := newFakeRemote()
	r.fileStatuses = []string{ai.FileInProgress, ai.FileInProgress, ai.FileCompleted}
	b := newBuilder(t, r)

	id, err := b.Build(context.Background(), ordersSchema())
	require.NoError(t, err)
	assert.Equal(t, "vs_1", id)
	assert.Equal(t, 3, r.count("file_status"))

	require.Len(t, r.uploadedContent, 1)
	doc := r.uploadedContent[0]
	for _, name := range []string{"Table: Orders", "OrderID (", "UserID (", "Quantity ("} {
		assert.Equal(t, 1, strings.Count(doc, name), name)
	}
	assert.Contains(t, doc, "OrderID (int): OrderID of type int (Primary Key)")
	assert.Contains(t, doc, "UserID (int): UserID of type int (Foreign Key to Users.UserID)")
	assert.Regexp(t, regexp.MustCompile(`^schema_[0-9a-f-]{36}\.txt$`), r.uploadedNames[0])

	entries, err := os.ReadDir(b.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp knowledge file must be removed")
}

func TestBuild_TempFileRemovedOnUploadFailure(t *testing.T) {
	r := newFakeRemote()
	r.errs["upload"] = &ai.Error{Kind: ai.KindUpload, StatusCode: 413}
	b := newBuilder(t, r)

	_, err := b.Build(context.Background(), ordersSchema())
	require.ErrorIs(t, err, ai.ErrUpload)
	assert.Zero(t, r.count("vector_store"))

	entries, err := os.ReadDir(b.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuild_StepFailures(t *testing.T) {
	tests := []struct {
		op   string
		err  *ai.Error
		skip string
	}{
		{"vector_store", &ai.Error{Kind: ai.KindVectorStoreCreation}, "attach"},
		{"attach", &ai.Error{Kind: ai.KindAttachment}, "file_status"},
		{"file_status", &ai.Error{Kind: ai.KindIndexing, StatusCode: 500}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			r := newFakeRemote()
			r.errs[tt.op] = tt.err

			_, err := newBuilder(t, r).Build(context.Background(), ordersSchema())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err))
			if tt.skip != "" {
				assert.Zero(t, r.count(tt.skip))
			}
		})
	}
}

func TestBuild_IndexingFailedStatus(t *testing.T) {
	r := newFakeRemote()
	r.fileStatuses = []string{ai.FileInProgress, "failed"}

	_, err := newBuilder(t, r).Build(context.Background(), ordersSchema())
	require.ErrorIs(t, err, ai.ErrIndexing)

	var e *ai.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "failed", e.Status)
	assert.Equal(t, 2, r.count("file_status"))
}

func TestBuild_IndexingTimeout(t *testing.T) {
	r := newFakeRemote()
	r.fileStatuses = []string{ai.FileInProgress}

	_, err := newBuilder(t, r).Build(context.Background(), ordersSchema())
	require.ErrorIs(t, err, ai.ErrIndexingTimeout)
	assert.False(t, errors.Is(err, ai.ErrIndexing))
	assert.Equal(t, 20, r.count("file_status"))

	var e *ai.Error
	require.ErrorAs(t, err, &e)
	assert.True(t, e.IsTimeout())
	assert.Equal(t, ai.FileInProgress, e.Status)
}

func TestBuild_Cancelled(t *testing.T) {
	r := newFakeRemote()
	r.fileStatuses = []string{ai.FileInProgress}
	ctx, cancel := context.WithCancel(context.Background())
	b := newBuilder(t, r)
	b.Poll.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := b.Build(ctx, ordersSchema())
	require.ErrorIs(t, err, ai.ErrCancelled)
	assert.False(t, errors.Is(err, ai.ErrIndexingTimeout))
	assert.Zero(t, r.count("file_status"))
}

func TestBuild_EmptySchema(t *testing.T) {
	r := newFakeRemote()
	_, err := newBuilder(t, r).Build(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptySchema)
	assert.Zero(t, r.count("upload"))
}
