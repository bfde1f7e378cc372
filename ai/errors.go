package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure of the assistant protocol.
type Kind string

const (
	KindUpload              Kind = "UploadFailure"
	KindVectorStoreCreation Kind = "VectorStoreCreationFailure"
	KindAttachment          Kind = "AttachmentFailure"
	KindIndexing            Kind = "IndexingFailure"
	KindIndexingTimeout     Kind = "IndexingTimeout"
	KindAssistantCreation   Kind = "AssistantCreationFailure"
	KindThreadCreation      Kind = "ThreadCreationFailure"
	KindMessageAppend       Kind = "MessageAppendFailure"
	KindRunCreation         Kind = "RunCreationFailure"
	KindRun                 Kind = "RunFailure"
	KindRunTimeout          Kind = "RunTimeout"
	KindMessageList         Kind = "MessageListFailure"
	KindNotInitialized      Kind = "NotInitialized"
	KindMalformedResponse   Kind = "MalformedResponse"
	KindCancelled           Kind = "Cancelled"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrUpload              = &Error{Kind: KindUpload}
	ErrVectorStoreCreation = &Error{Kind: KindVectorStoreCreation}
	ErrAttachment          = &Error{Kind: KindAttachment}
	ErrIndexing            = &Error{Kind: KindIndexing}
	ErrIndexingTimeout     = &Error{Kind: KindIndexingTimeout}
	ErrAssistantCreation   = &Error{Kind: KindAssistantCreation}
	ErrThreadCreation      = &Error{Kind: KindThreadCreation}
	ErrMessageAppend       = &Error{Kind: KindMessageAppend}
	ErrRunCreation         = &Error{Kind: KindRunCreation}
	ErrRun                 = &Error{Kind: KindRun}
	ErrRunTimeout          = &Error{Kind: KindRunTimeout}
	ErrMessageList         = &Error{Kind: KindMessageList}
	ErrNotInitialized      = &Error{Kind: KindNotInitialized}
	ErrMalformedResponse   = &Error{Kind: KindMalformedResponse}
	ErrCancelled           = &Error{Kind: KindCancelled}
)

// maxErrorBody caps how much of a remote error body is kept.
const maxErrorBody = 512

// Error is returned by every Client method and by the assistant engine.
type Error struct {
	Kind Kind
	// Op is the remote operation, e.g. "POST /threads".
	Op string
	// StatusCode is the HTTP status of a rejected call.
	StatusCode int
	// Status is the last remote resource status observed by a poll
	// (indexing or run), e.g. "failed" or "expired".
	Status string
	Body   string
	Err    error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Op != "" {
		sb.WriteString(" [" + e.Op + "]")
	}
	if e.StatusCode != 0 {
		sb.WriteString(fmt.Sprintf(" (HTTP %d)", e.StatusCode))
	}
	if e.Status != "" {
		sb.WriteString(fmt.Sprintf(" status=%q", e.Status))
	}
	if e.Body != "" {
		sb.WriteString(": " + e.Body)
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsTimeout reports whether the failure means the remote operation may
// still complete later.
func (e *Error) IsTimeout() bool {
	return e.Kind == KindIndexingTimeout || e.Kind == KindRunTimeout
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func truncateBody(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody-3] + "..."
}
