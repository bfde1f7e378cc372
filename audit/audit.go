// Package audit keeps an append-only transcript of answered questions.
//
// The transcript is a separate concern from the engine: Wrap decorates
// any assistant.Answerer and records one Event per call.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/DachengChen/sqlagent/ai"
	"github.com/DachengChen/sqlagent/assistant"
)

// Event is one question and its outcome.
type Event struct {
	Time       time.Time `json:"time"`
	ThreadID   string    `json:"thread_id,omitempty"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer,omitempty"`
	Error      string    `json:"error,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// Sink stores events.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// Wrap returns an Answerer that records every call to next in sink.
// A failing sink is logged and never fails the answer.
func Wrap(next assistant.Answerer, sink Sink) assistant.Answerer {
	if sink == nil {
		return next
	}
	return &recorder{next: next, sink: sink, now: time.Now}
}

type recorder struct {
	next assistant.Answerer
	sink Sink
	now  func() time.Time
}

func (r *recorder) Answer(ctx context.Context, question, conversationID string) (assistant.Answer, error) {
	start := r.now()
	ans, err := r.next.Answer(ctx, question, conversationID)

	e := Event{
		Time:       start.UTC(),
		ThreadID:   ans.ConversationID,
		Question:   question,
		Answer:     ans.Text,
		DurationMS: r.now().Sub(start).Milliseconds(),
	}
	if e.ThreadID == "" {
		e.ThreadID = conversationID
	}
	if err != nil {
		e.Error = err.Error()
		e.Kind = string(ai.KindOf(err))
	}
	if emitErr := r.sink.Emit(context.WithoutCancel(ctx), e); emitErr != nil {
		slog.WarnContext(ctx, "audit emit failed", "error", emitErr)
	}
	return ans, err
}
