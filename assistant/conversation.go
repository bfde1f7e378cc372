package assistant

import (
	"context"
	"log/slog"

	"github.com/DachengChen/sqlagent/ai"
)

// Driver answers questions over remote threads with one assistant.
type Driver struct {
	Remote      Remote
	AssistantID string
	Poll        Policy
	Metrics     *Metrics

	// locks serializes questions per thread; nil leaves concurrent runs
	// on one thread to the remote.
	locks *keyedMutex
}

// NewDriver returns a driver for assistantID. With serialize set, two
// questions on the same thread never overlap.
func NewDriver(remote Remote, assistantID string, poll Policy, serialize bool) *Driver {
	d := &Driver{Remote: remote, AssistantID: assistantID, Poll: poll}
	if serialize {
		d.locks = newKeyedMutex()
	}
	return d
}

// Answer appends question to conversationID (a new thread when empty),
// runs the assistant and returns its latest message. When no assistant
// message exists the answer is NoResponse.
//
// On failure after a thread was resolved, the returned Answer still
// carries its ID so the caller can continue the conversation.
func (d *Driver) Answer(ctx context.Context, question, conversationID string) (Answer, error) {
	threadID := conversationID
	if threadID == "" {
		t, err := d.Remote.CreateThread(ctx)
		if err != nil {
			return Answer{}, err
		}
		threadID = t.ID
		slog.DebugContext(ctx, "thread created", "thread_id", threadID)
	} else if d.locks != nil {
		unlock, err := d.locks.Lock(ctx, threadID)
		if err != nil {
			return Answer{ConversationID: threadID}, cancelled("lock thread "+threadID, err)
		}
		defer unlock()
	}

	ans := Answer{ConversationID: threadID}
	if err := d.Remote.AppendMessage(ctx, threadID, question); err != nil {
		return ans, err
	}

	run, err := d.Remote.CreateRun(ctx, threadID, d.AssistantID)
	if err != nil {
		return ans, err
	}
	if err := d.waitRun(ctx, threadID, run); err != nil {
		return ans, err
	}

	msgs, err := d.Remote.ListMessages(ctx, threadID)
	if err != nil {
		return ans, err
	}
	text, ok := msgs.LatestAssistantText()
	if !ok {
		slog.WarnContext(ctx, "run completed without assistant message", "thread_id", threadID, "run_id", run.ID)
		text = NoResponse
	}
	ans.Text = text
	return ans, nil
}

func (d *Driver) waitRun(ctx context.Context, threadID string, run ai.Run) error {
	attempts := 0
	last, err := Poll(ctx, d.Poll,
		func(ctx context.Context) (ai.Run, error) {
			attempts++
			r, err := d.Remote.GetRun(ctx, threadID, run.ID)
			if err == nil {
				slog.DebugContext(ctx, "run status", "run_id", run.ID, "status", r.Status, "attempt", attempts)
			}
			return r, err
		},
		func(r ai.Run) bool { return r.Status != ai.RunQueued && r.Status != ai.RunInProgress })
	d.Metrics.observePoll("run", attempts)

	op := "run " + run.ID
	if err != nil {
		status := last.Status
		if status == "" {
			status = run.Status
		}
		return pollFailure(err, ai.KindRunTimeout, op, status)
	}
	if last.Status != ai.RunCompleted {
		e := &ai.Error{Kind: ai.KindRun, Op: op, Status: last.Status}
		if last.LastError != nil {
			e.Body = last.LastError.Message
		}
		return e
	}
	return nil
}
