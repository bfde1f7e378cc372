package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DachengChen/sqlagent/ai"
)

// State is the initialization state of an Engine.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures an Engine. Zero fields take the DefaultOptions value.
type Options struct {
	Model           string
	Name            string
	VectorStoreName string
	// AssistantID reuses an existing assistant and skips the knowledge
	// base build entirely.
	AssistantID  string
	Instructions string

	IndexPoll              Policy
	RunPoll                Policy
	SerializeConversations bool

	TempDir string
	Metrics *Metrics
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		Model:                  "gpt-4-turbo",
		Name:                   "SQL Agent",
		VectorStoreName:        "SQL Agent Knowledge Base",
		Instructions:           ai.Instructions(ai.DialectTSQL),
		IndexPoll:              Policy{Interval: time.Second, MaxAttempts: 20},
		RunPoll:                Policy{Interval: time.Second, MaxAttempts: 30},
		SerializeConversations: true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Model == "" {
		o.Model = d.Model
	}
	if o.Name == "" {
		o.Name = d.Name
	}
	if o.VectorStoreName == "" {
		o.VectorStoreName = d.VectorStoreName
	}
	if o.Instructions == "" {
		o.Instructions = d.Instructions
	}
	if o.IndexPoll.MaxAttempts <= 0 {
		o.IndexPoll.MaxAttempts = d.IndexPoll.MaxAttempts
	}
	if o.IndexPoll.Interval <= 0 {
		o.IndexPoll.Interval = d.IndexPoll.Interval
	}
	if o.RunPoll.MaxAttempts <= 0 {
		o.RunPoll.MaxAttempts = d.RunPoll.MaxAttempts
	}
	if o.RunPoll.Interval <= 0 {
		o.RunPoll.Interval = d.RunPoll.Interval
	}
	return o
}

// Engine is the single entry point for answering questions. Initialize
// must succeed before Answer is accepted.
type Engine struct {
	remote   Remote
	opts     Options
	builder  *KnowledgeBuilder
	registry *Registry

	initMu sync.Mutex

	mu     sync.RWMutex
	state  State
	driver *Driver
	err    error
}

// NewEngine returns an uninitialized engine over remote.
func NewEngine(remote Remote, opts Options) *Engine {
	opts = opts.withDefaults()
	remote = InstrumentRemote(remote, opts.Metrics)
	return &Engine{
		remote: remote,
		opts:   opts,
		builder: &KnowledgeBuilder{
			Remote:          remote,
			VectorStoreName: opts.VectorStoreName,
			Poll:            opts.IndexPoll,
			TempDir:         opts.TempDir,
			Metrics:         opts.Metrics,
		},
		registry: &Registry{
			Remote:       remote,
			Name:         opts.Name,
			Model:        opts.Model,
			ConfiguredID: opts.AssistantID,
		},
	}
}

// Initialize builds the knowledge base from tables and resolves the
// assistant. It runs once: later calls return nil when ready, or the
// recorded failure. A cancelled ctx leaves the engine uninitialized.
func (e *Engine) Initialize(ctx context.Context, tables []TableSchema) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	e.mu.RLock()
	state, prev := e.state, e.err
	e.mu.RUnlock()
	switch state {
	case StateReady:
		return nil
	case StateFailed:
		return prev
	}

	start := time.Now()
	id, err := e.initialize(ctx, tables)
	if err != nil {
		if ai.IsCancelled(err) {
			return err
		}
		slog.ErrorContext(ctx, "assistant initialization failed", "kind", ai.KindOf(err), "error", err)
		e.mu.Lock()
		e.state, e.err = StateFailed, err
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.state = StateReady
	e.driver = NewDriver(e.remote, id, e.opts.RunPoll, e.opts.SerializeConversations)
	e.driver.Metrics = e.opts.Metrics
	e.mu.Unlock()

	slog.InfoContext(ctx, "assistant ready", "assistant_id", id, "duration", time.Since(start))
	return nil
}

func (e *Engine) initialize(ctx context.Context, tables []TableSchema) (string, error) {
	var vectorStoreID string
	if e.opts.AssistantID != "" {
		slog.WarnContext(ctx, "using configured assistant; its knowledge base is not rebuilt or verified",
			"assistant_id", e.opts.AssistantID)
	} else {
		id, err := e.builder.Build(ctx, tables)
		if err != nil {
			return "", err
		}
		vectorStoreID = id
	}
	return e.registry.Ensure(ctx, vectorStoreID, e.opts.Instructions)
}

// Answer answers question within conversationID, or a new conversation
// when it is empty.
func (e *Engine) Answer(ctx context.Context, question, conversationID string) (Answer, error) {
	e.mu.RLock()
	d, initErr := e.driver, e.err
	e.mu.RUnlock()
	if d == nil {
		return Answer{ConversationID: conversationID}, &ai.Error{Kind: ai.KindNotInitialized, Op: "answer", Err: initErr}
	}

	start := time.Now()
	ans, err := d.Answer(ctx, question, conversationID)
	e.opts.Metrics.observeQuestion(err, time.Since(start))
	if err != nil {
		slog.WarnContext(ctx, "question failed",
			"thread_id", ans.ConversationID,
			"kind", ai.KindOf(err),
			"error", err,
		)
		return ans, err
	}
	slog.InfoContext(ctx, "question answered", "thread_id", ans.ConversationID, "duration", time.Since(start))
	return ans, nil
}

// State reports the initialization state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Err returns the initialization failure, if any.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// AssistantID returns the resolved assistant, or "" before Initialize.
func (e *Engine) AssistantID() string {
	return e.registry.ID()
}

var _ Answerer = (*Engine)(nil)
