package assistant

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DachengChen/sqlagent/ai"
)

// Metrics records engine activity. A nil *Metrics records nothing.
type Metrics struct {
	remoteCalls      *prometheus.CounterVec
	questionDuration *prometheus.HistogramVec
	pollAttempts     *prometheus.HistogramVec
}

// NewMetrics creates the engine metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sqlagent_remote_calls_total",
			Help: "Calls to the assistants API by operation and outcome.",
		}, []string{"op", "outcome"}),
		questionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sqlagent_question_duration_seconds",
			Help:    "Time to answer one question.",
			Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 45, 60},
		}, []string{"outcome"}),
		pollAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sqlagent_poll_attempts",
			Help:    "Attempts made by a polling loop before it ended.",
			Buckets: prometheus.LinearBuckets(1, 3, 11),
		}, []string{"loop"}),
	}
	reg.MustRegister(m.remoteCalls, m.questionDuration, m.pollAttempts)
	return m
}

func (m *Metrics) observeCall(op string, err error) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) observeQuestion(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.questionDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
}

func (m *Metrics) observePoll(loop string, attempts int) {
	if m == nil {
		return
	}
	m.pollAttempts.WithLabelValues(loop).Observe(float64(attempts))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := ai.KindOf(err); k != "" {
		return string(k)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return string(ai.KindCancelled)
	}
	return "error"
}

// InstrumentRemote counts every call made through r. It returns r itself
// when m is nil.
func InstrumentRemote(r Remote, m *Metrics) Remote {
	if m == nil {
		return r
	}
	return &instrumentedRemote{next: r, m: m}
}

type instrumentedRemote struct {
	next Remote
	m    *Metrics
}

func (i *instrumentedRemote) UploadFile(ctx context.Context, filename string, content io.Reader) (ai.File, error) {
	f, err := i.next.UploadFile(ctx, filename, content)
	i.m.observeCall("upload_file", err)
	return f, err
}

func (i *instrumentedRemote) CreateVectorStore(ctx context.Context, name string) (ai.VectorStore, error) {
	vs, err := i.next.CreateVectorStore(ctx, name)
	i.m.observeCall("create_vector_store", err)
	return vs, err
}

func (i *instrumentedRemote) AttachFile(ctx context.Context, vectorStoreID, fileID string) error {
	err := i.next.AttachFile(ctx, vectorStoreID, fileID)
	i.m.observeCall("attach_file", err)
	return err
}

func (i *instrumentedRemote) GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (ai.VectorStoreFile, error) {
	f, err := i.next.GetVectorStoreFile(ctx, vectorStoreID, fileID)
	i.m.observeCall("get_vector_store_file", err)
	return f, err
}

func (i *instrumentedRemote) CreateAssistant(ctx context.Context, req ai.AssistantRequest) (ai.Assistant, error) {
	a, err := i.next.CreateAssistant(ctx, req)
	i.m.observeCall("create_assistant", err)
	return a, err
}

func (i *instrumentedRemote) CreateThread(ctx context.Context) (ai.Thread, error) {
	t, err := i.next.CreateThread(ctx)
	i.m.observeCall("create_thread", err)
	return t, err
}

func (i *instrumentedRemote) AppendMessage(ctx context.Context, threadID, content string) error {
	err := i.next.AppendMessage(ctx, threadID, content)
	i.m.observeCall("append_message", err)
	return err
}

func (i *instrumentedRemote) CreateRun(ctx context.Context, threadID, assistantID string) (ai.Run, error) {
	r, err := i.next.CreateRun(ctx, threadID, assistantID)
	i.m.observeCall("create_run", err)
	return r, err
}

func (i *instrumentedRemote) GetRun(ctx context.Context, threadID, runID string) (ai.Run, error) {
	r, err := i.next.GetRun(ctx, threadID, runID)
	i.m.observeCall("get_run", err)
	return r, err
}

func (i *instrumentedRemote) ListMessages(ctx context.Context, threadID string) (ai.MessageList, error) {
	l, err := i.next.ListMessages(ctx, threadID)
	i.m.observeCall("list_messages", err)
	return l, err
}
