package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultMaxResponseBytes bounds how much of a response body is read.
	DefaultMaxResponseBytes int64 = 8 << 20

	purposeAssistants = "assistants"
	betaHeader        = "assistants=v2"
)

// Client talks to the assistants API: files, vector stores, assistants,
// threads, messages and runs. It is safe for concurrent use.
type Client struct {
	// HTTP is the transport; replaceable in tests.
	HTTP             *http.Client
	MaxResponseBytes int64

	baseURL string
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTP = hc
	}
}

// WithTimeout sets the per-call timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP = &http.Client{Timeout: d}
		}
	}
}

// New creates a client for baseURL (DefaultBaseURL when empty).
func New(baseURL, apiKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		HTTP:             &http.Client{Timeout: 60 * time.Second},
		MaxResponseBytes: DefaultMaxResponseBytes,
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiKey:           apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadFile uploads content as a file usable by assistants.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return File{}, &Error{Kind: KindUpload, Op: "POST /files", Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return File{}, &Error{Kind: KindUpload, Op: "POST /files", Err: err}
	}
	if err := mw.WriteField("purpose", purposeAssistants); err != nil {
		return File{}, &Error{Kind: KindUpload, Op: "POST /files", Err: err}
	}
	if err := mw.Close(); err != nil {
		return File{}, &Error{Kind: KindUpload, Op: "POST /files", Err: err}
	}

	var f File
	err = c.call(ctx, KindUpload, http.MethodPost, "/files", buf.Bytes(), mw.FormDataContentType(), &f)
	return f, err
}

// CreateVectorStore creates an empty vector store.
func (c *Client) CreateVectorStore(ctx context.Context, name string) (VectorStore, error) {
	var vs VectorStore
	err := c.callJSON(ctx, KindVectorStoreCreation, http.MethodPost, "/vector_stores",
		map[string]string{"name": name}, &vs)
	return vs, err
}

// AttachFile adds an uploaded file to a vector store, starting indexing.
func (c *Client) AttachFile(ctx context.Context, vectorStoreID, fileID string) error {
	path := "/vector_stores/" + url.PathEscape(vectorStoreID) + "/files"
	return c.callJSON(ctx, KindAttachment, http.MethodPost, path,
		map[string]string{"file_id": fileID}, nil)
}

// GetVectorStoreFile returns the indexing status of a file.
func (c *Client) GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (VectorStoreFile, error) {
	var f VectorStoreFile
	path := "/vector_stores/" + url.PathEscape(vectorStoreID) + "/files/" + url.PathEscape(fileID)
	err := c.call(ctx, KindIndexing, http.MethodGet, path, nil, "", &f)
	return f, err
}

// CreateAssistant creates an assistant.
func (c *Client) CreateAssistant(ctx context.Context, req AssistantRequest) (Assistant, error) {
	var a Assistant
	err := c.callJSON(ctx, KindAssistantCreation, http.MethodPost, "/assistants", req, &a)
	return a, err
}

// CreateThread creates an empty conversation.
func (c *Client) CreateThread(ctx context.Context) (Thread, error) {
	var t Thread
	err := c.call(ctx, KindThreadCreation, http.MethodPost, "/threads", nil, "", &t)
	return t, err
}

// AppendMessage adds a user-authored message to a thread.
func (c *Client) AppendMessage(ctx context.Context, threadID, content string) error {
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	return c.callJSON(ctx, KindMessageAppend, http.MethodPost, path,
		map[string]string{"role": "user", "content": content}, nil)
}

// CreateRun starts a run of assistantID against a thread.
func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (Run, error) {
	var r Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs"
	err := c.callJSON(ctx, KindRunCreation, http.MethodPost, path,
		map[string]string{"assistant_id": assistantID}, &r)
	return r, err
}

// GetRun returns the current state of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	var r Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	err := c.call(ctx, KindRun, http.MethodGet, path, nil, "", &r)
	return r, err
}

// ListMessages returns the thread's messages, newest first.
func (c *Client) ListMessages(ctx context.Context, threadID string) (MessageList, error) {
	var l MessageList
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	err := c.call(ctx, KindMessageList, http.MethodGet, path, nil, "", &l)
	return l, err
}

func (c *Client) callJSON(ctx context.Context, kind Kind, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{Kind: kind, Op: method + " " + path, Err: err}
	}
	return c.call(ctx, kind, method, path, payload, "application/json", out)
}

// call performs one request. Transport and status failures are reported
// as kind; an undecodable or incomplete 2xx body as KindMalformedResponse;
// a cancelled ctx as KindCancelled.
func (c *Client) call(ctx context.Context, kind Kind, method, path string, payload []byte, contentType string, out any) (err error) {
	op := method + " " + path
	start := time.Now()
	status := 0
	defer func() {
		logCall(ctx, op, status, time.Since(start), err)
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: kind, Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", betaHeader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Kind: KindCancelled, Op: op, Err: ctxErr}
		}
		return &Error{Kind: kind, Op: op, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Kind: KindCancelled, Op: op, Err: ctxErr}
		}
		return &Error{Kind: kind, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: kind, Op: op, StatusCode: resp.StatusCode, Body: truncateBody(respBody)}
	}
	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Kind: KindMalformedResponse, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			return &Error{Kind: KindMalformedResponse, Op: op, StatusCode: resp.StatusCode, Err: err}
		}
	}
	return nil
}

// IsCancelled reports whether err stems from a cancelled context.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
