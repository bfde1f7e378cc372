package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DachengChen/sqlagent/ai"
	"github.com/DachengChen/sqlagent/assistant"
)

// StatusClientClosedRequest is logged when the caller went away before
// the answer was ready.
const StatusClientClosedRequest = 499

type askRequest struct {
	Question string  `json:"question"`
	ThreadID *string `json:"threadId"`
}

type askResponse struct {
	SQL      string `json:"sql"`
	ThreadID string `json:"threadId"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	question := strings.TrimSpace(req.Question)
	if msg := s.validate(question); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}
	var threadID string
	if req.ThreadID != nil {
		threadID = strings.TrimSpace(*req.ThreadID)
	}

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	ans, err := s.answerer.Answer(ctx, question, threadID)
	if err != nil {
		status := statusFor(err)
		if status == StatusClientClosedRequest && r.Context().Err() != nil {
			slog.InfoContext(ctx, "client went away", "thread_id", ans.ConversationID)
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, errorResponse{
			Error:    err.Error(),
			Kind:     string(ai.KindOf(err)),
			ThreadID: ans.ConversationID,
		})
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		SQL:      ai.ExtractSQL(ans.Text),
		ThreadID: ans.ConversationID,
	})
}

func (s *Server) validate(question string) string {
	return assistant.ValidateQuestion(question, s.cfg.MaxQuestionLength)
}

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	switch ai.KindOf(err) {
	case ai.KindNotInitialized:
		return http.StatusServiceUnavailable
	case ai.KindIndexingTimeout, ai.KindRunTimeout:
		return http.StatusGatewayTimeout
	case ai.KindCancelled:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return StatusClientClosedRequest
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.state != nil {
		switch s.state() {
		case assistant.StateReady:
		case assistant.StateFailed:
			status, code = "failed", http.StatusServiceUnavailable
		default:
			status, code = "initializing", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
