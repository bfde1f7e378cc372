package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultRotateMaxBytes is used when NewJSONL is given no limit.
const DefaultRotateMaxBytes = 100 << 20

// JSONL appends events to a file, one JSON object per line. The file is
// renamed with a UTC timestamp suffix once it would exceed RotateMaxBytes.
type JSONL struct {
	Path           string
	RotateMaxBytes int64

	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	size int64
}

// NewJSONL opens (creating if needed) the transcript at path.
func NewJSONL(path string, rotateMaxBytes int64) (*JSONL, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("audit: missing jsonl path")
	}
	if rotateMaxBytes <= 0 {
		rotateMaxBytes = DefaultRotateMaxBytes
	}
	s := &JSONL{Path: path, RotateMaxBytes: rotateMaxBytes}
	if err := s.openLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Emit implements Sink.
func (s *JSONL) Emit(_ context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rotateIfNeededLocked(int64(len(b)) + 1); err != nil {
		return err
	}
	if s.w == nil {
		return errors.New("audit: sink is closed")
	}
	n, err := s.w.Write(append(b, '\n'))
	if err != nil {
		return err
	}
	s.size += int64(n)
	return s.w.Flush()
}

// Close flushes and closes the file.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w != nil {
		_ = s.w.Flush()
	}
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f, s.w, s.size = nil, nil, 0
	return err
}

func (s *JSONL) openLocked() error {
	if dir := filepath.Dir(s.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("audit: create dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("audit: open: %w", err)
	}
	if st, err := f.Stat(); err == nil {
		s.size = st.Size()
	}
	s.f = f
	s.w = bufio.NewWriterSize(f, 64*1024)
	return nil
}

func (s *JSONL) rotateIfNeededLocked(add int64) error {
	if s.f == nil || s.size == 0 || s.size+add <= s.RotateMaxBytes {
		return nil
	}

	_ = s.w.Flush()
	_ = s.f.Close()
	s.f, s.w = nil, nil

	rotated := s.Path + "." + time.Now().UTC().Format("20060102T150405.000Z")
	if err := os.Rename(s.Path, rotated); err != nil {
		// Keep appending to the current file rather than lose events.
		return s.openLocked()
	}
	s.size = 0
	return s.openLocked()
}
