// Copyright 2025 James Ross
package obs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditEntry is one recorded request outcome, written as a single JSON
// line per entry.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	UserID    string    `json:"user_id,omitempty"`
	Tier      string    `json:"tier,omitempty"`
	Status    int       `json:"status"`
}

// AuditLogger writes AuditEntry records to a size-rotated log file,
// grounded on the rbac-and-tokens package's lumberjack-backed audit
// writer but stripped down to the fields the admission layer records.
type AuditLogger struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
}

// NewAuditLogger opens path for appending, rotating at maxSizeMB with up
// to maxBackups kept. A blank path disables the logger entirely.
func NewAuditLogger(path string, maxSizeMB, maxBackups int) (*AuditLogger, error) {
	if path == "" {
		return &AuditLogger{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &AuditLogger{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   true,
		},
	}, nil
}

// Log appends entry as a single JSON line. A nil writer (disabled logger)
// is a no-op.
func (a *AuditLogger) Log(entry AuditEntry) error {
	if a.writer == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = a.writer.Write(line)
	return err
}

// Close flushes and closes the underlying rotated file.
func (a *AuditLogger) Close() error {
	if a.writer == nil {
		return nil
	}
	return a.writer.Close()
}
