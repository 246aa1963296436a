package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vietddude/feedrouter/internal/core/domain"
)

// FileAppendSink appends records to a single file. The file is opened,
// written, synced and closed on every delivery so records written before a
// crash are never lost.
type FileAppendSink struct {
	path string
	mu   sync.Mutex
}

// NewFileAppendSink creates a sink writing to dir/name, creating dir if needed.
func NewFileAppendSink(dir, name string) (*FileAppendSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileAppendSink{path: filepath.Join(dir, name)}, nil
}

// Name implements Sink.
func (s *FileAppendSink) Name() string { return "file" }

// Path returns the file the sink appends to.
func (s *FileAppendSink) Path() string { return s.path }

// Deliver implements Sink.
func (s *FileAppendSink) Deliver(ctx context.Context, rec domain.FormattedRecord) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", s.path, cerr))
		}
	}()

	if _, err := f.WriteString(rec.Text); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	return nil
}

// Close implements Sink. No handle is held between deliveries.
func (s *FileAppendSink) Close() error { return nil }
