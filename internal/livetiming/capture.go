package livetiming

import (
	"encoding/json"
	"fmt"
	"os"
)

// CaptureWriter appends batches to a JSON-lines capture file, producing
// the same format ReplayClient consumes. Not safe for concurrent use;
// the relay writes from its single processing goroutine.
type CaptureWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewCaptureWriter opens (or creates) a capture file for appending.
func NewCaptureWriter(path string) (*CaptureWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file %s: %w", path, err)
	}
	return &CaptureWriter{file: file, enc: json.NewEncoder(file)}, nil
}

// Append writes one batch as a JSON line.
func (w *CaptureWriter) Append(batch Batch) error {
	if err := w.enc.Encode(batch); err != nil {
		return fmt.Errorf("failed to append batch to capture: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *CaptureWriter) Close() error {
	return w.file.Close()
}
