package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/synheart/consciousness-bridge/internal/models"
)

// Format selects the on-disk layout of a recording
type Format string

const (
	FormatNDJSON Format = "ndjson"
	FormatProto  Format = "proto"
	FormatSQLite Format = "sqlite"
)

// ParseFormat validates a recording format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatNDJSON, FormatProto, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("unknown recording format '%s' (want ndjson, proto or sqlite)", s)
	}
}

// Writer persists samples
type Writer interface {
	Write(sample models.Sample) error
	Close() error
}

// NewWriter creates a writer for path in the given format
func NewWriter(path string, format Format) (Writer, error) {
	switch format {
	case FormatNDJSON:
		return NewNDJSONWriter(path)
	case FormatProto:
		return NewProtoWriter(path)
	case FormatSQLite:
		return NewSQLiteWriter(path)
	default:
		return nil, fmt.Errorf("unknown recording format '%s'", format)
	}
}

// RecordFromChannel writes samples until the channel closes or ctx is done,
// then closes w. onEntry runs after each stored sample.
func RecordFromChannel(ctx context.Context, w Writer, samples <-chan models.Sample, onEntry func()) error {
	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case sample, ok := <-samples:
			if !ok {
				return w.Close()
			}
			if err := w.Write(sample); err != nil {
				w.Close()
				return err
			}
			if onEntry != nil {
				onEntry()
			}
		}
	}
}

// NDJSONWriter writes one JSON sample per line
type NDJSONWriter struct {
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// NewNDJSONWriter creates path, truncating an existing file
func NewNDJSONWriter(path string) (*NDJSONWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	return &NDJSONWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Write appends a sample followed by a newline
func (w *NDJSONWriter) Write(sample models.Sample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write sample: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

// Close flushes and closes the file
func (w *NDJSONWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}
