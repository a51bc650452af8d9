package activity

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

// FileStore provides append-only line-delimited JSON storage for events
type FileStore struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

// NewFileStore opens (or creates) the activity log at filePath
func NewFileStore(filePath string) (*FileStore, error) {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create activity log directory: %w", err)
		}
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity log: %w", err)
	}

	return &FileStore{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append writes an event to the log
func (s *FileStore) Append(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	data = append(data, '\n')

	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync activity log: %w", err)
	}
	return nil
}

// Record implements Recorder
func (s *FileStore) Record(ctx context.Context, ev Event) {
	if err := s.Append(ev); err != nil {
		telemetry.ActivityEventsTotal.WithLabelValues("file", "error").Inc()
		slog.ErrorContext(ctx, "Failed to append activity event", "kind", ev.Kind, "error", err)
		return
	}
	telemetry.ActivityEventsTotal.WithLabelValues("file", "ok").Inc()
}

// LoadAll reads all events from the log
func (s *FileStore) LoadAll() ([]Event, error) {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("failed to open activity log for reading: %w", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("failed to deserialize event at line %d: %w", lineNum, err)
		}
		events = append(events, ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading activity log: %w", err)
	}

	return events, nil
}

// Close closes the log file
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
