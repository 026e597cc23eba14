package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// logFilePermissions keeps the log readable by a local SIEM forwarder group.
const logFilePermissions = 0o640

// errSinkClosed is returned when writing after Close.
var errSinkClosed = errors.New("event log is closed")

// FileSink appends one JSON line per record. Existing content is never rewritten.
type FileSink struct {
	// path is the log file location.
	path string
	// file is the append-only handle.
	file *os.File
	// mu serialises writers so lines never interleave.
	mu sync.Mutex
}

// OpenFile opens (or creates) the log file for appending.
func OpenFile(path string) (*FileSink, error) {
	path = filepath.Clean(path)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	return &FileSink{
		path: path,
		file: file,
	}, nil
}

// Path returns the log file location.
func (s *FileSink) Path() string {
	return s.path
}

// Write implements Sink.
func (s *FileSink) Write(_ context.Context, record Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return errSinkClosed
	}

	if _, err = s.file.Write(line); err != nil {
		return fmt.Errorf("append record: %w", err)
	}

	return nil
}

// Close syncs and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	syncErr := s.file.Sync()
	closeErr := s.file.Close()
	s.file = nil

	return errors.Join(syncErr, closeErr)
}
