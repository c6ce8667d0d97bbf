// Package record provides audio recorder implementations for the capture
// flow. The file recorder stands in for real microphone capture: it hands
// over a pre-recorded file, which keeps the capture pipeline exercisable on
// machines with no audio stack.
package record

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bkyoung/ideaminer/internal/capture"
)

// FileRecorder satisfies capture.Recorder by reading a pre-recorded file.
type FileRecorder struct {
	path string
}

// NewFileRecorder returns a recorder that replays the given file.
func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

// Start verifies the file is readable. An unreadable file maps to the
// permission-denied flow, which is the closest analogue to a refused device.
func (r *FileRecorder) Start(context.Context) error {
	info, err := os.Stat(r.path)
	if errors.Is(err, fs.ErrPermission) {
		return capture.ErrPermissionDenied
	}
	if err != nil {
		return fmt.Errorf("open recording %s: %w", r.path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("recording %s is a directory", r.path)
	}
	return nil
}

// Stop returns the file contents as the captured audio.
func (r *FileRecorder) Stop() ([]byte, error) {
	audio, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read recording %s: %w", r.path, err)
	}
	return audio, nil
}

// Cancel discards nothing; the source file is left untouched.
func (r *FileRecorder) Cancel() {}
