package record_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bkyoung/ideaminer/internal/adapter/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRecorder_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.wav")
	require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0o644))

	r := record.NewFileRecorder(path)

	require.NoError(t, r.Start(context.Background()))
	audio, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes"), audio)
}

func TestFileRecorder_MissingFile(t *testing.T) {
	r := record.NewFileRecorder(filepath.Join(t.TempDir(), "nope.wav"))

	assert.Error(t, r.Start(context.Background()))
}
