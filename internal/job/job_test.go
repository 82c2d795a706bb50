package job

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	j := r.Create()
	require.NotEmpty(t, j.ID)
	assert.Equal(t, StatusPending, j.Status)

	r.SetProcessing(j.ID)
	got, ok := r.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, StatusProcessing, got.Status)

	r.SetCompleted(j.ID, map[string]float64{"overall_score": 0.82})
	got, ok = r.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotNil(t, got.Result)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestRegistryFailure(t *testing.T) {
	r := NewRegistry()

	j := r.Create()
	r.SetFailed(j.ID, errors.New("transcription failed"))

	got, ok := r.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "transcription failed", got.Error)
}

func TestRegistryUnknownJob(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestScratchDirLifecycle(t *testing.T) {
	s := NewScratch(t.TempDir())

	dir, err := s.Dir("job-123")
	require.NoError(t, err)

	marker := filepath.Join(dir, "user.wav")
	require.NoError(t, os.WriteFile(marker, []byte("pcm"), 0o644))

	require.NoError(t, s.Cleanup("job-123"))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
