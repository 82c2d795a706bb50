package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScript = `name: lesson-1
audio_path: lesson-1.wav
transcript: hello world
words:
  - word: hello
    start: 0.0
    end: 0.5
  - word: world
    start: 0.6
    end: 1.1
`

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadReferenceFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "lesson-1.yaml", sampleScript)

	ref, err := LoadReferenceFile(path)
	require.NoError(t, err)

	assert.Equal(t, "lesson-1", ref.Name)
	assert.Equal(t, "hello world", ref.Transcript)
	assert.Equal(t, filepath.Join(dir, "lesson-1.wav"), ref.AudioPath)
	require.Len(t, ref.Words, 2)
	assert.Equal(t, "hello", ref.Words[0].Word)
	assert.InDelta(t, 0.5, ref.Words[0].End, 1e-9)
}

func TestLoadReferenceFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "lesson.json", `{
  "audio_path": "/audio/lesson.wav",
  "words": [{"word": "hi", "start": 0, "end": 0.4}]
}`)

	ref, err := LoadReferenceFile(path)
	require.NoError(t, err)

	// Name falls back to the file name, transcript to the word list.
	assert.Equal(t, "lesson", ref.Name)
	assert.Equal(t, "hi", ref.Transcript)
	assert.Equal(t, "/audio/lesson.wav", ref.AudioPath)
}

func TestLoadReferenceFileValidation(t *testing.T) {
	dir := t.TempDir()

	path := writeScript(t, dir, "no-audio.yaml", "words:\n  - word: hi\n    start: 0\n    end: 0.4\n")
	_, err := LoadReferenceFile(path)
	assert.ErrorContains(t, err, "audio_path")

	path = writeScript(t, dir, "no-words.yaml", "audio_path: a.wav\n")
	_, err = LoadReferenceFile(path)
	assert.ErrorContains(t, err, "word")

	path = writeScript(t, dir, "bad-span.yaml", "audio_path: a.wav\nwords:\n  - word: hi\n    start: 0.5\n    end: 0.5\n")
	_, err = LoadReferenceFile(path)
	assert.ErrorContains(t, err, "duration")
}

func TestReferenceStoreLoad(t *testing.T) {
	dataDir := t.TempDir()
	writeScript(t, dataDir, filepath.Join("references", "lesson-1.yaml"), sampleScript)

	store := NewReferenceStore(dataDir)

	ref, err := store.Load("lesson-1")
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", ref.Name)

	_, err = store.Load("missing")
	assert.Error(t, err)
}

func TestReferenceStoreLoadDirectPath(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "anywhere.yaml", sampleScript)

	store := NewReferenceStore(t.TempDir())

	ref, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", ref.Name)
}
