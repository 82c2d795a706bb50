package stt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func token(text, from, to string, p float64) Token {
	return Token{
		Text:       text,
		Timestamps: Timestamps{From: from, To: to},
		P:          p,
	}
}

func TestParseClock(t *testing.T) {
	assert.InDelta(t, 1.5, ParseClock("00:00:01,500"), 1e-9)
	assert.InDelta(t, 61.25, ParseClock("00:01:01,250"), 1e-9)
	assert.InDelta(t, 3600.0, ParseClock("01:00:00,000"), 1e-9)
	assert.Equal(t, 0.0, ParseClock("bogus"))
}

func TestResultText(t *testing.T) {
	r := &Result{Transcription: []Segment{{Text: " hello world "}}}
	assert.Equal(t, "hello world", r.Text())

	assert.Equal(t, "", (&Result{}).Text())
}

func TestIsSilence(t *testing.T) {
	blank := &Result{Transcription: []Segment{{Text: "[BLANK_AUDIO]"}}}
	assert.True(t, blank.IsSilence())

	speech := &Result{Transcription: []Segment{{Text: "hello"}}}
	assert.False(t, speech.IsSilence())
}

func TestTokenSegments(t *testing.T) {
	r := &Result{Transcription: []Segment{{
		Tokens: []Token{
			token("[_BEG_]", "00:00:00,000", "00:00:00,000", 0.0),
			token(" hello", "00:00:00,000", "00:00:00,400", 0.95),
			token(" world", "00:00:00,500", "00:00:01,000", 0.90),
			token("  ", "00:00:01,000", "00:00:01,000", 0.1),
		},
	}}}

	segs := r.TokenSegments()
	require.Len(t, segs, 2)
	assert.Equal(t, "hello", segs[0].Word)
	assert.InDelta(t, 0.4, segs[0].End, 1e-9)
	assert.Equal(t, 0.95, segs[0].Confidence)
	assert.Equal(t, "world", segs[1].Word)
}

func TestWordTimestampsMergesSubwords(t *testing.T) {
	r := &Result{Transcription: []Segment{{
		Tokens: []Token{
			token("[_BEG_]", "00:00:00,000", "00:00:00,000", 0.0),
			token(" pro", "00:00:00,000", "00:00:00,200", 0.9),
			token("nun", "00:00:00,200", "00:00:00,350", 0.9),
			token("ciation", "00:00:00,350", "00:00:00,600", 0.9),
			token(" test", "00:00:00,700", "00:00:01,000", 0.8),
			token(".", "00:00:01,000", "00:00:01,000", 0.5),
		},
	}}}

	words := r.WordTimestamps()
	require.Len(t, words, 2)

	assert.Equal(t, "pronunciation", words[0].Word)
	assert.InDelta(t, 0.0, words[0].Start, 1e-9)
	assert.InDelta(t, 0.6, words[0].End, 1e-9)

	assert.Equal(t, "test", words[1].Word)
	assert.InDelta(t, 0.7, words[1].Start, 1e-9)
	assert.InDelta(t, 1.0, words[1].End, 1e-9)
}

func TestWordTimestampsPrefersWordsArray(t *testing.T) {
	r := &Result{Transcription: []Segment{{
		Words: []Word{
			{Word: "hello", Start: 0.1, End: 0.5},
			{Word: "there", Start: 0.6, End: 1.0},
		},
		Tokens: []Token{token(" ignored", "00:00:05,000", "00:00:06,000", 0.5)},
	}}}

	words := r.WordTimestamps()
	require.Len(t, words, 2)
	assert.Equal(t, "hello", words[0].Word)
	assert.Equal(t, 0.1, words[0].Start)
}

func TestWordTimestampsEmpty(t *testing.T) {
	assert.Empty(t, (&Result{}).WordTimestamps())
}

func TestWhisperClientTranscribe(t *testing.T) {
	want := Result{Transcription: []Segment{{
		Text: " hello",
		Tokens: []Token{
			token(" hello", "00:00:00,000", "00:00:00,500", 0.9),
		},
	}}}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/inference", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "en", r.FormValue("language"))

		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "user_audio.wav", header.Filename)

		require.NoError(t, json.NewEncoder(w).Encode(want))
	}))
	defer server.Close()

	audioPath := filepath.Join(t.TempDir(), "user_audio.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("RIFF fake wav"), 0o644))

	client, err := NewWhisperClient(server.URL)
	require.NoError(t, err)

	result, err := client.Transcribe(context.Background(), audioPath)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Text())
}

func TestWhisperClientErrors(t *testing.T) {
	_, err := NewWhisperClient("")
	assert.Error(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	audioPath := filepath.Join(t.TempDir(), "a.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("data"), 0o644))

	client, err := NewWhisperClient(server.URL)
	require.NoError(t, err)

	_, err = client.Transcribe(context.Background(), audioPath)
	assert.ErrorContains(t, err, "HTTP 500")
}
