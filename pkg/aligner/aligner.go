// Package aligner produces phone-level TextGrid alignments for a recording
// and its transcript.
package aligner

import "context"

// Aligner force-aligns a recording against its transcript and returns the
// path of the resulting TextGrid file. The name selects the corpus entry, so
// "user" yields user.wav, user.lab and user.TextGrid.
type Aligner interface {
	Align(ctx context.Context, audioPath, transcript, name string) (string, error)
}
