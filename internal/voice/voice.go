// Package voice turns a spoken filter pattern into text. The result is used
// exactly like typed input.
package voice

import (
	"context"
	"strings"
)

// Transcriber supplies one piece of filter text or fails.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// StaticTranscriber returns fixed text.
type StaticTranscriber struct {
	Text string
	Err  error
}

func (s StaticTranscriber) Transcribe(context.Context) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	text := Normalize(s.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// FileTranscriber transcribes one recording through a Client.
type FileTranscriber struct {
	Client *Client
	Path   string
}

func (f FileTranscriber) Transcribe(ctx context.Context) (string, error) {
	return f.Client.TranscribeFile(ctx, f.Path)
}

// Normalize trims whitespace and the sentence punctuation recognizers append
// ("Oslo." becomes "Oslo").
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".!?。")
	return strings.TrimSpace(s)
}
