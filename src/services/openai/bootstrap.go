// Package openai connects calls to the OpenAI Realtime API and configures
// each session before audio flows.
package openai

import (
	"fmt"

	"github.com/square-key-labs/strawgo-callbridge/src/config"
	"github.com/square-key-labs/strawgo-callbridge/src/frames"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

// SessionDefaults returns the session settings for cfg. Instructions holds
// the base prompt; the per-call issue is appended by Bootstrap.
func SessionDefaults(cfg config.OpenAIConfig) frames.SessionConfig {
	return frames.SessionConfig{
		InputAudioFormat:  cfg.InputAudioFormat,
		OutputAudioFormat: cfg.OutputAudioFormat,
		Voice:             cfg.Voice,
		Instructions:      cfg.Instructions,
		Modalities:        []string{"text", "audio"},
		Temperature:       cfg.Temperature,
	}
}

// Instructions appends the caller's issue to the base prompt as a
// delimited block. Without an issue the base prompt is returned as is.
func Instructions(base, issue string) string {
	if issue == "" {
		return base
	}
	return base + "\n\n---\nUSER'S ISSUE:\n" + issue + "\n---"
}

// Bootstrap sends the single session.update that configures a new
// session. It must run before any caller audio is forwarded.
func Bootstrap(w transports.FrameWriter, session frames.SessionConfig, issue string) error {
	session.Instructions = Instructions(session.Instructions, issue)
	if err := w.WriteFrame(frames.NewSessionUpdateFrame(session)); err != nil {
		return fmt.Errorf("failed to send session update: %w", err)
	}
	return nil
}
