package openai

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/square-key-labs/strawgo-callbridge/src/config"
	"github.com/square-key-labs/strawgo-callbridge/src/frames"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

const basePrompt = "You are a support advocate calling on behalf of a customer."

type recordingWriter struct {
	frames []frames.Frame
	err    error
}

func (w *recordingWriter) WriteFrame(f frames.Frame) error {
	if w.err != nil {
		return w.err
	}
	w.frames = append(w.frames, f)
	return nil
}

func testSession() frames.SessionConfig {
	return SessionDefaults(config.OpenAIConfig{
		Voice:             "echo",
		Temperature:       0.2,
		InputAudioFormat:  "g711_ulaw",
		OutputAudioFormat: "g711_ulaw",
		Instructions:      basePrompt,
	})
}

func TestInstructions(t *testing.T) {
	assert.Equal(t, basePrompt, Instructions(basePrompt, ""))
	assert.Equal(t, basePrompt+"\n\n---\nUSER'S ISSUE:\nrouter down\n---", Instructions(basePrompt, "router down"))
}

func TestBootstrap_WithContext(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, Bootstrap(w, testSession(), "billing dispute on invoice 881"))

	require.Len(t, w.frames, 1)
	update, ok := w.frames[0].(*frames.SessionUpdateFrame)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(update.Session.Instructions, basePrompt))
	assert.Contains(t, update.Session.Instructions, "billing dispute on invoice 881")
	assert.Equal(t, "g711_ulaw", update.Session.InputAudioFormat)
	assert.Equal(t, "g711_ulaw", update.Session.OutputAudioFormat)
	assert.Equal(t, "echo", update.Session.Voice)
	assert.Equal(t, []string{"text", "audio"}, update.Session.Modalities)
	assert.Equal(t, 0.2, update.Session.Temperature)
}

func TestBootstrap_WithoutContext(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, Bootstrap(w, testSession(), ""))

	require.Len(t, w.frames, 1)
	assert.Equal(t, basePrompt, w.frames[0].(*frames.SessionUpdateFrame).Session.Instructions)
}

func TestBootstrap_DoesNotMutateDefaults(t *testing.T) {
	session := testSession()
	w := &recordingWriter{}
	require.NoError(t, Bootstrap(w, session, "issue"))
	assert.Equal(t, basePrompt, session.Instructions)
}

func TestBootstrap_SendFailure(t *testing.T) {
	w := &recordingWriter{err: fmt.Errorf("openai: %w", transports.ErrChannelClosed)}
	err := Bootstrap(w, testSession(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, transports.ErrChannelClosed))
}
