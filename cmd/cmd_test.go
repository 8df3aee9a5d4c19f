package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/square-key-labs/strawgo-callbridge/src/callcontext"
	"github.com/square-key-labs/strawgo-callbridge/src/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { configFile = "" })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "callbridge dev")
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CALLBRIDGE_OPENAI_INSTRUCTIONS", "Base prompt.")
	t.Setenv("PORT", "7070")

	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "VALID: port 7070")
	assert.Contains(t, out, "context store memory")
}

func TestValidateCommand_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CALLBRIDGE_OPENAI_API_KEY", "")
	t.Setenv("CALLBRIDGE_OPENAI_INSTRUCTIONS", "Base prompt.")

	_, err := execute(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestBuildStore_Memory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, release, err := buildStore(ctx, config.ContextStoreConfig{
		Backend:       "memory",
		TTL:           time.Minute,
		SweepInterval: time.Second,
		Shards:        4,
	})
	require.NoError(t, err)
	defer release()

	assert.IsType(t, &callcontext.MemoryStore{}, store)
	require.NoError(t, store.Put(ctx, "CA1", "issue"))
	issue, ok, err := store.TakeIfPresent(ctx, "CA1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "issue", issue)
}
