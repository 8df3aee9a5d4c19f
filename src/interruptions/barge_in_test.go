package interruptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBargeIn_DropsCancelledResponse(t *testing.T) {
	b := NewBargeIn()
	assert.Equal(t, Speaking, b.State())

	assert.True(t, b.Admit("resp_1"))
	assert.True(t, b.Admit("resp_1"))

	assert.Equal(t, "resp_1", b.Interrupt())
	assert.Equal(t, Interrupted, b.State())

	assert.False(t, b.Admit("resp_1"))
	assert.False(t, b.Admit("resp_1"))
	assert.Equal(t, Interrupted, b.State())
}

func TestBargeIn_NewResponseResumes(t *testing.T) {
	b := NewBargeIn()
	b.Admit("resp_1")
	b.Interrupt()

	assert.True(t, b.Admit("resp_2"))
	assert.Equal(t, Speaking, b.State())

	// a late delta of the cancelled response is no longer recognised once
	// a newer response is speaking
	assert.Equal(t, "resp_2", b.Interrupt())
	assert.False(t, b.Admit("resp_2"))
}

func TestBargeIn_RepeatedInterruptKeepsCancelledID(t *testing.T) {
	b := NewBargeIn()
	b.Admit("resp_1")

	assert.Equal(t, "resp_1", b.Interrupt())
	assert.Equal(t, "resp_1", b.Interrupt())
	assert.False(t, b.Admit("resp_1"))
}

func TestBargeIn_InterruptBeforeAudio(t *testing.T) {
	b := NewBargeIn()

	assert.Equal(t, "", b.Interrupt())
	assert.True(t, b.Admit("resp_1"))
	assert.Equal(t, Speaking, b.State())
}

func TestBargeIn_EmptyResponseIDAdmitted(t *testing.T) {
	b := NewBargeIn()
	b.Admit("resp_1")
	b.Interrupt()

	assert.True(t, b.Admit(""))
	assert.Equal(t, Speaking, b.State())
}

func TestBargeIn_InterruptBetweenResponsesCancelsTheNewOne(t *testing.T) {
	b := NewBargeIn()
	b.Begin("resp_1")
	assert.True(t, b.Admit("resp_1"))
	b.Done("resp_1")

	// resp_2 is created but none of its audio has arrived yet
	b.Begin("resp_2")
	assert.Equal(t, "resp_2", b.Interrupt())

	assert.False(t, b.Admit("resp_2"), "late audio of the cancelled response")
	assert.Equal(t, Interrupted, b.State())
	assert.True(t, b.Admit("resp_3"))
	assert.Equal(t, Speaking, b.State())
}

func TestBargeIn_InterruptAfterDoneCancelsNothing(t *testing.T) {
	b := NewBargeIn()
	assert.True(t, b.Admit("resp_1"))
	b.Done("resp_1")

	assert.Equal(t, "", b.Interrupt())
	assert.True(t, b.Admit("resp_2"))
}

func TestBargeIn_DoneOfOtherResponseKeepsCurrent(t *testing.T) {
	b := NewBargeIn()
	b.Begin("resp_2")
	b.Done("resp_1")

	assert.Equal(t, "resp_2", b.Interrupt())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "speaking", Speaking.String())
	assert.Equal(t, "interrupted", Interrupted.String())
	assert.Equal(t, "unknown", State(7).String())
}
