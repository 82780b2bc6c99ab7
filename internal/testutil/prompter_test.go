package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostwipe/ghostwipe/internal/prompt"
)

func TestScriptedPrompter_ReplaysInOrder(t *testing.T) {
	p := NewScriptedPrompter("1", "secret")
	ctx := context.Background()

	got, err := p.Line(ctx, "Enter choice (1/2/3): ")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	got, err = p.Secret(ctx, "Enter a strong password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	assert.Equal(t, []string{"Enter choice (1/2/3): ", "Enter a strong password: "}, p.Asked)
	assert.Equal(t, 0, p.Remaining())
}

func TestScriptedPrompter_Interrupt(t *testing.T) {
	p := NewScriptedPrompter(Interrupt)

	_, err := p.Line(context.Background(), "First Name: ")
	require.ErrorIs(t, err, prompt.ErrInterrupted)
}

func TestScriptedPrompter_Exhausted(t *testing.T) {
	p := NewScriptedPrompter()

	_, err := p.Line(context.Background(), "Try again? (Y/n): ")
	require.ErrorIs(t, err, prompt.ErrClosed)
}

func TestScriptedPrompter_CancelledContext(t *testing.T) {
	p := NewScriptedPrompter("unused")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Line(ctx, "Street: ")
	require.ErrorIs(t, err, prompt.ErrInterrupted)
	assert.Equal(t, 1, p.Remaining())
}

func TestTranscript_EchoesExchanges(t *testing.T) {
	var out bytes.Buffer
	p := NewTranscript(NewScriptedPrompter("2", "hunter2", Interrupt), &out)
	ctx := context.Background()

	_, err := p.Line(ctx, "Enter choice (1/2/3): ")
	require.NoError(t, err)
	got, err := p.Secret(ctx, "Confirm password: ")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
	_, err = p.Line(ctx, "Street: ")
	require.ErrorIs(t, err, prompt.ErrInterrupted)

	assert.Equal(t, "Enter choice (1/2/3): 2\nConfirm password: \nStreet: ^C\n", out.String())
}
