package credential

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RoundTrip(t *testing.T) {
	c, err := New("abc123")
	require.NoError(t, err)
	assert.False(t, c.IsEmpty())

	secret, err := c.Expose()
	require.NoError(t, err)
	assert.Equal(t, "abc123", secret)
}

func TestNew_EmptyIsEmpty(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.True(t, Empty().IsEmpty())

	secret, err := c.Expose()
	require.NoError(t, err)
	assert.Equal(t, "", secret)
}

func TestNew_RejectsNUL(t *testing.T) {
	_, err := New("abc\x00def")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestNew_NormalizesToNFC(t *testing.T) {
	// "é" precomposed vs "e" + combining acute accent.
	composed, err := New("caf\u00e9")
	require.NoError(t, err)
	decomposed, err := New("cafe\u0301")
	require.NoError(t, err)

	assert.True(t, composed.Equal(decomposed))
}

func TestEqual(t *testing.T) {
	a, _ := New("abc123")
	b, _ := New("abc123")
	c, _ := New("wrong")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(Empty()))
	assert.False(t, Empty().Equal(a))
	assert.True(t, Empty().Equal(Empty()))
}

func TestString_Redacted(t *testing.T) {
	c, _ := New("hunter2")
	assert.Equal(t, "[redacted]", c.String())
	assert.Equal(t, "[empty]", Empty().String())
}

func TestLogValue_KeepsSecretOutOfLogs(t *testing.T) {
	c, _ := New("hunter2")
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	logger.Info("unlocking", "credential", c)

	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "[redacted]")
}
