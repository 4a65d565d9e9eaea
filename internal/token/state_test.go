package token

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prombank/internal/port"
)

func TestStateSigner_RoundTrip(t *testing.T) {
	s := NewStateSigner("state-secret")

	state, err := s.New()
	require.NoError(t, err)
	assert.NoError(t, s.Verify(state))
}

func TestStateSigner_TamperedStateFailsClosed(t *testing.T) {
	s := NewStateSigner("state-secret")

	state, err := s.New()
	require.NoError(t, err)

	// Flip one character of the nonce.
	tampered := "0" + state[1:]
	if tampered == state {
		tampered = "1" + state[1:]
	}
	assert.ErrorIs(t, s.Verify(tampered), port.ErrStateMismatch)
}

func TestStateSigner_ForeignSignerRejected(t *testing.T) {
	s := NewStateSigner("state-secret")
	other := NewStateSigner("other-secret")

	state, err := other.New()
	require.NoError(t, err)
	assert.ErrorIs(t, s.Verify(state), port.ErrStateMismatch)
}

func TestStateSigner_GarbageRejected(t *testing.T) {
	s := NewStateSigner("state-secret")

	for _, state := range []string{"", "x", "a.b", "a.b.c.d"} {
		assert.ErrorIs(t, s.Verify(state), port.ErrStateMismatch, "state %q", state)
	}
}

func TestStateSigner_ExpiredStateRejected(t *testing.T) {
	s := NewStateSigner("state-secret")

	// Forge a correctly signed but stale state.
	ts := strconv.FormatInt(time.Now().Add(-stateTTL-time.Minute).Unix(), 10)
	payload := strings.Repeat("ab", 16) + "." + ts
	stale := payload + "." + s.sign(payload)

	assert.ErrorIs(t, s.Verify(stale), port.ErrStateMismatch)
}
