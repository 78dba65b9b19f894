package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestStateRoundTrip(t *testing.T) {
	signer, err := NewStateSigner(testSecret, time.Minute)
	require.NoError(t, err)

	state, err := signer.Issue("xero", 42)
	require.NoError(t, err)

	clientID, err := signer.Verify(state, "xero")
	require.NoError(t, err)
	assert.Equal(t, int64(42), clientID)
}

func TestStateRejections(t *testing.T) {
	signer, err := NewStateSigner(testSecret, time.Minute)
	require.NoError(t, err)
	state, err := signer.Issue("xero", 7)
	require.NoError(t, err)

	_, err = signer.Verify(state, "sage")
	assert.ErrorIs(t, err, ErrInvalidState, "software mismatch")

	other, err := NewStateSigner("another-secret-another-secret-xx", time.Minute)
	require.NoError(t, err)
	_, err = other.Verify(state, "xero")
	assert.ErrorIs(t, err, ErrInvalidState, "wrong key")

	_, err = signer.Verify("garbage", "xero")
	assert.ErrorIs(t, err, ErrInvalidState)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Verify(state, "xero")
	assert.ErrorIs(t, err, ErrInvalidState, "expired")
}

func TestNewStateSignerRequiresSecret(t *testing.T) {
	_, err := NewStateSigner("", time.Minute)
	assert.Error(t, err)
}
