package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	raw, issued, err := signer.Issue("job-1", "job-1/timetable.csv")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	tok, err := signer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "job-1", tok.JobID)
	assert.Equal(t, "job-1/timetable.csv", tok.Path)
	assert.WithinDuration(t, issued.ExpiresAt, tok.ExpiresAt, time.Second)
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)
	raw, _, err := signer.Issue("job-1", "job-1/timetable.csv")
	require.NoError(t, err)

	// flip a payload byte, keep the signature
	tampered := "A" + raw[1:]
	_, err = signer.Verify(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Verify(strings.ReplaceAll(raw, ".", ""))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenSignerRejectsForeignSecret(t *testing.T) {
	raw, _, err := NewTokenSigner("secret-a", time.Hour).Issue("job-1", "job-1/timetable.csv")
	require.NoError(t, err)

	_, err = NewTokenSigner("secret-b", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenSignerExpiry(t *testing.T) {
	signer := &TokenSigner{secret: []byte("secret"), ttl: -time.Minute}
	raw, _, err := signer.Issue("job-1", "job-1/timetable.csv")
	require.NoError(t, err)

	_, err = signer.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
