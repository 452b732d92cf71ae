package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("chart-1", "seating/allocation_1700000000000.pdf")
	require.NoError(t, err)
	require.False(t, expiresAt.IsZero())

	id, name, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "chart-1", id)
	require.Equal(t, "seating/allocation_1700000000000.pdf", name)
	require.True(t, expiresAt.Equal(parsedExpiry))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return now }

	token, _, err := signer.Generate("chart-1", "a.pdf")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, _, _, err = signer.Parse(token, false)
	require.ErrorIs(t, err, ErrTokenExpired)

	id, name, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "chart-1", id)
	require.Equal(t, "a.pdf", name)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("chart-1", "a.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "chart-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, _, err = NewSignedURLSigner("other", time.Hour).Parse(token, false)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, _, err = signer.Parse("garbage", false)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignedURLSignerRejectsDottedID(t *testing.T) {
	_, _, err := NewSignedURLSigner("secret", time.Hour).Generate("a.b", "x.pdf")
	require.Error(t, err)
}
