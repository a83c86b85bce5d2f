package federation

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStateCodecRoundTrip(t *testing.T) {
	codec := NewStateCodec([]byte("0123456789abcdef0123456789abcdef"), 0)
	now := time.Now()

	value, err := codec.Encode("google", now)
	require.NoError(t, err)
	require.NotEmpty(t, value)

	state, err := codec.Decode(value, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "google", state.Provider)
	require.NotEmpty(t, state.Nonce)
	require.Equal(t, now.Unix(), state.IssuedAt)
}

func TestStateCodecRejectsExpired(t *testing.T) {
	codec := NewStateCodec([]byte("0123456789abcdef0123456789abcdef"), time.Minute)
	now := time.Now()

	value, err := codec.Encode("google", now)
	require.NoError(t, err)

	_, err = codec.Decode(value, now.Add(2*time.Minute))
	require.ErrorIs(t, err, ErrStateExpired)
}

func TestStateCodecRejectsTampered(t *testing.T) {
	codec := NewStateCodec([]byte("0123456789abcdef0123456789abcdef"), 0)
	now := time.Now()

	value, err := codec.Encode("google", now)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	_, err = codec.Decode(tampered, now)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestStateCodecRejectsForeignKey(t *testing.T) {
	now := time.Now()

	value, err := NewStateCodec([]byte("key-one-key-one-key-one-key-one!"), 0).Encode("google", now)
	require.NoError(t, err)

	_, err = NewStateCodec([]byte("key-two-key-two-key-two-key-two!"), 0).Decode(value, now)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestStateCodecRejectsGarbage(t *testing.T) {
	codec := NewStateCodec([]byte("0123456789abcdef0123456789abcdef"), 0)

	for _, value := range []string{"", "not-base64!!", base64.RawURLEncoding.EncodeToString([]byte("short"))} {
		_, err := codec.Decode(value, time.Now())
		require.ErrorIs(t, err, ErrInvalidState)
	}
}
