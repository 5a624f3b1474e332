package secure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureBuffer_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "text", data: []byte("my-secret-password")},
		{name: "binary", data: []byte{0x00, 0xFF, 0x10, 0x20}},
		{name: "empty", data: []byte{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			expected := append([]byte(nil), tt.data...)
			buf, err := NewSecureBuffer(tt.data)
			require.NoError(t, err)
			defer buf.Destroy()

			assert.Equal(t, len(expected), buf.Size())
			err = buf.Reveal(func(b []byte) error {
				assert.Equal(t, string(expected), string(b))
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestSecureBuffer_String(t *testing.T) {
	t.Parallel()

	buf, err := NewSecureBufferFromString("token-123")
	require.NoError(t, err)

	s, err := buf.String()
	require.NoError(t, err)
	assert.Equal(t, "token-123", s)

	// Reveal can be called repeatedly
	s, err = buf.String()
	require.NoError(t, err)
	assert.Equal(t, "token-123", s)
}

func TestSecureBuffer_RevealPropagatesError(t *testing.T) {
	t.Parallel()

	buf, err := NewSecureBufferFromString("value")
	require.NoError(t, err)
	defer buf.Destroy()

	sentinel := errors.New("write failed")
	err = buf.Reveal(func([]byte) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestSecureBuffer_Destroy(t *testing.T) {
	t.Parallel()

	buf, err := NewSecureBufferFromString("value")
	require.NoError(t, err)

	buf.Destroy()
	buf.Destroy()

	_, err = buf.String()
	assert.ErrorIs(t, err, ErrDestroyed)
}
