package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Reveal after Destroy.
var ErrDestroyed = errors.New("secure buffer destroyed")

// SecureBuffer holds one sensitive value encrypted at rest.
type SecureBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave // nil for the empty value
	size      int
	destroyed bool
}

// NewSecureBuffer seals data into an enclave. memguard wipes data after
// copying it, so callers must not reuse the slice.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	size := len(data)
	if size == 0 {
		return &SecureBuffer{}, nil
	}
	return &SecureBuffer{
		enclave: memguard.NewEnclave(data),
		size:    size,
	}, nil
}

// NewSecureBufferFromString seals s. The string itself cannot be wiped.
func NewSecureBufferFromString(s string) (*SecureBuffer, error) {
	return NewSecureBuffer([]byte(s))
}

// Size returns the plaintext length without decrypting
func (s *SecureBuffer) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Reveal decrypts the value and passes it to fn. The slice is only valid
// during fn and is wiped afterwards.
func (s *SecureBuffer) Reveal(fn func(plaintext []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if s.enclave == nil {
		return fn(nil)
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.Bytes())
}

// String decrypts the value into an ordinary Go string. Use only at the
// boundary where a string is required, such as os.Setenv.
func (s *SecureBuffer) String() (string, error) {
	var out string
	err := s.Reveal(func(b []byte) error {
		out = string(b)
		return nil
	})
	return out, err
}

// Destroy drops the enclave. It is safe to call more than once.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.destroyed = true
}
