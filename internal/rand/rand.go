// Package rand generates the short correlation ids attached to outgoing
// requests. Ids are not security sensitive.
package rand

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

const (
	bytesInUint64 = 8
	charset       = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var charsetLen = len(charset)

var defaultSource = newSource()

func newSource() *source {
	seed := make([]byte, bytesInUint64*2)

	if _, err := cryptorand.Read(seed); err != nil {
		panic("unreachable")
	}

	return &source{
		//nolint:gosec // no security required
		rng: rand.New(rand.NewPCG(
			binary.LittleEndian.Uint64(seed[:8]),
			binary.LittleEndian.Uint64(seed[8:]),
		)),
		scratch: make([]byte, bytesInUint64),
	}
}

type source struct {
	mut     sync.Mutex
	rng     *rand.Rand
	scratch []byte
}

// read fills buf entirely with random bytes.
func (s *source) read(buf []byte) {
	n := len(buf) / bytesInUint64
	rest := len(buf) % bytesInUint64

	s.mut.Lock()
	defer s.mut.Unlock()

	for i := range n {
		binary.LittleEndian.PutUint64(buf[i*bytesInUint64:(i+1)*bytesInUint64], s.rng.Uint64())
	}

	if rest > 0 {
		binary.LittleEndian.PutUint64(s.scratch, s.rng.Uint64())
		copy(buf[n*bytesInUint64:], s.scratch[:rest])
	}
}

// NewRequestID returns an alphanumeric id of the given length.
// The distribution is slightly biased, which is fine for correlation ids.
func NewRequestID(length int) string {
	buf := make([]byte, length)
	defaultSource.read(buf)

	for i, b := range buf {
		buf[i] = charset[int(b)%charsetLen]
	}

	return string(buf)
}
