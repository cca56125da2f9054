package jdzshuffle

import (
	"crypto/rand"
	"fmt"

	"juodzekas/chain/internal/jdzcrypto"
)

type scalarRng interface {
	NextScalar() (jdzcrypto.Scalar, error)
	NextBytes(n int) ([]byte, error)
}

// DeterministicRng derives scalars from a seed and a counter. Used for
// replayable shuffles and for the per-round permutations inside proofs.
type DeterministicRng struct {
	seed    []byte
	counter uint32
}

func NewDeterministicRng(seed []byte) (*DeterministicRng, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("DeterministicRng: empty seed")
	}
	return &DeterministicRng{seed: append([]byte(nil), seed...)}, nil
}

func (r *DeterministicRng) NextScalar() (jdzcrypto.Scalar, error) {
	c := make([]byte, 4)
	c[0] = byte(r.counter)
	c[1] = byte(r.counter >> 8)
	c[2] = byte(r.counter >> 16)
	c[3] = byte(r.counter >> 24)
	r.counter++
	return jdzcrypto.HashToScalar("jdz/v1/shuffle/rng", r.seed, c)
}

func (r *DeterministicRng) NextBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("DeterministicRng.NextBytes: invalid length")
	}
	out := make([]byte, n)
	off := 0
	for off < n {
		s, err := r.NextScalar()
		if err != nil {
			return nil, err
		}
		sb := s.Bytes()
		take := len(sb)
		if n-off < take {
			take = n - off
		}
		copy(out[off:], sb[:take])
		off += take
	}
	return out, nil
}

// SystemRng draws from crypto/rand.
type SystemRng struct{}

func NewSystemRng() *SystemRng {
	return &SystemRng{}
}

func (*SystemRng) NextScalar() (jdzcrypto.Scalar, error) {
	return jdzcrypto.RandomScalar(rand.Reader)
}

func (*SystemRng) NextBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("SystemRng.NextBytes: invalid length")
	}
	out := make([]byte, n)
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return out, nil
}
