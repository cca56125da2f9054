package jdzshuffle

import (
	"encoding/binary"
	"fmt"

	"juodzekas/chain/internal/jdzcrypto"
)

// CiphertextBytes is the wire size of an encoded ciphertext: c0 || c1.
const CiphertextBytes = 2 * jdzcrypto.PointBytes

func u16ToBytesLE(x uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, x)
	return b
}

func u16FromBytesLE(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, fmt.Errorf("u16FromBytesLE: expected 2 bytes")
	}
	return binary.LittleEndian.Uint16(b), nil
}

func EncodeCiphertext(ct jdzcrypto.Ciphertext) []byte {
	return append(ct.C0.Bytes(), ct.C1.Bytes()...)
}

func DecodeCiphertext(b []byte) (jdzcrypto.Ciphertext, error) {
	if len(b) != CiphertextBytes {
		return jdzcrypto.Ciphertext{}, fmt.Errorf("DecodeCiphertext: expected %d bytes", CiphertextBytes)
	}
	c0, err := jdzcrypto.PointFromBytesCanonical(b[:jdzcrypto.PointBytes])
	if err != nil {
		return jdzcrypto.Ciphertext{}, err
	}
	c1, err := jdzcrypto.PointFromBytesCanonical(b[jdzcrypto.PointBytes:])
	if err != nil {
		return jdzcrypto.Ciphertext{}, err
	}
	return jdzcrypto.Ciphertext{C0: c0, C1: c1}, nil
}

func encodeDeck(deck []jdzcrypto.Ciphertext) []byte {
	out := make([]byte, 0, len(deck)*CiphertextBytes)
	for _, ct := range deck {
		out = append(out, EncodeCiphertext(ct)...)
	}
	return out
}

type reader struct {
	bytes []byte
	off   int
}

func newReader(b []byte) *reader {
	return &reader{bytes: b}
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("reader.take: invalid n")
	}
	if r.off+n > len(r.bytes) {
		return nil, fmt.Errorf("reader: out of bounds")
	}
	out := r.bytes[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *reader) takeU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) takeU16LE() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return u16FromBytesLE(b)
}

func (r *reader) done() bool {
	return r.off == len(r.bytes)
}
