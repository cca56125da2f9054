package jdzcrypto

import (
	"crypto/sha512"
	"fmt"
	"hash"
)

var (
	hashToScalarPrefix = []byte("JDZv1|hash_to_scalar|")
)

func updateLenBytes(h hash.Hash, b []byte) {
	h.Write(u32le(uint32(len(b))))
	h.Write(b)
}

// HashToScalar derives a scalar from a domain separator and a list of
// length-prefixed messages.
func HashToScalar(domainSep string, msgs ...[]byte) (Scalar, error) {
	h := sha512.New()
	h.Write(hashToScalarPrefix)
	updateLenBytes(h, []byte(domainSep))
	for _, m := range msgs {
		if m == nil {
			return Scalar{}, fmt.Errorf("hashToScalar: nil msg")
		}
		updateLenBytes(h, m)
	}
	digest := h.Sum(nil) // 64 bytes
	return ScalarFromUniformBytes(digest)
}
