package jdzcrypto

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
)

const ScalarBytes = 32

var scalarOrder = func() *big.Int {
	curve := twistededwards.GetEdwardsCurve()
	return new(big.Int).Set(&curve.Order)
}()

// Scalar is an element of the Baby Jubjub prime-order subgroup's scalar field
// (canonical 32-byte big-endian encoding).
type Scalar struct {
	v big.Int
}

func ScalarZero() Scalar {
	return Scalar{}
}

func ScalarOne() Scalar {
	return ScalarFromUint64(1)
}

func ScalarFromUint64(x uint64) Scalar {
	var s Scalar
	s.v.SetUint64(x)
	s.v.Mod(&s.v, scalarOrder)
	return s
}

func ScalarFromBytesCanonical(b []byte) (Scalar, error) {
	if len(b) != ScalarBytes {
		return Scalar{}, fmt.Errorf("scalar: expected %d bytes", ScalarBytes)
	}
	var s Scalar
	s.v.SetBytes(b)
	if s.v.Cmp(scalarOrder) >= 0 {
		return Scalar{}, fmt.Errorf("scalar: non-canonical")
	}
	return s, nil
}

func ScalarFromUniformBytes(b []byte) (Scalar, error) {
	if len(b) != 64 {
		return Scalar{}, fmt.Errorf("scalar: expected 64 uniform bytes")
	}
	var s Scalar
	s.v.SetBytes(b)
	s.v.Mod(&s.v, scalarOrder)
	return s, nil
}

func (s Scalar) Bytes() []byte {
	out := make([]byte, ScalarBytes)
	s.v.FillBytes(out)
	return out
}

func (s Scalar) String() string {
	return s.v.String()
}

func (s Scalar) IsZero() bool {
	return s.v.Sign() == 0
}

func ScalarEq(a, b Scalar) bool {
	return a.v.Cmp(&b.v) == 0
}

func ScalarAdd(a, b Scalar) Scalar {
	var out Scalar
	out.v.Add(&a.v, &b.v)
	out.v.Mod(&out.v, scalarOrder)
	return out
}

func ScalarSub(a, b Scalar) Scalar {
	var out Scalar
	out.v.Sub(&a.v, &b.v)
	out.v.Mod(&out.v, scalarOrder)
	return out
}

func ScalarMul(a, b Scalar) Scalar {
	var out Scalar
	out.v.Mul(&a.v, &b.v)
	out.v.Mod(&out.v, scalarOrder)
	return out
}

func ScalarNeg(a Scalar) Scalar {
	var out Scalar
	out.v.Neg(&a.v)
	out.v.Mod(&out.v, scalarOrder)
	return out
}
