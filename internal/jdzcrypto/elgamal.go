package jdzcrypto

import (
	"fmt"
	"io"
	"math/big"
)

// Ciphertext is an ElGamal ciphertext in additive notation:
//
//	c0 = r*G
//	c1 = M + r*PK
type Ciphertext struct {
	C0 Point
	C1 Point
}

type KeyPair struct {
	SK Scalar
	PK Point
}

func GenerateKeyPair(rand io.Reader) (KeyPair, error) {
	sk, err := RandomScalar(rand)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{SK: sk, PK: MulBase(sk)}, nil
}

func RandomScalar(rand io.Reader) (Scalar, error) {
	for {
		var buf [64]byte
		if _, err := io.ReadFull(rand, buf[:]); err != nil {
			return Scalar{}, fmt.Errorf("scalar: rand: %w", err)
		}
		s, err := ScalarFromUniformBytes(buf[:])
		if err != nil {
			return Scalar{}, err
		}
		if !s.IsZero() {
			return s, nil
		}
	}
}

// AggregateKeys combines per-party public keys into the joint encryption key.
func AggregateKeys(keys ...Point) Point {
	out := PointIdentity()
	for _, k := range keys {
		out = PointAdd(out, k)
	}
	return out
}

func Encrypt(pk Point, m Point, r Scalar) (Ciphertext, error) {
	if r.IsZero() {
		// Zero randomness is valid mathematically but leaks the plaintext.
		return Ciphertext{}, fmt.Errorf("elgamal: r must be non-zero")
	}
	c0 := MulBase(r)
	c1 := PointAdd(m, MulPoint(pk, r))
	return Ciphertext{C0: c0, C1: c1}, nil
}

// Dec(x, (c0,c1)) = c1 - x*c0
func Decrypt(sk Scalar, ct Ciphertext) Point {
	return PointSub(ct.C1, MulPoint(ct.C0, sk))
}

// Reencrypt rerandomizes a ciphertext under the same key without touching the
// plaintext.
func Reencrypt(pk Point, ct Ciphertext, rho Scalar) Ciphertext {
	return Ciphertext{
		C0: PointAdd(ct.C0, MulBase(rho)),
		C1: PointAdd(ct.C1, MulPoint(pk, rho)),
	}
}

// PartialDecrypt computes one party's decryption share sk*c0.
func PartialDecrypt(sk Scalar, ct Ciphertext) Point {
	return MulPoint(ct.C0, sk)
}

// CombineShares removes every party's share from c1, recovering the plaintext
// point when the shares cover the full aggregate key.
func CombineShares(ct Ciphertext, shares ...Point) Point {
	out := ct.C1
	for _, d := range shares {
		out = PointSub(out, d)
	}
	return out
}

// ScalarOrder returns the order of the prime subgroup as a fresh big.Int.
func ScalarOrder() *big.Int {
	return new(big.Int).Set(scalarOrder)
}
