package jdzcrypto

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
)

const PointBytes = 32

var edwards = twistededwards.GetEdwardsCurve()

// Point is a point on Baby Jubjub (a twisted Edwards curve over the bn254
// scalar field). The canonical encoding is gnark-crypto's 32-byte compressed
// form. Do not use the zero value; construct via PointIdentity, MulBase, or
// PointFromBytesCanonical.
type Point struct {
	p twistededwards.PointAffine
}

func PointIdentity() Point {
	var out Point
	out.p.X.SetZero()
	out.p.Y.SetOne()
	return out
}

func BasePoint() Point {
	var out Point
	out.p.Set(&edwards.Base)
	return out
}

func MulBase(s Scalar) Point {
	var out Point
	out.p.ScalarMultiplication(&edwards.Base, &s.v)
	return out
}

func MulPoint(p Point, s Scalar) Point {
	var out Point
	out.p.ScalarMultiplication(&p.p, &s.v)
	return out
}

func PointAdd(a, b Point) Point {
	var out Point
	out.p.Add(&a.p, &b.p)
	return out
}

func PointSub(a, b Point) Point {
	var neg twistededwards.PointAffine
	neg.Neg(&b.p)
	var out Point
	out.p.Add(&a.p, &neg)
	return out
}

func PointNeg(a Point) Point {
	var out Point
	out.p.Neg(&a.p)
	return out
}

func PointEq(a, b Point) bool {
	return a.p.Equal(&b.p)
}

func (p Point) IsIdentity() bool {
	return p.p.X.IsZero() && p.p.Y.IsOne()
}

func (p Point) Bytes() []byte {
	return p.p.Marshal()
}

func PointFromBytesCanonical(b []byte) (Point, error) {
	if len(b) != PointBytes {
		return Point{}, fmt.Errorf("point: expected %d bytes", PointBytes)
	}
	var out Point
	if err := out.p.Unmarshal(b); err != nil {
		return Point{}, fmt.Errorf("point: %w", err)
	}
	if !out.p.IsOnCurve() {
		return Point{}, fmt.Errorf("point: not on curve")
	}
	return out, nil
}

// XString and YString render affine coordinates as decimal field elements,
// the representation circuit public inputs use.
func (p Point) XString() string {
	return p.p.X.String()
}

func (p Point) YString() string {
	return p.p.Y.String()
}

// YIsNegative reports whether the y coordinate is in the upper half of the
// field, i.e. 2*y > q.
func (p Point) YIsNegative() bool {
	y := p.p.Y.BigInt(new(big.Int))
	y.Lsh(y, 1)
	return y.Cmp(fr.Modulus()) > 0
}

func PointFromXY(xs, ys string) (Point, error) {
	var out Point
	if _, err := out.p.X.SetString(xs); err != nil {
		return Point{}, fmt.Errorf("point: bad x: %w", err)
	}
	if _, err := out.p.Y.SetString(ys); err != nil {
		return Point{}, fmt.Errorf("point: bad y: %w", err)
	}
	if !out.p.IsOnCurve() {
		return Point{}, fmt.Errorf("point: not on curve")
	}
	return out, nil
}

// PointFromX recovers the point with the given x coordinate and y sign from
// the curve equation a*x^2 + y^2 = 1 + d*x^2*y^2.
func PointFromX(xs string, yNegative bool) (Point, error) {
	var x fr.Element
	if _, err := x.SetString(xs); err != nil {
		return Point{}, fmt.Errorf("point: bad x: %w", err)
	}

	var xx, num, den, yy, y fr.Element
	xx.Square(&x)
	num.Mul(&edwards.A, &xx)
	var one fr.Element
	one.SetOne()
	num.Sub(&one, &num)
	den.Mul(&edwards.D, &xx)
	den.Sub(&one, &den)
	if den.IsZero() {
		return Point{}, fmt.Errorf("point: no solution for x")
	}
	den.Inverse(&den)
	yy.Mul(&num, &den)
	if y.Sqrt(&yy) == nil {
		return Point{}, fmt.Errorf("point: x not on curve")
	}

	var out Point
	out.p.X.Set(&x)
	out.p.Y.Set(&y)
	if out.YIsNegative() != yNegative {
		out.p.Y.Neg(&out.p.Y)
	}
	if !out.p.IsOnCurve() {
		return Point{}, fmt.Errorf("point: not on curve")
	}
	return out, nil
}
