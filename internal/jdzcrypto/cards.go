package jdzcrypto

import "fmt"

// NumCards is the size of a standard deck.
const NumCards = 52

// Card i maps to the curve point (i+1)*G. Index 0 skips the identity so that
// no card encodes as the neutral element.
var cardPoints [NumCards]Point

func init() {
	for i := 0; i < NumCards; i++ {
		cardPoints[i] = MulBase(ScalarFromUint64(uint64(i) + 1))
	}
}

func CardPoint(id uint8) (Point, error) {
	if int(id) >= NumCards {
		return Point{}, fmt.Errorf("card: id %d out of range", id)
	}
	return cardPoints[id], nil
}

// CardFromPoint scans the card table for the given point. 52 comparisons is
// cheap next to the scalar multiplications that produced the point.
func CardFromPoint(p Point) (uint8, error) {
	for i := 0; i < NumCards; i++ {
		if PointEq(p, cardPoints[i]) {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("card: point is not a card")
}

// CanonicalDeck encrypts every card in order under pk using randomness from
// rs, which must hold one non-zero scalar per card.
func CanonicalDeck(pk Point, rs []Scalar) ([]Ciphertext, error) {
	if len(rs) != NumCards {
		return nil, fmt.Errorf("card: expected %d scalars", NumCards)
	}
	out := make([]Ciphertext, NumCards)
	for i := 0; i < NumCards; i++ {
		ct, err := Encrypt(pk, cardPoints[i], rs[i])
		if err != nil {
			return nil, err
		}
		out[i] = ct
	}
	return out, nil
}
