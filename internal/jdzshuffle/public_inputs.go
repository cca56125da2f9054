package jdzshuffle

import (
	"fmt"
	"strconv"

	"juodzekas/chain/internal/jdzcrypto"
)

// ShufflePublicInputs is the flattened public-input vector of the shuffle
// circuit: the aggregate key, the x coordinates of both decks, and packed
// y-sign masks. Field elements are decimal strings; sign masks are decimal
// uint64 bitmaps with bit i set when the y coordinate of card i is canonical
// (not negative).
type ShufflePublicInputs struct {
	PKX string
	PKY string
	// Input deck: c0.x and c1.x per card.
	UX0 []string
	UX1 []string
	// Output deck.
	VX0 []string
	VX1 []string
	// Sign masks, one bitmap per coordinate column.
	SU0 string
	SU1 string
	SV0 string
	SV1 string
}

// NumShufflePublicInputs is the flattened vector length: 2 key coordinates,
// 4*DeckSize x coordinates, 4 sign masks.
const NumShufflePublicInputs = 2 + 4*DeckSize + 4

func BuildShufflePublicInputs(pk jdzcrypto.Point, deckIn, deckOut []jdzcrypto.Ciphertext) ShufflePublicInputs {
	p := ShufflePublicInputs{
		PKX: pk.XString(),
		PKY: pk.YString(),
		UX0: make([]string, len(deckIn)),
		UX1: make([]string, len(deckIn)),
		VX0: make([]string, len(deckOut)),
		VX1: make([]string, len(deckOut)),
	}
	var su0, su1, sv0, sv1 uint64
	for i, ct := range deckIn {
		p.UX0[i] = ct.C0.XString()
		p.UX1[i] = ct.C1.XString()
		if !ct.C0.YIsNegative() {
			su0 |= 1 << uint(i)
		}
		if !ct.C1.YIsNegative() {
			su1 |= 1 << uint(i)
		}
	}
	for i, ct := range deckOut {
		p.VX0[i] = ct.C0.XString()
		p.VX1[i] = ct.C1.XString()
		if !ct.C0.YIsNegative() {
			sv0 |= 1 << uint(i)
		}
		if !ct.C1.YIsNegative() {
			sv1 |= 1 << uint(i)
		}
	}
	p.SU0 = strconv.FormatUint(su0, 10)
	p.SU1 = strconv.FormatUint(su1, 10)
	p.SV0 = strconv.FormatUint(sv0, 10)
	p.SV1 = strconv.FormatUint(sv1, 10)
	return p
}

// Strings flattens in the circuit's canonical order:
// pk.x, pk.y, ux0[52], ux1[52], vx0[52], vx1[52], su0, su1, sv0, sv1.
func (p ShufflePublicInputs) Strings() []string {
	out := make([]string, 0, NumShufflePublicInputs)
	out = append(out, p.PKX, p.PKY)
	out = append(out, p.UX0...)
	out = append(out, p.UX1...)
	out = append(out, p.VX0...)
	out = append(out, p.VX1...)
	out = append(out, p.SU0, p.SU1, p.SV0, p.SV1)
	return out
}

func ParseShufflePublicInputs(in []string) (ShufflePublicInputs, error) {
	if len(in) != NumShufflePublicInputs {
		return ShufflePublicInputs{}, fmt.Errorf("shuffle public inputs: expected %d elements, got %d", NumShufflePublicInputs, len(in))
	}
	p := ShufflePublicInputs{PKX: in[0], PKY: in[1]}
	off := 2
	grab := func() []string {
		s := in[off : off+DeckSize]
		off += DeckSize
		return append([]string(nil), s...)
	}
	p.UX0 = grab()
	p.UX1 = grab()
	p.VX0 = grab()
	p.VX1 = grab()
	p.SU0, p.SU1, p.SV0, p.SV1 = in[off], in[off+1], in[off+2], in[off+3]
	return p, nil
}

// AggregateKey reconstructs the public key point the inputs commit to.
func (p ShufflePublicInputs) AggregateKey() (jdzcrypto.Point, error) {
	return jdzcrypto.PointFromXY(p.PKX, p.PKY)
}

// Decks reconstructs both decks from the x coordinates and sign masks.
func (p ShufflePublicInputs) Decks() (deckIn, deckOut []jdzcrypto.Ciphertext, err error) {
	deckIn, err = decodeColumn(p.UX0, p.SU0, p.UX1, p.SU1)
	if err != nil {
		return nil, nil, fmt.Errorf("input deck: %w", err)
	}
	deckOut, err = decodeColumn(p.VX0, p.SV0, p.VX1, p.SV1)
	if err != nil {
		return nil, nil, fmt.Errorf("output deck: %w", err)
	}
	return deckIn, deckOut, nil
}

func decodeColumn(x0 []string, mask0 string, x1 []string, mask1 string) ([]jdzcrypto.Ciphertext, error) {
	if len(x0) != DeckSize || len(x1) != DeckSize {
		return nil, fmt.Errorf("expected %d cards", DeckSize)
	}
	m0, err := strconv.ParseUint(mask0, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad sign mask: %w", err)
	}
	m1, err := strconv.ParseUint(mask1, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad sign mask: %w", err)
	}
	out := make([]jdzcrypto.Ciphertext, DeckSize)
	for i := 0; i < DeckSize; i++ {
		c0, err := jdzcrypto.PointFromX(x0[i], m0&(1<<uint(i)) == 0)
		if err != nil {
			return nil, fmt.Errorf("card %d c0: %w", i, err)
		}
		c1, err := jdzcrypto.PointFromX(x1[i], m1&(1<<uint(i)) == 0)
		if err != nil {
			return nil, fmt.Errorf("card %d c1: %w", i, err)
		}
		out[i] = jdzcrypto.Ciphertext{C0: c0, C1: c1}
	}
	return out, nil
}
