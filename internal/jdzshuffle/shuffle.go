package jdzshuffle

import (
	"encoding/binary"
	"fmt"

	"juodzekas/chain/internal/jdzcrypto"
)

// Shuffle permutes and rerandomizes deckIn under pk, returning the shuffled
// deck together with the opening witness and circuit public inputs.
func Shuffle(rng scalarRng, pk jdzcrypto.Point, deckIn []jdzcrypto.Ciphertext) (ShuffleResult, error) {
	if len(deckIn) != DeckSize {
		return ShuffleResult{}, fmt.Errorf("shuffle: expected %d cards", DeckSize)
	}

	perm, err := randomPermutation(rng, DeckSize)
	if err != nil {
		return ShuffleResult{}, err
	}
	rerand := make([]jdzcrypto.Scalar, DeckSize)
	for i := range rerand {
		s, err := nonzeroScalar(rng)
		if err != nil {
			return ShuffleResult{}, err
		}
		rerand[i] = s
	}

	out := applyShuffle(pk, deckIn, perm, rerand)
	w := Witness{Perm: perm, Rerand: rerand}
	return ShuffleResult{
		DeckOut:      out,
		Witness:      w,
		PublicInputs: BuildShufflePublicInputs(pk, deckIn, out),
	}, nil
}

// InitialDeck encrypts the canonical 52 cards in order under pk. It is the
// deck every shuffle chain starts from.
func InitialDeck(rng scalarRng, pk jdzcrypto.Point) ([]jdzcrypto.Ciphertext, error) {
	rs := make([]jdzcrypto.Scalar, jdzcrypto.NumCards)
	for i := range rs {
		s, err := nonzeroScalar(rng)
		if err != nil {
			return nil, err
		}
		rs[i] = s
	}
	return jdzcrypto.CanonicalDeck(pk, rs)
}

func applyShuffle(pk jdzcrypto.Point, in []jdzcrypto.Ciphertext, perm []uint8, rerand []jdzcrypto.Scalar) []jdzcrypto.Ciphertext {
	out := make([]jdzcrypto.Ciphertext, len(perm))
	for i, src := range perm {
		out[i] = jdzcrypto.Reencrypt(pk, in[src], rerand[i])
	}
	return out
}

func nonzeroScalar(rng scalarRng) (jdzcrypto.Scalar, error) {
	for {
		s, err := rng.NextScalar()
		if err != nil {
			return jdzcrypto.Scalar{}, err
		}
		if !s.IsZero() {
			return s, nil
		}
	}
}

func randomPermutation(rng scalarRng, n int) ([]uint8, error) {
	if n > 256 {
		return nil, fmt.Errorf("randomPermutation: n too large")
	}
	perm := make([]uint8, n)
	for i := range perm {
		perm[i] = uint8(i)
	}
	// Fisher-Yates; the modulo bias over a 64-bit draw is negligible for n=52.
	for i := n - 1; i > 0; i-- {
		b, err := rng.NextBytes(8)
		if err != nil {
			return nil, err
		}
		j := int(binary.LittleEndian.Uint64(b) % uint64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}

func checkPermutation(perm []uint8, n int) error {
	if len(perm) != n {
		return fmt.Errorf("permutation: expected %d entries", n)
	}
	seen := make([]bool, n)
	for _, src := range perm {
		if int(src) >= n {
			return fmt.Errorf("permutation: index %d out of range", src)
		}
		if seen[src] {
			return fmt.Errorf("permutation: duplicate index %d", src)
		}
		seen[src] = true
	}
	return nil
}

func invertPermutation(perm []uint8) []uint8 {
	inv := make([]uint8, len(perm))
	for i, src := range perm {
		inv[src] = uint8(i)
	}
	return inv
}
