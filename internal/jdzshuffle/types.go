package jdzshuffle

import "juodzekas/chain/internal/jdzcrypto"

// DeckSize is the number of cards in every deck this package handles.
const DeckSize = jdzcrypto.NumCards

type ShuffleProveOpts struct {
	Seed   []byte
	Rounds int
}

// Witness opens a shuffle: output position i holds a reencryption of input
// position Perm[i] under randomness Rerand[i].
type Witness struct {
	Perm   []uint8
	Rerand []jdzcrypto.Scalar
}

// Matrix renders the permutation as a row-major N x N 0/1 matrix with
// Matrix[i*N+Perm[i]] = 1, the layout circuit witnesses use.
func (w Witness) Matrix() []uint8 {
	n := len(w.Perm)
	out := make([]uint8, n*n)
	for i, src := range w.Perm {
		out[i*n+int(src)] = 1
	}
	return out
}

type ShuffleResult struct {
	DeckOut      []jdzcrypto.Ciphertext
	Witness      Witness
	PublicInputs ShufflePublicInputs
}
