package jdzshuffle

import (
	"fmt"

	"juodzekas/chain/internal/jdzcrypto"
)

const shuffleArgDomain = "jdz/v1/shuffle-argument"

// MinShuffleRounds is the verifier's floor. Each round halves a cheating
// prover's odds, and Fiat-Shamir challenges can be ground offline, so a
// short argument is forgeable regardless of what the prover claims.
const MinShuffleRounds = 32

// DefaultShuffleRounds gives a cheating prover odds of 2^-32.
const DefaultShuffleRounds = MinShuffleRounds

const maxShuffleRounds = 256

// ProveShuffle builds a cut-and-choose argument that deckOut is a permuted
// rerandomization of deckIn under pk.
//
// For each round the prover commits to an intermediate deck obtained by a
// fresh random shuffle of deckIn. The transcript challenge picks, per round,
// whether to open the path deckIn -> mid or the path mid -> deckOut; a prover
// who cannot open both for the same mid deck fails half the rounds.
//
// Layout: rounds(u16le) || mids (rounds * 52 ciphertexts) ||
// per round: perm(52 u8) || scalars(52 * 32).
func ProveShuffle(opts ShuffleProveOpts, pk jdzcrypto.Point, deckIn, deckOut []jdzcrypto.Ciphertext, w Witness) ([]byte, error) {
	rounds := opts.Rounds
	if rounds == 0 {
		rounds = DefaultShuffleRounds
	}
	if rounds < 1 || rounds > maxShuffleRounds {
		return nil, fmt.Errorf("ProveShuffle: rounds out of range")
	}
	if len(deckIn) != DeckSize || len(deckOut) != DeckSize {
		return nil, fmt.Errorf("ProveShuffle: expected %d cards", DeckSize)
	}
	if err := checkPermutation(w.Perm, DeckSize); err != nil {
		return nil, fmt.Errorf("ProveShuffle: %w", err)
	}
	if len(w.Rerand) != DeckSize {
		return nil, fmt.Errorf("ProveShuffle: expected %d rerandomizers", DeckSize)
	}
	for i, ct := range applyShuffle(pk, deckIn, w.Perm, w.Rerand) {
		if !jdzcrypto.PointEq(ct.C0, deckOut[i].C0) || !jdzcrypto.PointEq(ct.C1, deckOut[i].C1) {
			return nil, fmt.Errorf("ProveShuffle: witness does not open deckOut at %d", i)
		}
	}
	if len(opts.Seed) == 0 {
		return nil, fmt.Errorf("ProveShuffle: empty seed")
	}

	midPerms := make([][]uint8, rounds)
	midRands := make([][]jdzcrypto.Scalar, rounds)
	mids := make([][]jdzcrypto.Ciphertext, rounds)
	for j := 0; j < rounds; j++ {
		rng, err := NewDeterministicRng(concat(opts.Seed, []byte{byte(j), byte(j >> 8)}))
		if err != nil {
			return nil, err
		}
		perm, err := randomPermutation(rng, DeckSize)
		if err != nil {
			return nil, err
		}
		rands := make([]jdzcrypto.Scalar, DeckSize)
		for i := range rands {
			s, err := nonzeroScalar(rng)
			if err != nil {
				return nil, err
			}
			rands[i] = s
		}
		midPerms[j] = perm
		midRands[j] = rands
		mids[j] = applyShuffle(pk, deckIn, perm, rands)
	}

	bits, err := challengeBits(pk, deckIn, deckOut, mids, rounds)
	if err != nil {
		return nil, err
	}

	out := u16ToBytesLE(uint16(rounds))
	for j := 0; j < rounds; j++ {
		out = append(out, encodeDeck(mids[j])...)
	}
	for j := 0; j < rounds; j++ {
		if bits[j] == 0 {
			// Open deckIn -> mid.
			out = append(out, midPerms[j]...)
			for _, s := range midRands[j] {
				out = append(out, s.Bytes()...)
			}
			continue
		}
		// Open mid -> deckOut: rho(k) = tau^-1(pi(k)), t_k = r_k - s_{rho(k)}.
		tauInv := invertPermutation(midPerms[j])
		for k := 0; k < DeckSize; k++ {
			out = append(out, tauInv[w.Perm[k]])
		}
		for k := 0; k < DeckSize; k++ {
			rho := tauInv[w.Perm[k]]
			t := jdzcrypto.ScalarSub(w.Rerand[k], midRands[j][rho])
			out = append(out, t.Bytes()...)
		}
	}
	return out, nil
}

// VerifyShuffle checks a ProveShuffle argument. A malformed proof is an
// error; a well-formed proof that fails a round check returns false.
func VerifyShuffle(pk jdzcrypto.Point, deckIn, deckOut []jdzcrypto.Ciphertext, proof []byte) (bool, error) {
	if len(deckIn) != DeckSize || len(deckOut) != DeckSize {
		return false, fmt.Errorf("VerifyShuffle: expected %d cards", DeckSize)
	}
	r := newReader(proof)
	rounds16, err := r.takeU16LE()
	if err != nil {
		return false, err
	}
	rounds := int(rounds16)
	if rounds < MinShuffleRounds || rounds > maxShuffleRounds {
		return false, fmt.Errorf("VerifyShuffle: rounds out of range")
	}

	mids := make([][]jdzcrypto.Ciphertext, rounds)
	for j := 0; j < rounds; j++ {
		deck := make([]jdzcrypto.Ciphertext, DeckSize)
		for i := 0; i < DeckSize; i++ {
			b, err := r.take(CiphertextBytes)
			if err != nil {
				return false, err
			}
			ct, err := DecodeCiphertext(b)
			if err != nil {
				return false, err
			}
			deck[i] = ct
		}
		mids[j] = deck
	}

	bits, err := challengeBits(pk, deckIn, deckOut, mids, rounds)
	if err != nil {
		return false, err
	}

	for j := 0; j < rounds; j++ {
		perm := make([]uint8, DeckSize)
		for i := 0; i < DeckSize; i++ {
			v, err := r.takeU8()
			if err != nil {
				return false, err
			}
			perm[i] = v
		}
		if err := checkPermutation(perm, DeckSize); err != nil {
			return false, nil
		}
		scalars := make([]jdzcrypto.Scalar, DeckSize)
		for i := 0; i < DeckSize; i++ {
			b, err := r.take(jdzcrypto.ScalarBytes)
			if err != nil {
				return false, err
			}
			s, err := jdzcrypto.ScalarFromBytesCanonical(b)
			if err != nil {
				return false, nil
			}
			scalars[i] = s
		}

		from, to := deckIn, mids[j]
		if bits[j] == 1 {
			from, to = mids[j], deckOut
		}
		got := applyShuffle(pk, from, perm, scalars)
		for i := 0; i < DeckSize; i++ {
			if !jdzcrypto.PointEq(got[i].C0, to[i].C0) || !jdzcrypto.PointEq(got[i].C1, to[i].C1) {
				return false, nil
			}
		}
	}
	if !r.done() {
		return false, fmt.Errorf("VerifyShuffle: trailing bytes")
	}
	return true, nil
}

func challengeBits(pk jdzcrypto.Point, deckIn, deckOut []jdzcrypto.Ciphertext, mids [][]jdzcrypto.Ciphertext, rounds int) ([]uint8, error) {
	tr := jdzcrypto.NewTranscript(shuffleArgDomain)
	if err := tr.AppendMessage("pk", pk.Bytes()); err != nil {
		return nil, err
	}
	if err := tr.AppendMessage("deck_in", encodeDeck(deckIn)); err != nil {
		return nil, err
	}
	if err := tr.AppendMessage("deck_out", encodeDeck(deckOut)); err != nil {
		return nil, err
	}
	for _, mid := range mids {
		if err := tr.AppendMessage("mid", encodeDeck(mid)); err != nil {
			return nil, err
		}
	}
	raw, err := tr.ChallengeBytes("bits", (rounds+7)/8)
	if err != nil {
		return nil, err
	}
	bits := make([]uint8, rounds)
	for j := 0; j < rounds; j++ {
		bits[j] = (raw[j/8] >> uint(j%8)) & 1
	}
	return bits, nil
}

func concat(chunks ...[]byte) []byte {
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
