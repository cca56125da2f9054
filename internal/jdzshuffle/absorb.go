package jdzshuffle

import (
	"fmt"

	"juodzekas/chain/internal/jdzcrypto"
)

// AbsorbKey folds the holder's key into a deck encrypted under the other
// party's key: each c1 gains sk·c0, turning an encryption under pk_other
// into one under pk_other+pk without touching c0. The returned proofs show,
// per position, that the added term is sk·c0 for the sk behind pk.
//
// The join-time shuffle needs this: the dealer's deck predates the player's
// key, and aggregate-key opening only reconstructs cards once every
// randomness unit in c0 is paid into c1 at the aggregate rate.
func AbsorbKey(sk jdzcrypto.Scalar, pk jdzcrypto.Point, deck []jdzcrypto.Ciphertext) ([]jdzcrypto.Ciphertext, [][]byte, error) {
	out := make([]jdzcrypto.Ciphertext, len(deck))
	proofs := make([][]byte, len(deck))
	for i, ct := range deck {
		d := jdzcrypto.MulPoint(ct.C0, sk)
		w, err := jdzcrypto.HashToScalar("jdz/v1/absorb/nonce", sk.Bytes(), EncodeCiphertext(ct))
		if err != nil {
			return nil, nil, err
		}
		if w.IsZero() {
			w = jdzcrypto.ScalarOne()
		}
		proof, err := jdzcrypto.ChaumPedersenProve(pk, ct.C0, d, sk, w)
		if err != nil {
			return nil, nil, err
		}
		out[i] = jdzcrypto.Ciphertext{C0: ct.C0, C1: jdzcrypto.PointAdd(ct.C1, d)}
		proofs[i] = jdzcrypto.EncodeChaumPedersenProof(proof)
	}
	return out, proofs, nil
}

// VerifyKeyAbsorption checks that deckOut is deckIn with pk's key folded in:
// c0 untouched and every c1 delta proven to be sk·c0 under pk.
func VerifyKeyAbsorption(pk jdzcrypto.Point, deckIn, deckOut []jdzcrypto.Ciphertext, proofs [][]byte) (bool, error) {
	if len(deckIn) != len(deckOut) || len(proofs) != len(deckIn) {
		return false, fmt.Errorf("key absorption: length mismatch in=%d out=%d proofs=%d", len(deckIn), len(deckOut), len(proofs))
	}
	for i := range deckIn {
		if !jdzcrypto.PointEq(deckIn[i].C0, deckOut[i].C0) {
			return false, nil
		}
		d := jdzcrypto.PointSub(deckOut[i].C1, deckIn[i].C1)
		proof, err := jdzcrypto.DecodeChaumPedersenProof(proofs[i])
		if err != nil {
			return false, fmt.Errorf("position %d: %w", i, err)
		}
		ok, err := jdzcrypto.ChaumPedersenVerify(pk, deckIn[i].C0, d, proof)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
