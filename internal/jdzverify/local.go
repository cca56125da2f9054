package jdzverify

import (
	"fmt"

	"juodzekas/chain/internal/jdzcrypto"
	"juodzekas/chain/internal/jdzshuffle"
)

const (
	// DefaultShuffleVKeyID and DefaultRevealVKeyID are the identifiers the
	// genesis config binds when no external proving system is wired in.
	DefaultShuffleVKeyID = "shuffle_encrypt_v1"
	DefaultRevealVKeyID  = "reveal_v1"
)

// LocalVerifier verifies proofs in-process: cut-and-choose arguments for
// shuffles and Chaum-Pedersen proofs for decryption shares. Statements are
// reconstructed from the circuit-style public-input vectors, so a proof is
// only as good as the inputs the caller binds it to.
type LocalVerifier struct {
	ShuffleVKeyID string
	RevealVKeyID  string
}

func NewLocalVerifier() *LocalVerifier {
	return &LocalVerifier{
		ShuffleVKeyID: DefaultShuffleVKeyID,
		RevealVKeyID:  DefaultRevealVKeyID,
	}
}

func (v *LocalVerifier) Verify(vkeyID string, proof []byte, publicInputs []string) (bool, error) {
	switch vkeyID {
	case v.ShuffleVKeyID:
		return v.verifyShuffle(proof, publicInputs)
	case v.RevealVKeyID:
		return v.verifyReveal(proof, publicInputs)
	default:
		return false, fmt.Errorf("verifier: unknown vkey %q", vkeyID)
	}
}

func (v *LocalVerifier) verifyShuffle(proof []byte, publicInputs []string) (bool, error) {
	pub, err := jdzshuffle.ParseShufflePublicInputs(publicInputs)
	if err != nil {
		return false, err
	}
	pk, err := pub.AggregateKey()
	if err != nil {
		return false, err
	}
	deckIn, deckOut, err := pub.Decks()
	if err != nil {
		return false, err
	}
	return jdzshuffle.VerifyShuffle(pk, deckIn, deckOut, proof)
}

func (v *LocalVerifier) verifyReveal(proof []byte, publicInputs []string) (bool, error) {
	pub, err := jdzshuffle.ParseRevealPublicInputs(publicInputs)
	if err != nil {
		return false, err
	}
	ct, pk, share, err := pub.Points()
	if err != nil {
		return false, err
	}
	p, err := jdzcrypto.DecodeChaumPedersenProof(proof)
	if err != nil {
		return false, err
	}
	return jdzcrypto.ChaumPedersenVerify(pk, ct.C0, share, p)
}
