package jdzshuffle

import (
	"fmt"

	"juodzekas/chain/internal/jdzcrypto"
)

// RevealPublicInputs is the flattened public-input vector of the reveal
// circuit: the ciphertext, the prover's public key, and the ciphertext with
// the prover's decryption layer removed. All coordinates are decimal strings.
type RevealPublicInputs struct {
	C0X, C0Y string
	C1X, C1Y string
	PKX, PKY string
	// out = c1 - share
	OutX, OutY string
}

const NumRevealPublicInputs = 8

func (p RevealPublicInputs) Strings() []string {
	return []string{p.C0X, p.C0Y, p.C1X, p.C1Y, p.PKX, p.PKY, p.OutX, p.OutY}
}

func ParseRevealPublicInputs(in []string) (RevealPublicInputs, error) {
	if len(in) != NumRevealPublicInputs {
		return RevealPublicInputs{}, fmt.Errorf("reveal public inputs: expected %d elements, got %d", NumRevealPublicInputs, len(in))
	}
	return RevealPublicInputs{
		C0X: in[0], C0Y: in[1],
		C1X: in[2], C1Y: in[3],
		PKX: in[4], PKY: in[5],
		OutX: in[6], OutY: in[7],
	}, nil
}

func BuildRevealPublicInputs(pk jdzcrypto.Point, ct jdzcrypto.Ciphertext, share jdzcrypto.Point) RevealPublicInputs {
	out := jdzcrypto.PointSub(ct.C1, share)
	return RevealPublicInputs{
		C0X: ct.C0.XString(), C0Y: ct.C0.YString(),
		C1X: ct.C1.XString(), C1Y: ct.C1.YString(),
		PKX: pk.XString(), PKY: pk.YString(),
		OutX: out.XString(), OutY: out.YString(),
	}
}

// Points reconstructs the ciphertext, prover key and prover share.
func (p RevealPublicInputs) Points() (ct jdzcrypto.Ciphertext, pk, share jdzcrypto.Point, err error) {
	c0, err := jdzcrypto.PointFromXY(p.C0X, p.C0Y)
	if err != nil {
		return jdzcrypto.Ciphertext{}, jdzcrypto.Point{}, jdzcrypto.Point{}, fmt.Errorf("c0: %w", err)
	}
	c1, err := jdzcrypto.PointFromXY(p.C1X, p.C1Y)
	if err != nil {
		return jdzcrypto.Ciphertext{}, jdzcrypto.Point{}, jdzcrypto.Point{}, fmt.Errorf("c1: %w", err)
	}
	pk, err = jdzcrypto.PointFromXY(p.PKX, p.PKY)
	if err != nil {
		return jdzcrypto.Ciphertext{}, jdzcrypto.Point{}, jdzcrypto.Point{}, fmt.Errorf("pk: %w", err)
	}
	out, err := jdzcrypto.PointFromXY(p.OutX, p.OutY)
	if err != nil {
		return jdzcrypto.Ciphertext{}, jdzcrypto.Point{}, jdzcrypto.Point{}, fmt.Errorf("out: %w", err)
	}
	return jdzcrypto.Ciphertext{C0: c0, C1: c1}, pk, jdzcrypto.PointSub(c1, out), nil
}

// RevealCard computes the prover's decryption share for ct along with a proof
// that the share matches the key behind pk. The proof nonce is derived
// deterministically from the secret and the ciphertext.
func RevealCard(sk jdzcrypto.Scalar, pk jdzcrypto.Point, ct jdzcrypto.Ciphertext) (jdzcrypto.Point, []byte, error) {
	share := jdzcrypto.PartialDecrypt(sk, ct)
	w, err := jdzcrypto.HashToScalar("jdz/v1/reveal/nonce", sk.Bytes(), EncodeCiphertext(ct))
	if err != nil {
		return jdzcrypto.Point{}, nil, err
	}
	if w.IsZero() {
		w = jdzcrypto.ScalarOne()
	}
	proof, err := jdzcrypto.ChaumPedersenProve(pk, ct.C0, share, sk, w)
	if err != nil {
		return jdzcrypto.Point{}, nil, err
	}
	return share, jdzcrypto.EncodeChaumPedersenProof(proof), nil
}

// VerifyReveal checks a decryption share against the prover's public key.
func VerifyReveal(pk jdzcrypto.Point, ct jdzcrypto.Ciphertext, share jdzcrypto.Point, proofBytes []byte) (bool, error) {
	proof, err := jdzcrypto.DecodeChaumPedersenProof(proofBytes)
	if err != nil {
		return false, err
	}
	return jdzcrypto.ChaumPedersenVerify(pk, ct.C0, share, proof)
}
