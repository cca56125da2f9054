// Package jdzverify abstracts proof verification behind a key-identifier
// dispatch so the state machine never depends on a particular proving
// backend.
package jdzverify

// Verifier checks a proof against a registered verification key.
//
// Implementations must be deterministic: a (vkeyID, proof, publicInputs)
// triple always produces the same answer, since every node replays the same
// transactions.
type Verifier interface {
	Verify(vkeyID string, proof []byte, publicInputs []string) (bool, error)
}
