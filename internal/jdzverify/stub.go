package jdzverify

// StaticVerifier returns a fixed answer for every proof. Test-only seam for
// exercising state transitions without real proofs.
type StaticVerifier struct {
	Result bool
	Err    error
}

func (s *StaticVerifier) Verify(string, []byte, []string) (bool, error) {
	return s.Result, s.Err
}

// FuncVerifier adapts a function to the Verifier interface.
type FuncVerifier func(vkeyID string, proof []byte, publicInputs []string) (bool, error)

func (f FuncVerifier) Verify(vkeyID string, proof []byte, publicInputs []string) (bool, error) {
	return f(vkeyID, proof, publicInputs)
}
