package jdzcrypto

import (
	"crypto/sha512"
	"fmt"
)

var (
	transcriptPrefix = []byte("JDZv1|transcript|")
)

// Transcript is a byte-append Fiat-Shamir transcript.
//
// It intentionally stores the transcript bytes rather than a mutable hash state,
// since Go's sha512 hash implementation does not support cloning.
type Transcript struct {
	state []byte
}

func NewTranscript(domainSep string) *Transcript {
	dst := []byte(domainSep)
	st := make([]byte, 0, len(transcriptPrefix)+4+len(dst))
	st = append(st, transcriptPrefix...)
	st = append(st, u32le(uint32(len(dst)))...)
	st = append(st, dst...)
	return &Transcript{state: st}
}

func (t *Transcript) AppendMessage(label string, msg []byte) error {
	if t == nil {
		return fmt.Errorf("transcript: nil receiver")
	}
	if msg == nil {
		return fmt.Errorf("transcript: nil msg")
	}
	lb := []byte(label)
	t.state = append(t.state, []byte("msg")...)
	t.state = append(t.state, u32le(uint32(len(lb)))...)
	t.state = append(t.state, lb...)
	t.state = append(t.state, u32le(uint32(len(msg)))...)
	t.state = append(t.state, msg...)
	return nil
}

func (t *Transcript) ChallengeScalar(label string) (Scalar, error) {
	if t == nil {
		return Scalar{}, fmt.Errorf("transcript: nil receiver")
	}
	lb := []byte(label)
	h := sha512.New()
	h.Write(t.state)
	h.Write([]byte("challenge"))
	h.Write(u32le(uint32(len(lb))))
	h.Write(lb)
	digest := h.Sum(nil) // 64 bytes
	return ScalarFromUniformBytes(digest)
}

// ChallengeBytes expands the transcript into n challenge bytes. The transcript
// state is not advanced; distinct labels yield independent streams.
func (t *Transcript) ChallengeBytes(label string, n int) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript: nil receiver")
	}
	if n < 0 {
		return nil, fmt.Errorf("transcript: invalid length")
	}
	lb := []byte(label)
	out := make([]byte, 0, n)
	var counter uint32
	for len(out) < n {
		h := sha512.New()
		h.Write(t.state)
		h.Write([]byte("challenge_bytes"))
		h.Write(u32le(uint32(len(lb))))
		h.Write(lb)
		h.Write(u32le(counter))
		counter++
		out = append(out, h.Sum(nil)...)
	}
	return out[:n], nil
}
