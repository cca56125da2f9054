// Package prover prepares the payloads a party submits on chain: shuffled
// decks with their arguments, and batches of decryption shares. Proving is
// CPU-bound, so batches fan out across a bounded worker group.
package prover

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"juodzekas/chain/internal/jdzcrypto"
	"juodzekas/chain/internal/jdzshuffle"
)

const defaultRounds = jdzshuffle.DefaultShuffleRounds

type Prover struct {
	concurrency int
	rounds      int
}

type Option func(*Prover)

// WithConcurrency bounds the number of parallel proving workers.
func WithConcurrency(n int) Option {
	return func(p *Prover) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRounds sets the shuffle argument's repetition count.
func WithRounds(n int) Option {
	return func(p *Prover) {
		if n > 0 {
			p.rounds = n
		}
	}
}

func New(opts ...Option) *Prover {
	p := &Prover{
		concurrency: runtime.GOMAXPROCS(0),
		rounds:      defaultRounds,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ShuffleBundle is everything a create_game or join_game tx needs.
type ShuffleBundle struct {
	Deck         [][]byte
	Proof        []byte
	PublicInputs []string
}

// ShuffleDeck shuffles deckIn under pk and proves it. seed drives both the
// shuffle and the argument, so the same seed replays the same bundle.
func (p *Prover) ShuffleDeck(ctx context.Context, seed []byte, pk jdzcrypto.Point, deckIn []jdzcrypto.Ciphertext) (*ShuffleBundle, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("prover: empty seed")
	}
	rng, err := jdzshuffle.NewDeterministicRng(append([]byte("shuffle|"), seed...))
	if err != nil {
		return nil, err
	}
	res, err := jdzshuffle.Shuffle(rng, pk, deckIn)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proof, err := jdzshuffle.ProveShuffle(jdzshuffle.ShuffleProveOpts{
		Seed:   append([]byte("argument|"), seed...),
		Rounds: p.rounds,
	}, pk, deckIn, res.DeckOut, res.Witness)
	if err != nil {
		return nil, err
	}
	deck := make([][]byte, len(res.DeckOut))
	for i, ct := range res.DeckOut {
		deck[i] = jdzshuffle.EncodeCiphertext(ct)
	}
	return &ShuffleBundle{
		Deck:         deck,
		Proof:        proof,
		PublicInputs: res.PublicInputs.Strings(),
	}, nil
}

// JoinBundle extends ShuffleBundle with the per-position proofs that the
// player's key was folded into the dealer's deck before shuffling.
type JoinBundle struct {
	ShuffleBundle
	AbsorbProofs [][]byte
}

// AbsorbAndShuffle prepares a join_game payload: fold sk into the dealer's
// deck, then shuffle the absorbed deck under the aggregate key.
func (p *Prover) AbsorbAndShuffle(ctx context.Context, seed []byte, sk jdzcrypto.Scalar, pk, aggPK jdzcrypto.Point, dealerDeck []jdzcrypto.Ciphertext) (*JoinBundle, error) {
	absorbed, absorbProofs, err := jdzshuffle.AbsorbKey(sk, pk, dealerDeck)
	if err != nil {
		return nil, err
	}
	bundle, err := p.ShuffleDeck(ctx, seed, aggPK, absorbed)
	if err != nil {
		return nil, err
	}
	return &JoinBundle{ShuffleBundle: *bundle, AbsorbProofs: absorbProofs}, nil
}

// RevealBundle is one submit_reveal payload.
type RevealBundle struct {
	CardIndex    uint32
	Share        []byte
	Proof        []byte
	PublicInputs []string
}

// RevealRequest names one deck position to open.
type RevealRequest struct {
	CardIndex  uint32
	Ciphertext jdzcrypto.Ciphertext
}

// RevealBatch computes shares and proofs for every requested position,
// fanning out across the worker pool. Results keep the request order.
func (p *Prover) RevealBatch(ctx context.Context, sk jdzcrypto.Scalar, pk jdzcrypto.Point, reqs []RevealRequest) ([]RevealBundle, error) {
	out := make([]RevealBundle, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			share, proof, err := jdzshuffle.RevealCard(sk, pk, req.Ciphertext)
			if err != nil {
				return fmt.Errorf("card %d: %w", req.CardIndex, err)
			}
			pub := jdzshuffle.BuildRevealPublicInputs(pk, req.Ciphertext, share)
			out[i] = RevealBundle{
				CardIndex:    req.CardIndex,
				Share:        share.Bytes(),
				Proof:        proof,
				PublicInputs: pub.Strings(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
