package prover

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"juodzekas/chain/internal/jdzcrypto"
	"juodzekas/chain/internal/jdzshuffle"
	"juodzekas/chain/internal/jdzverify"
)

func testDeck(t *testing.T, pk jdzcrypto.Point) []jdzcrypto.Ciphertext {
	t.Helper()
	rng, err := jdzshuffle.NewDeterministicRng([]byte("prover-test-deck"))
	require.NoError(t, err)
	deck, err := jdzshuffle.InitialDeck(rng, pk)
	require.NoError(t, err)
	return deck
}

func TestShuffleDeck_VerifiesLocally(t *testing.T) {
	kp, err := jdzcrypto.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	deckIn := testDeck(t, kp.PK)

	p := New(WithRounds(jdzshuffle.MinShuffleRounds))
	bundle, err := p.ShuffleDeck(context.Background(), []byte("seed-a"), kp.PK, deckIn)
	require.NoError(t, err)
	require.Len(t, bundle.Deck, jdzshuffle.DeckSize)
	require.Len(t, bundle.PublicInputs, jdzshuffle.NumShufflePublicInputs)

	v := jdzverify.NewLocalVerifier()
	ok, err := v.Verify(jdzverify.DefaultShuffleVKeyID, bundle.Proof, bundle.PublicInputs)
	require.NoError(t, err)
	require.True(t, ok)

	// Deterministic: the same seed replays the same bundle.
	again, err := p.ShuffleDeck(context.Background(), []byte("seed-a"), kp.PK, deckIn)
	require.NoError(t, err)
	require.Equal(t, bundle.Deck, again.Deck)
	require.Equal(t, bundle.PublicInputs, again.PublicInputs)
}

func TestShuffleDeck_EmptySeedRejected(t *testing.T) {
	kp, err := jdzcrypto.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	p := New()
	_, err = p.ShuffleDeck(context.Background(), nil, kp.PK, testDeck(t, kp.PK))
	require.Error(t, err)
}

func TestAbsorbAndShuffle_JoinPayloadVerifies(t *testing.T) {
	dealer, err := jdzcrypto.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	player, err := jdzcrypto.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	agg := jdzcrypto.AggregateKeys(dealer.PK, player.PK)
	dealerDeck := testDeck(t, dealer.PK)

	p := New()
	bundle, err := p.AbsorbAndShuffle(context.Background(), []byte("join-seed"), player.SK, player.PK, agg, dealerDeck)
	require.NoError(t, err)
	require.Len(t, bundle.AbsorbProofs, jdzshuffle.DeckSize)

	pub, err := jdzshuffle.ParseShufflePublicInputs(bundle.PublicInputs)
	require.NoError(t, err)
	absorbed, _, err := pub.Decks()
	require.NoError(t, err)
	ok, err := jdzshuffle.VerifyKeyAbsorption(player.PK, dealerDeck, absorbed, bundle.AbsorbProofs)
	require.NoError(t, err)
	require.True(t, ok)

	v := jdzverify.NewLocalVerifier()
	ok, err = v.Verify(jdzverify.DefaultShuffleVKeyID, bundle.Proof, bundle.PublicInputs)
	require.NoError(t, err)
	require.True(t, ok)

	// Combined shares open every card of the final deck.
	seen := make(map[uint8]bool)
	for _, raw := range bundle.Deck {
		ct, err := jdzshuffle.DecodeCiphertext(raw)
		require.NoError(t, err)
		m := jdzcrypto.CombineShares(ct,
			jdzcrypto.PartialDecrypt(dealer.SK, ct),
			jdzcrypto.PartialDecrypt(player.SK, ct))
		card, err := jdzcrypto.CardFromPoint(m)
		require.NoError(t, err)
		seen[card] = true
	}
	require.Len(t, seen, jdzshuffle.DeckSize)
}

func TestRevealBatch_SharesVerify(t *testing.T) {
	kp, err := jdzcrypto.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	deck := testDeck(t, kp.PK)

	reqs := []RevealRequest{
		{CardIndex: 0, Ciphertext: deck[0]},
		{CardIndex: 1, Ciphertext: deck[1]},
		{CardIndex: 7, Ciphertext: deck[7]},
	}
	p := New(WithConcurrency(2))
	bundles, err := p.RevealBatch(context.Background(), kp.SK, kp.PK, reqs)
	require.NoError(t, err)
	require.Len(t, bundles, len(reqs))

	v := jdzverify.NewLocalVerifier()
	for i, b := range bundles {
		require.Equal(t, reqs[i].CardIndex, b.CardIndex)
		ok, err := v.Verify(jdzverify.DefaultRevealVKeyID, b.Proof, b.PublicInputs)
		require.NoError(t, err)
		require.True(t, ok, "bundle %d", i)

		share, err := jdzcrypto.PointFromBytesCanonical(b.Share)
		require.NoError(t, err)
		okShare, err := jdzshuffle.VerifyReveal(kp.PK, reqs[i].Ciphertext, share, b.Proof)
		require.NoError(t, err)
		require.True(t, okShare)
	}
}

func TestRevealBatch_CancelledContext(t *testing.T) {
	kp, err := jdzcrypto.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	deck := testDeck(t, kp.PK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(WithConcurrency(1))
	_, err = p.RevealBatch(ctx, kp.SK, kp.PK, []RevealRequest{{CardIndex: 0, Ciphertext: deck[0]}})
	require.ErrorIs(t, err, context.Canceled)
}
