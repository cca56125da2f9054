package app

import (
	"strings"
	"testing"

	"juodzekas/chain/internal/bjrules"
	"juodzekas/chain/internal/jdzshuffle"
	"juodzekas/chain/internal/state"
)

func claimTimeoutTx(t *testing.T, g testGame, caller string, now int64) ([]byte, int64) {
	t.Helper()
	return txBytesSigned(t, "blackjack/claim_timeout", map[string]any{
		"caller": caller,
		"gameId": g.id,
	}, caller), now
}

func TestClaimTimeout_PlayerStallsOnReveal_DealerCollects(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))

	// Dealer answers all three reveals; the player never does.
	for _, idx := range []uint32{0, 1, 2} {
		g.submitShare(t, testDealer, g.dealerKP, idx, 0)
	}

	// The liveness window (10s) has not elapsed yet.
	tx, now := claimTimeoutTx(t, g, testDealer, 5)
	res := mustFail(t, g.a.deliverTx(tx, testHeight, now))
	if !strings.Contains(res.Log, "not timed out") {
		t.Fatalf("unexpected log %q", res.Log)
	}

	tx, now = claimTimeoutTx(t, g, testDealer, 11)
	ok := mustOk(t, g.a.deliverTx(tx, testHeight, now))
	if got := attr(findEvent(ok.Events, "TimeoutClaimed"), "forfeiter"); got != testPlayer {
		t.Fatalf("expected player blamed, got %q", got)
	}

	s := g.session(t)
	if s.Phase != state.PhaseSettled {
		t.Fatalf("expected settled, got %s", s.Phase)
	}
	if got := g.a.st.Bankroll(testDealer); got != 11_000 {
		t.Fatalf("expected dealer to collect pot 11000, got %d", got)
	}
	if got := g.a.st.Balance(testPlayer); got != 49_000 {
		t.Fatalf("expected player bet forfeited, balance=%d", got)
	}
}

func TestClaimTimeout_DealerStallsOnReveal_PlayerCollects(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))

	for _, idx := range []uint32{0, 1, 2} {
		g.submitShare(t, testPlayer, g.playerKP, idx, 0)
	}

	tx, now := claimTimeoutTx(t, g, testPlayer, 11)
	ok := mustOk(t, g.a.deliverTx(tx, testHeight, now))
	if got := attr(findEvent(ok.Events, "TimeoutClaimed"), "forfeiter"); got != testDealer {
		t.Fatalf("expected dealer blamed, got %q", got)
	}

	// The forfeit settles like a won hand: stake plus the 1:1 premium, with
	// the rest of the pot back in the dealer bankroll.
	if got := g.a.st.Balance(testPlayer); got != 51_000 {
		t.Fatalf("expected player to win the hand outright (51000), got %d", got)
	}
	if got := g.a.st.Bankroll(testDealer); got != 9_000 {
		t.Fatalf("expected dealer to keep the pot remainder (9000), got %d", got)
	}
	s := g.session(t)
	if len(s.Hands) != 1 || s.Hands[0].Outcome != bjrules.OutcomeWin {
		t.Fatalf("expected outright win outcome, hands=%+v", s.Hands)
	}
}

func TestClaimTimeout_NeitherReveals_TurnOwnerForfeits(t *testing.T) {
	// Both parties equally delinquent: the batch's turn owner takes the blame.
	g := setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))

	// The initial deal resumes the player's turn.
	tx, now := claimTimeoutTx(t, g, testDealer, 11)
	ok := mustOk(t, g.a.deliverTx(tx, testHeight, now))
	if got := attr(findEvent(ok.Events, "TimeoutClaimed"), "forfeiter"); got != testPlayer {
		t.Fatalf("expected player blamed, got %q", got)
	}

	// The hole-card batch after a stand resumes the dealer's turn.
	g = setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))
	g.revealPending(t, 0)
	g.playerTx(t, "stand", 0)
	if g.session(t).Resume != state.ResumeDealer {
		t.Fatalf("expected dealer resume, got %q", g.session(t).Resume)
	}
	tx, now = claimTimeoutTx(t, g, testPlayer, 11)
	ok = mustOk(t, g.a.deliverTx(tx, testHeight, now))
	if got := attr(findEvent(ok.Events, "TimeoutClaimed"), "forfeiter"); got != testDealer {
		t.Fatalf("expected dealer blamed, got %q", got)
	}
	if got := g.a.st.Balance(testPlayer); got != 51_000 {
		t.Fatalf("expected player to win the hand outright (51000), got %d", got)
	}
}

func TestClaimTimeout_PlayerStallsOnDecision(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))
	g.revealPending(t, 0)
	if g.session(t).Phase != state.PhasePlayerTurn {
		t.Fatalf("expected playerTurn, got %s", g.session(t).Phase)
	}

	tx, now := claimTimeoutTx(t, g, testDealer, 11)
	ok := mustOk(t, g.a.deliverTx(tx, testHeight, now))
	if got := attr(findEvent(ok.Events, "TimeoutClaimed"), "forfeiter"); got != testPlayer {
		t.Fatalf("expected player blamed, got %q", got)
	}
	if got := g.a.st.Bankroll(testDealer); got != 11_000 {
		t.Fatalf("expected dealer to collect pot, got %d", got)
	}
}

func TestClaimTimeout_ActionResetsTheClock(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))

	// Shares at t=8 push the deadline past t=11.
	g.revealPending(t, 8)
	g.playerTx(t, "hit", 8)

	tx, now := claimTimeoutTx(t, g, testDealer, 11)
	res := mustFail(t, g.a.deliverTx(tx, testHeight, now))
	if !strings.Contains(res.Log, "not timed out") {
		t.Fatalf("unexpected log %q", res.Log)
	}
}

func TestClaimTimeout_RejectedBeforeJoinAndAfterSettle(t *testing.T) {
	a := newTestApp(t)
	mintTestTokens(t, a, testHeight, testDealer, 50_000)
	registerTestAccount(t, a, testHeight, testDealer)
	initTestConfig(t, a, testHeight, testDealer, nil)
	mustOk(t, a.deliverTx(txBytesSigned(t, "blackjack/deposit_bankroll", map[string]any{
		"dealer": testDealer,
		"amount": uint64(10_000),
	}, testDealer), testHeight, 0))
	kp := testKeyPair(t)
	cts, raw := deckUnder(t, kp.PK, riggedOrder(t))
	pub := jdzshuffle.BuildShufflePublicInputs(kp.PK, baseDeck(), cts)
	res := mustOk(t, a.deliverTx(txBytesSigned(t, "blackjack/create_game", map[string]any{
		"dealer":       testDealer,
		"pubKey":       kp.PK.Bytes(),
		"shuffledDeck": raw,
		"proof":        []byte("stub"),
		"publicInputs": pub.Strings(),
	}, testDealer), testHeight, 0))
	id := parseU64(t, attr(findEvent(res.Events, "GameCreated"), "gameId"))

	fail := mustFail(t, a.deliverTx(txBytesSigned(t, "blackjack/claim_timeout", map[string]any{
		"caller": testDealer,
		"gameId": id,
	}, testDealer), testHeight, 1000))
	if !strings.Contains(fail.Log, "cancel_game") {
		t.Fatalf("unexpected log %q", fail.Log)
	}
}
