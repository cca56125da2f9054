package app

import (
	"strings"
	"testing"

	"juodzekas/chain/internal/bjrules"
	"juodzekas/chain/internal/jdzshuffle"
	"juodzekas/chain/internal/state"
)

// finishDealer answers reveal batches until the game leaves the reveal phase
// for good (the dealer may draw several cards).
func (g testGame) finishDealer(t *testing.T, now int64) {
	t.Helper()
	for g.session(t).Phase == state.PhaseWaitingForReveal {
		g.revealPending(t, now)
	}
}

func TestNaturalBlackjack_PaysThreeToTwo(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardAce, cardKing, cardNine, cardEight))

	g.revealPending(t, 0)
	// The natural auto-stands; the dealer reveals the hole and stands on 17.
	g.finishDealer(t, 0)

	s := g.session(t)
	if s.Phase != state.PhaseSettled {
		t.Fatalf("expected settled, got %s", s.Phase)
	}
	if s.Hands[0].Outcome != bjrules.OutcomeBlackjack {
		t.Fatalf("expected blackjack outcome, got %s", s.Hands[0].Outcome)
	}
	if got := g.a.st.Balance(testPlayer); got != 51_500 {
		t.Fatalf("expected 3:2 return (51500), got %d", got)
	}
	if got := g.a.st.Bankroll(testDealer); got != 8_500 {
		t.Fatalf("expected dealer remainder 8500, got %d", got)
	}
}

func TestSixteenAgainstEighteen_PlayerLoses(t *testing.T) {
	secondNine := cardNine + 13
	g := setupGame(t, nil, 1000, riggedOrder(t, cardTen, cardSix, cardNine, secondNine))

	g.revealPending(t, 0)
	g.playerTx(t, "stand", 0)
	g.finishDealer(t, 0)

	s := g.session(t)
	if s.Hands[0].Outcome != bjrules.OutcomeLoss {
		t.Fatalf("expected loss, got %s", s.Hands[0].Outcome)
	}
	if got := g.a.st.Balance(testPlayer); got != 49_000 {
		t.Fatalf("expected bet kept by house, balance=%d", got)
	}
	if got := g.a.st.Bankroll(testDealer); got != 11_000 {
		t.Fatalf("expected pot 11000 to dealer, got %d", got)
	}
}

func TestSoftSeventeen_StandWhenConfigured(t *testing.T) {
	// Dealer shows an ace, so insurance is offered first.
	g := setupGame(t, func(cfg map[string]any) {
		cfg["dealerHitsSoft17"] = false
	}, 1000, riggedOrder(t, cardTen, cardEight, cardAce, cardSix))

	g.revealPending(t, 0)
	if g.session(t).Phase != state.PhaseOfferingInsurance {
		t.Fatalf("expected insurance offer, got %s", g.session(t).Phase)
	}
	g.playerTx(t, "decline_insurance", 0)
	g.revealPending(t, 0) // hole card peek, no natural
	g.playerTx(t, "stand", 0)
	g.finishDealer(t, 0)

	s := g.session(t)
	if s.Hands[0].Outcome != bjrules.OutcomeWin {
		t.Fatalf("expected win over soft 17, got %s", s.Hands[0].Outcome)
	}
	if got := g.a.st.Balance(testPlayer); got != 51_000 {
		t.Fatalf("expected even-money win (51000), got %d", got)
	}
}

func TestSoftSeventeen_HitWhenConfigured(t *testing.T) {
	g := setupGame(t, func(cfg map[string]any) {
		cfg["dealerHitsSoft17"] = true
	}, 1000, riggedOrder(t, cardTen, cardEight, cardAce, cardSix, cardFour))

	g.revealPending(t, 0)
	g.playerTx(t, "decline_insurance", 0)
	g.revealPending(t, 0)
	g.playerTx(t, "stand", 0)
	g.finishDealer(t, 0)

	// Dealer draws the four: A+6+4 = 21 beats 18.
	s := g.session(t)
	if len(s.DealerHand) != 3 {
		t.Fatalf("expected dealer to draw on soft 17, hand=%v", s.DealerHand)
	}
	if s.Hands[0].Outcome != bjrules.OutcomeLoss {
		t.Fatalf("expected loss to dealer 21, got %s", s.Hands[0].Outcome)
	}
	if got := g.a.st.Balance(testPlayer); got != 49_000 {
		t.Fatalf("expected bet lost, balance=%d", got)
	}
}

func TestDoubleDown_DoublesStakeAndTakesOneCard(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardSix, cardFive, cardNine, cardEight, cardTen))

	g.revealPending(t, 0)
	g.playerTx(t, "double_down", 0)
	if got := g.a.st.Balance(testPlayer); got != 48_000 {
		t.Fatalf("expected second stake debited, balance=%d", got)
	}
	g.finishDealer(t, 0)

	s := g.session(t)
	if s.Hands[0].Bet != 2000 {
		t.Fatalf("expected doubled bet, got %d", s.Hands[0].Bet)
	}
	if len(s.Hands[0].Cards) != 3 {
		t.Fatalf("expected exactly one extra card, got %v", s.Hands[0].Cards)
	}
	// 21 against dealer 17: even money on 2000.
	if s.Hands[0].Outcome != bjrules.OutcomeWin {
		t.Fatalf("expected win, got %s", s.Hands[0].Outcome)
	}
	if got := g.a.st.Balance(testPlayer); got != 52_000 {
		t.Fatalf("expected 4000 returned (52000), got %d", got)
	}
}

func TestDoubleDown_RestrictedHandRejected(t *testing.T) {
	g := setupGame(t, func(cfg map[string]any) {
		cfg["doubleRestriction"] = "hard_10_11"
	}, 1000, riggedOrder(t, cardTen, cardSix, cardNine, cardEight))

	g.revealPending(t, 0)
	res := mustFail(t, g.a.deliverTx(txBytesSigned(t, "blackjack/double_down", map[string]any{
		"player": testPlayer,
		"gameId": g.id,
	}, testPlayer), testHeight, 0))
	if !strings.Contains(res.Log, "double not allowed") {
		t.Fatalf("unexpected log %q", res.Log)
	}
	if got := g.a.st.Balance(testPlayer); got != 49_000 {
		t.Fatalf("rejected double must not debit, balance=%d", got)
	}
}

func TestSplit_PlaysBothHandsIndependently(t *testing.T) {
	secondEight := cardEight + 13
	g := setupGame(t, nil, 1000, riggedOrder(t,
		cardEight, secondEight, cardTen, cardSeven, // deal: 8,8 vs T with 7 in the hole
		cardThree, cardTwo, // split top-ups
		cardNine, cardJack, // hits on each hand
	))

	g.revealPending(t, 0)
	g.playerTx(t, "split", 0)
	if got := g.a.st.Balance(testPlayer); got != 48_000 {
		t.Fatalf("expected split stake debited, balance=%d", got)
	}
	g.revealPending(t, 0) // top-up both split hands

	s := g.session(t)
	if len(s.Hands) != 2 {
		t.Fatalf("expected two hands, got %d", len(s.Hands))
	}

	g.playerTx(t, "hit", 0) // hand 0: 8+3 -> +9 = 20
	g.revealPending(t, 0)
	g.playerTx(t, "stand", 0)

	g.playerTx(t, "hit", 0) // hand 1: 8+2 -> +J = 20
	g.revealPending(t, 0)
	g.playerTx(t, "stand", 0)

	g.finishDealer(t, 0)

	s = g.session(t)
	if s.Phase != state.PhaseSettled {
		t.Fatalf("expected settled, got %s", s.Phase)
	}
	for i := range s.Hands {
		if s.Hands[i].Outcome != bjrules.OutcomeWin {
			t.Fatalf("hand %d: expected win over 17, got %s", i, s.Hands[i].Outcome)
		}
	}
	// Two winning 1000 stakes at even money: 4000 back on 48000.
	if got := g.a.st.Balance(testPlayer); got != 52_000 {
		t.Fatalf("expected 52000, got %d", got)
	}
}

func TestSurrender_RefundsHalfAndSettles(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardTen, cardSix, cardNine, cardEight))

	g.revealPending(t, 0)
	g.playerTx(t, "surrender", 0)

	s := g.session(t)
	if s.Phase != state.PhaseSettled {
		t.Fatalf("expected settled, got %s", s.Phase)
	}
	if s.Hands[0].Outcome != bjrules.OutcomeSurrender {
		t.Fatalf("expected surrender outcome, got %s", s.Hands[0].Outcome)
	}
	if got := g.a.st.Balance(testPlayer); got != 49_500 {
		t.Fatalf("expected half refund (49500), got %d", got)
	}
	if got := g.a.st.Bankroll(testDealer); got != 10_500 {
		t.Fatalf("expected escrow plus forfeited half (10500), got %d", got)
	}
}

func TestSurrender_DisabledRejected(t *testing.T) {
	g := setupGame(t, func(cfg map[string]any) {
		cfg["surrenderAllowed"] = false
	}, 1000, riggedOrder(t, cardTen, cardSix, cardNine, cardEight))

	g.revealPending(t, 0)
	res := mustFail(t, g.a.deliverTx(txBytesSigned(t, "blackjack/surrender", map[string]any{
		"player": testPlayer,
		"gameId": g.id,
	}, testPlayer), testHeight, 0))
	if !strings.Contains(res.Log, "surrender is disabled") {
		t.Fatalf("unexpected log %q", res.Log)
	}
}

func TestInsurance_PaysOnDealerNatural(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardTen, cardSix, cardAce, cardKing))

	g.revealPending(t, 0)
	if g.session(t).Phase != state.PhaseOfferingInsurance {
		t.Fatalf("expected insurance offer, got %s", g.session(t).Phase)
	}
	g.playerTx(t, "insurance", 0)
	if got := g.a.st.Balance(testPlayer); got != 48_500 {
		t.Fatalf("expected insurance stake debited, balance=%d", got)
	}

	g.revealPending(t, 0) // hole card: dealer natural

	s := g.session(t)
	if s.Phase != state.PhaseSettled {
		t.Fatalf("expected peek settlement, got %s", s.Phase)
	}
	if s.Hands[0].Outcome != bjrules.OutcomeLoss {
		t.Fatalf("expected hand loss, got %s", s.Hands[0].Outcome)
	}
	// Bet lost, insurance returns 3x its 500 stake: dead even overall.
	if got := g.a.st.Balance(testPlayer); got != 50_000 {
		t.Fatalf("expected 50000, got %d", got)
	}
	if got := g.a.st.Bankroll(testDealer); got != 10_000 {
		t.Fatalf("expected dealer whole (10000), got %d", got)
	}
}

func TestInsurance_NaturalPushesAgainstNatural(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardQueen, cardAce, cardAce+13, cardKing))

	g.revealPending(t, 0)
	// A natural still gets the insurance offer before the peek.
	g.playerTx(t, "decline_insurance", 0)
	g.revealPending(t, 0)

	s := g.session(t)
	if s.Phase != state.PhaseSettled {
		t.Fatalf("expected peek settlement, got %s", s.Phase)
	}
	if s.Hands[0].Outcome != bjrules.OutcomePush {
		t.Fatalf("expected push of naturals, got %s", s.Hands[0].Outcome)
	}
	if got := g.a.st.Balance(testPlayer); got != 50_000 {
		t.Fatalf("expected stake returned, got %d", got)
	}
}

func TestDeclineInsurance_PlayContinuesWithoutNatural(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardTen, cardJack, cardAce, cardFive, cardFour))

	g.revealPending(t, 0)
	g.playerTx(t, "decline_insurance", 0)
	g.revealPending(t, 0) // hole: five, no natural
	if g.session(t).Phase != state.PhasePlayerTurn {
		t.Fatalf("expected playerTurn after peek, got %s", g.session(t).Phase)
	}
	g.playerTx(t, "stand", 0)
	g.finishDealer(t, 0)

	// Dealer A+5 must hit, draws the four: 20 pushes against 20.
	s := g.session(t)
	if s.Hands[0].Outcome != bjrules.OutcomePush {
		t.Fatalf("expected push, got %s", s.Hands[0].Outcome)
	}
	if got := g.a.st.Balance(testPlayer); got != 50_000 {
		t.Fatalf("expected stake returned, got %d", got)
	}
}

func TestSubmitReveal_DuplicateRejected(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))

	g.submitShare(t, testPlayer, g.playerKP, 0, 0)

	s := g.session(t)
	ct, err := s.Deck[0].Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	share, proof, err := jdzshuffle.RevealCard(g.playerKP.SK, g.playerKP.PK, ct)
	if err != nil {
		t.Fatalf("RevealCard: %v", err)
	}
	pub := jdzshuffle.BuildRevealPublicInputs(g.playerKP.PK, ct, share)
	res := mustFail(t, g.a.deliverTx(txBytesSigned(t, "blackjack/submit_reveal", map[string]any{
		"sender":       testPlayer,
		"gameId":       g.id,
		"cardIndex":    uint32(0),
		"share":        share.Bytes(),
		"proof":        proof,
		"publicInputs": pub.Strings(),
	}, testPlayer), testHeight, 0))
	if !strings.Contains(res.Log, "already revealed") {
		t.Fatalf("unexpected log %q", res.Log)
	}
}

func TestSubmitReveal_UnrequestedIndexRejected(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))

	s := g.session(t)
	ct, err := s.Deck[10].Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	share, proof, err := jdzshuffle.RevealCard(g.playerKP.SK, g.playerKP.PK, ct)
	if err != nil {
		t.Fatalf("RevealCard: %v", err)
	}
	pub := jdzshuffle.BuildRevealPublicInputs(g.playerKP.PK, ct, share)
	res := mustFail(t, g.a.deliverTx(txBytesSigned(t, "blackjack/submit_reveal", map[string]any{
		"sender":       testPlayer,
		"gameId":       g.id,
		"cardIndex":    uint32(10),
		"share":        share.Bytes(),
		"proof":        proof,
		"publicInputs": pub.Strings(),
	}, testPlayer), testHeight, 0))
	if !strings.Contains(res.Log, "unexpected card index") {
		t.Fatalf("unexpected log %q", res.Log)
	}
}

func TestSubmitReveal_WrongShareRejected(t *testing.T) {
	g := setupGame(t, nil, 1000, riggedOrder(t, cardFive, cardSix, cardNine, cardSeven))

	s := g.session(t)
	otherCT, err := s.Deck[1].Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Share for the wrong ciphertext: the public inputs no longer match card 0.
	share, proof, err := jdzshuffle.RevealCard(g.playerKP.SK, g.playerKP.PK, otherCT)
	if err != nil {
		t.Fatalf("RevealCard: %v", err)
	}
	pub := jdzshuffle.BuildRevealPublicInputs(g.playerKP.PK, otherCT, share)
	res := mustFail(t, g.a.deliverTx(txBytesSigned(t, "blackjack/submit_reveal", map[string]any{
		"sender":       testPlayer,
		"gameId":       g.id,
		"cardIndex":    uint32(0),
		"share":        share.Bytes(),
		"proof":        proof,
		"publicInputs": pub.Strings(),
	}, testPlayer), testHeight, 0))
	if !strings.Contains(res.Log, "ciphertext mismatch") {
		t.Fatalf("unexpected log %q", res.Log)
	}
}
