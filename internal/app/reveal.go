package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"juodzekas/chain/internal/bjrules"
	"juodzekas/chain/internal/codec"
	"juodzekas/chain/internal/jdzcrypto"
	"juodzekas/chain/internal/jdzshuffle"
	"juodzekas/chain/internal/jdzverify"
	"juodzekas/chain/internal/state"
)

func submitReveal(st *state.State, v jdzverify.Verifier, msg codec.BlackjackSubmitRevealTx, now int64) (*abci.ExecTxResult, error) {
	cfg := st.Config
	if cfg == nil {
		return nil, fmt.Errorf("%w: not initialized", ErrConfigInvalid)
	}
	g, ok := st.Games[msg.GameID]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrGameNotFound, msg.GameID)
	}
	if err := requirePhase(g, state.PhaseWaitingForReveal); err != nil {
		return nil, err
	}

	var senderKey []byte
	switch msg.Sender {
	case g.Player:
		senderKey = g.PlayerPubKey
	case g.Dealer:
		senderKey = g.DealerPubKey
	default:
		return nil, fmt.Errorf("%w: %s is not seated at game %d", ErrUnauthorized, msg.Sender, msg.GameID)
	}

	pr := g.PendingRevealFor(msg.CardIndex)
	if pr == nil {
		return nil, fmt.Errorf("%w: index %d not requested", ErrCardIndexUnexpected, msg.CardIndex)
	}
	if msg.Sender == g.Player && len(pr.PlayerShare) != 0 {
		return nil, fmt.Errorf("%w: player share for index %d", ErrAlreadyRevealed, msg.CardIndex)
	}
	if msg.Sender == g.Dealer && len(pr.DealerShare) != 0 {
		return nil, fmt.Errorf("%w: dealer share for index %d", ErrAlreadyRevealed, msg.CardIndex)
	}

	if int(msg.CardIndex) >= len(g.Deck) {
		return nil, fmt.Errorf("%w: index %d", ErrCardIndexUnexpected, msg.CardIndex)
	}
	storedCT, err := g.Deck[msg.CardIndex].Decode()
	if err != nil {
		return nil, fmt.Errorf("stored card %d: %w", msg.CardIndex, err)
	}
	wantPK, err := jdzcrypto.PointFromBytesCanonical(senderKey)
	if err != nil {
		return nil, fmt.Errorf("stored sender pubkey: %w", err)
	}
	wantShare, err := jdzcrypto.PointFromBytesCanonical(msg.Share)
	if err != nil {
		return nil, fmt.Errorf("share: %w", err)
	}

	pub, err := jdzshuffle.ParseRevealPublicInputs(msg.PublicInputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	ct, pk, share, err := pub.Points()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !jdzcrypto.PointEq(ct.C0, storedCT.C0) || !jdzcrypto.PointEq(ct.C1, storedCT.C1) {
		return nil, fmt.Errorf("%w: ciphertext mismatch", ErrInvalidProof)
	}
	if !jdzcrypto.PointEq(pk, wantPK) {
		return nil, fmt.Errorf("%w: key mismatch", ErrInvalidProof)
	}
	if !jdzcrypto.PointEq(share, wantShare) {
		return nil, fmt.Errorf("%w: share mismatch", ErrInvalidProof)
	}
	okProof, err := v.Verify(cfg.RevealVKeyID, msg.Proof, msg.PublicInputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !okProof {
		return nil, fmt.Errorf("%w: reveal proof rejected", ErrInvalidProof)
	}

	if msg.Sender == g.Player {
		pr.PlayerShare = append([]byte(nil), msg.Share...)
		pr.PlayerProof = append([]byte(nil), msg.Proof...)
	} else {
		pr.DealerShare = append([]byte(nil), msg.Share...)
		pr.DealerProof = append([]byte(nil), msg.Proof...)
	}
	g.LastActionTimestamp = now

	if g.AllRevealsComplete() {
		if err := resolveReveals(st, g, now); err != nil {
			return nil, err
		}
	}
	return okEvent("ShareSubmitted", map[string]string{
		"gameId":    fmt.Sprintf("%d", msg.GameID),
		"cardIndex": fmt.Sprintf("%d", msg.CardIndex),
		"sender":    msg.Sender,
	}), nil
}

// resolveReveals decrypts every completed position, routes the cards, and
// resumes whichever turn was suspended.
func resolveReveals(st *state.State, g *state.GameSession, now int64) error {
	resume := g.Resume
	for i := range g.PendingReveals {
		pr := &g.PendingReveals[i]
		ct, err := g.Deck[pr.CardIndex].Decode()
		if err != nil {
			return fmt.Errorf("stored card %d: %w", pr.CardIndex, err)
		}
		playerShare, err := jdzcrypto.PointFromBytesCanonical(pr.PlayerShare)
		if err != nil {
			return fmt.Errorf("player share: %w", err)
		}
		dealerShare, err := jdzcrypto.PointFromBytesCanonical(pr.DealerShare)
		if err != nil {
			return fmt.Errorf("dealer share: %w", err)
		}
		m := jdzcrypto.CombineShares(ct, playerShare, dealerShare)
		card, err := jdzcrypto.CardFromPoint(m)
		if err != nil {
			// Both shares verified, so the deck itself is malformed. The tx
			// fails and the game can only end through claim_timeout.
			return fmt.Errorf("%w: card %d does not decrypt", ErrProtocolFault, pr.CardIndex)
		}
		routeCard(g, resume, pr.CardIndex, card)
	}
	g.ClearReveals()

	switch resume {
	case state.ResumePlayer:
		return resumePlayerTurn(st, g, now)
	case state.ResumeDealer:
		return dealerPlay(st, g, now)
	default:
		return fmt.Errorf("game %d: no resume turn", g.ID)
	}
}

// routeCard assigns a decrypted card. Deck positions 2 and 3 are always the
// dealer's; otherwise dealer-resumed reveals feed the dealer hand, initial
// and split top-ups fill the first short player hand, and anything else goes
// to the hand in play.
func routeCard(g *state.GameSession, resume state.ResumeTurn, cardIndex uint32, card uint8) {
	if resume == state.ResumeDealer || cardIndex == 2 || cardIndex == holeCardIndex {
		g.DealerHand = append(g.DealerHand, card)
		return
	}
	for i := range g.Hands {
		if len(g.Hands[i].Cards) < 2 {
			g.Hands[i].Cards = append(g.Hands[i].Cards, card)
			return
		}
	}
	h := &g.Hands[g.CurrentHandIndex]
	h.Cards = append(h.Cards, card)
}

// resumePlayerTurn continues after player-bound cards land: offer insurance
// on a fresh ace up-card, settle on a peeked dealer natural, otherwise walk
// the hands.
func resumePlayerTurn(st *state.State, g *state.GameSession, now int64) error {
	cfg := st.Config
	if shouldOfferInsurance(g, cfg) {
		g.Phase = state.PhaseOfferingInsurance
		g.LastActionTimestamp = now
		return nil
	}
	if g.DealerPeeked && len(g.DealerHand) == 2 && bjrules.IsBlackjack(g.DealerHand) {
		return settlePeekedNatural(st, g, now)
	}
	return advancePlayerFlow(st, g, now)
}

func shouldOfferInsurance(g *state.GameSession, cfg *state.Config) bool {
	return cfg.DealerPeeks &&
		!g.DealerPeeked &&
		g.InsuranceBet == 0 &&
		len(g.DealerHand) == 1 &&
		bjrules.IsAce(g.DealerHand[0]) &&
		len(g.Hands) == 1 &&
		len(g.Hands[0].Cards) == 2 &&
		g.Hands[0].Status == state.HandActive
}
