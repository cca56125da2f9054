package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"juodzekas/chain/internal/bjrules"
	"juodzekas/chain/internal/codec"
	"juodzekas/chain/internal/jdzcrypto"
	"juodzekas/chain/internal/state"
)

// playerGame looks up a game and checks the sender is its seated player.
func playerGame(st *state.State, gameID uint64, player string) (*state.GameSession, error) {
	g, ok := st.Games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrGameNotFound, gameID)
	}
	if g.Phase == state.PhaseSettled {
		return nil, fmt.Errorf("%w: game %d", ErrAlreadySettled, gameID)
	}
	if g.Player != player {
		return nil, fmt.Errorf("%w: not the player of game %d", ErrUnauthorized, gameID)
	}
	return g, nil
}

func requirePhase(g *state.GameSession, want state.GamePhase) error {
	if g.Phase != want {
		return fmt.Errorf("%w: game %d is %s, want %s", ErrInvalidPhase, g.ID, g.Phase, want)
	}
	return nil
}

// requestCards reserves the next n undealt deck positions and asks both
// parties for decryption shares.
func requestCards(g *state.GameSession, n int, resume state.ResumeTurn, now int64) error {
	indices := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		if g.LastCardIndex >= uint32(jdzcrypto.NumCards) {
			return fmt.Errorf("%w: game %d", ErrDeckExhausted, g.ID)
		}
		indices = append(indices, g.LastCardIndex)
		g.LastCardIndex++
	}
	g.RequestReveals(indices, resume, now)
	return nil
}

// isSplitAcesHand reports whether a hand was produced by splitting aces. Any
// post-split hand leads with a card of the split rank, so after a split the
// lead card identifies the pair.
func isSplitAcesHand(g *state.GameSession, h *state.Hand) bool {
	return len(g.Hands) > 1 && len(h.Cards) > 0 && bjrules.IsAce(h.Cards[0])
}

func hit(st *state.State, msg codec.BlackjackHitTx, now int64) (*abci.ExecTxResult, error) {
	g, err := playerGame(st, msg.GameID, msg.Player)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(g, state.PhasePlayerTurn); err != nil {
		return nil, err
	}
	h, err := g.ActiveHand()
	if err != nil {
		return nil, err
	}
	if h.Done() {
		return nil, fmt.Errorf("%w: hand is %s", ErrInvalidPhase, h.Status)
	}
	cfg := st.Config
	if isSplitAcesHand(g, h) && !cfg.CanHitSplitAces {
		return nil, fmt.Errorf("%w: split aces take one card", ErrInvalidPhase)
	}
	if err := requestCards(g, 1, state.ResumePlayer, now); err != nil {
		return nil, err
	}
	return okEvent("PlayerHit", map[string]string{
		"gameId": fmt.Sprintf("%d", g.ID),
		"hand":   fmt.Sprintf("%d", g.CurrentHandIndex),
	}), nil
}

func stand(st *state.State, msg codec.BlackjackStandTx, now int64) (*abci.ExecTxResult, error) {
	g, err := playerGame(st, msg.GameID, msg.Player)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(g, state.PhasePlayerTurn); err != nil {
		return nil, err
	}
	h, err := g.ActiveHand()
	if err != nil {
		return nil, err
	}
	if h.Done() {
		return nil, fmt.Errorf("%w: hand is %s", ErrInvalidPhase, h.Status)
	}
	h.Status = state.HandStood
	if err := advancePlayerFlow(st, g, now); err != nil {
		return nil, err
	}
	return okEvent("PlayerStood", map[string]string{
		"gameId": fmt.Sprintf("%d", g.ID),
		"hand":   fmt.Sprintf("%d", g.CurrentHandIndex),
	}), nil
}

func doubleDown(st *state.State, msg codec.BlackjackDoubleDownTx, now int64) (*abci.ExecTxResult, error) {
	g, err := playerGame(st, msg.GameID, msg.Player)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(g, state.PhasePlayerTurn); err != nil {
		return nil, err
	}
	h, err := g.ActiveHand()
	if err != nil {
		return nil, err
	}
	if h.Done() || len(h.Cards) != 2 {
		return nil, fmt.Errorf("%w: double requires a fresh two-card hand", ErrInvalidPhase)
	}
	cfg := st.Config
	if !cfg.DoubleRestriction.AllowsDouble(h.Cards) {
		return nil, fmt.Errorf("%w: double not allowed on this hand", ErrInvalidPhase)
	}
	if err := st.Debit(msg.Player, h.Bet); err != nil {
		return nil, err
	}
	doubled, err := addU64Checked(h.Bet, h.Bet, "doubled bet")
	if err != nil {
		return nil, err
	}
	h.Bet = doubled
	h.Status = state.HandDoubled
	if err := requestCards(g, 1, state.ResumePlayer, now); err != nil {
		return nil, err
	}
	return okEvent("PlayerDoubled", map[string]string{
		"gameId": fmt.Sprintf("%d", g.ID),
		"hand":   fmt.Sprintf("%d", g.CurrentHandIndex),
		"bet":    fmt.Sprintf("%d", h.Bet),
	}), nil
}

func split(st *state.State, msg codec.BlackjackSplitTx, now int64) (*abci.ExecTxResult, error) {
	g, err := playerGame(st, msg.GameID, msg.Player)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(g, state.PhasePlayerTurn); err != nil {
		return nil, err
	}
	h, err := g.ActiveHand()
	if err != nil {
		return nil, err
	}
	cfg := st.Config
	if h.Done() || len(h.Cards) != 2 {
		return nil, fmt.Errorf("%w: split requires a fresh two-card hand", ErrInvalidPhase)
	}
	if !bjrules.SameRank(h.Cards[0], h.Cards[1]) {
		return nil, fmt.Errorf("%w: cards are not a pair", ErrInvalidPhase)
	}
	if g.SplitCount >= cfg.MaxSplits {
		return nil, fmt.Errorf("%w: split limit %d reached", ErrInvalidPhase, cfg.MaxSplits)
	}
	if bjrules.IsAce(h.Cards[0]) && !cfg.CanSplitAces {
		return nil, fmt.Errorf("%w: aces cannot be split", ErrInvalidPhase)
	}
	if err := st.Debit(msg.Player, h.Bet); err != nil {
		return nil, err
	}

	second := h.Cards[1]
	h.Cards = h.Cards[:1]
	newHand := state.Hand{Cards: []uint8{second}, Bet: h.Bet, Status: state.HandActive}
	idx := int(g.CurrentHandIndex) + 1
	g.Hands = append(g.Hands, state.Hand{})
	copy(g.Hands[idx+1:], g.Hands[idx:])
	g.Hands[idx] = newHand
	g.SplitCount++

	if err := requestCards(g, 2, state.ResumePlayer, now); err != nil {
		return nil, err
	}
	return okEvent("PlayerSplit", map[string]string{
		"gameId": fmt.Sprintf("%d", g.ID),
		"hands":  fmt.Sprintf("%d", len(g.Hands)),
	}), nil
}

func surrender(st *state.State, msg codec.BlackjackSurrenderTx, now int64) (*abci.ExecTxResult, error) {
	g, err := playerGame(st, msg.GameID, msg.Player)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(g, state.PhasePlayerTurn); err != nil {
		return nil, err
	}
	cfg := st.Config
	if !cfg.SurrenderAllowed {
		return nil, fmt.Errorf("%w: surrender is disabled", ErrInvalidPhase)
	}
	if len(g.Hands) != 1 {
		return nil, fmt.Errorf("%w: cannot surrender after a split", ErrInvalidPhase)
	}
	h := &g.Hands[0]
	if h.Done() || len(h.Cards) != 2 {
		return nil, fmt.Errorf("%w: surrender requires a fresh two-card hand", ErrInvalidPhase)
	}

	refund := h.Bet / 2
	if err := st.Credit(msg.Player, refund); err != nil {
		return nil, err
	}
	h.Status = state.HandSurrendered
	h.Outcome = bjrules.OutcomeSurrender
	// The unrefunded half stays as the hand's stake and settles to the dealer.
	h.Bet -= refund
	if err := settleGame(st, g, now); err != nil {
		return nil, err
	}
	return okEvent("PlayerSurrendered", map[string]string{
		"gameId": fmt.Sprintf("%d", g.ID),
		"refund": fmt.Sprintf("%d", refund),
	}), nil
}

func insurance(st *state.State, msg codec.BlackjackInsuranceTx, now int64) (*abci.ExecTxResult, error) {
	g, err := playerGame(st, msg.GameID, msg.Player)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(g, state.PhaseOfferingInsurance); err != nil {
		return nil, err
	}
	stake := g.Bet / 2
	if stake == 0 {
		return nil, fmt.Errorf("%w: bet too small for insurance", ErrBetOutOfRange)
	}
	if err := st.Debit(msg.Player, stake); err != nil {
		return nil, err
	}
	g.InsuranceBet = stake
	if err := dealerPeek(g, now); err != nil {
		return nil, err
	}
	return okEvent("InsuranceTaken", map[string]string{
		"gameId": fmt.Sprintf("%d", g.ID),
		"stake":  fmt.Sprintf("%d", stake),
	}), nil
}

func declineInsurance(st *state.State, msg codec.BlackjackDeclineInsuranceTx, now int64) (*abci.ExecTxResult, error) {
	g, err := playerGame(st, msg.GameID, msg.Player)
	if err != nil {
		return nil, err
	}
	if err := requirePhase(g, state.PhaseOfferingInsurance); err != nil {
		return nil, err
	}
	if err := dealerPeek(g, now); err != nil {
		return nil, err
	}
	return okEvent("InsuranceDeclined", map[string]string{
		"gameId": fmt.Sprintf("%d", g.ID),
	}), nil
}

// dealerPeek reveals the hole card after the insurance decision. The reveal
// resumes the player's turn; a dealer natural settles the game on arrival.
func dealerPeek(g *state.GameSession, now int64) error {
	g.DealerPeeked = true
	g.RequestReveals([]uint32{holeCardIndex}, state.ResumePlayer, now)
	return nil
}

// advancePlayerFlow walks hands forward after a decision or a dealt card:
// busted and 21-valued hands need no further input, done hands yield to the
// next one, and when none remain the dealer resolves.
func advancePlayerFlow(st *state.State, g *state.GameSession, now int64) error {
	cfg := st.Config
	for int(g.CurrentHandIndex) < len(g.Hands) {
		h := &g.Hands[g.CurrentHandIndex]
		if h.Status == state.HandActive {
			score := bjrules.Score(h.Cards)
			switch {
			case score > bjrules.Blackjack:
				h.Status = state.HandBusted
			case score == bjrules.Blackjack:
				h.Status = state.HandStood
			case len(h.Cards) >= 2 && isSplitAcesHand(g, h) && !cfg.CanHitSplitAces:
				h.Status = state.HandStood
			}
		}
		if h.Status == state.HandDoubled && len(h.Cards) >= 3 {
			if bjrules.IsBusted(h.Cards) {
				h.Status = state.HandBusted
			}
			// A doubled hand is complete once its one card lands.
		}
		if !h.Done() {
			g.Phase = state.PhasePlayerTurn
			g.LastActionTimestamp = now
			return nil
		}
		g.CurrentHandIndex++
	}
	return advanceToDealer(st, g, now)
}

// advanceToDealer runs once every player hand is done. If nothing is left to
// beat, the game settles without dealer play.
func advanceToDealer(st *state.State, g *state.GameSession, now int64) error {
	live := false
	for i := range g.Hands {
		switch g.Hands[i].Status {
		case state.HandBusted, state.HandSurrendered:
		default:
			live = true
		}
	}
	if !live {
		// Insurance, if any, was already resolved by the peek.
		return settleGame(st, g, now)
	}
	if len(g.DealerHand) < 2 {
		g.RequestReveals([]uint32{holeCardIndex}, state.ResumeDealer, now)
		return nil
	}
	return dealerPlay(st, g, now)
}

func dealerPlay(st *state.State, g *state.GameSession, now int64) error {
	cfg := st.Config
	if bjrules.DealerMustHit(g.DealerHand, cfg.DealerHitsSoft17) {
		return requestCards(g, 1, state.ResumeDealer, now)
	}
	return settleGame(st, g, now)
}
