package app

import (
	"fmt"

	"juodzekas/chain/internal/bjrules"
	"juodzekas/chain/internal/state"
)

// handReturn is what a finished hand pays back to the player: stake plus
// premium on a win, stake alone on a push, nothing otherwise.
func handReturn(cfg *state.Config, h *state.Hand, outcome bjrules.Outcome) (uint64, error) {
	switch outcome {
	case bjrules.OutcomeBlackjack:
		premium, err := cfg.BlackjackPayout.Payout(h.Bet)
		if err != nil {
			return 0, err
		}
		return addU64Checked(h.Bet, premium, "blackjack return")
	case bjrules.OutcomeWin:
		premium, err := cfg.StandardPayout.Payout(h.Bet)
		if err != nil {
			return 0, err
		}
		return addU64Checked(h.Bet, premium, "win return")
	case bjrules.OutcomePush:
		return h.Bet, nil
	default:
		return 0, nil
	}
}

// settleGame resolves every hand against the dealer, pays the player, and
// returns the rest of the pot to the dealer's bankroll. The pot is the game
// escrow plus all live stakes plus any insurance.
func settleGame(st *state.State, g *state.GameSession, now int64) error {
	cfg := st.Config

	pot := g.Bankroll
	var err error
	for i := range g.Hands {
		pot, err = addU64Checked(pot, g.Hands[i].Bet, "pot")
		if err != nil {
			return err
		}
	}
	pot, err = addU64Checked(pot, g.InsuranceBet, "pot")
	if err != nil {
		return err
	}

	var playerTotal uint64
	for i := range g.Hands {
		h := &g.Hands[i]
		var outcome bjrules.Outcome
		switch h.Status {
		case state.HandSurrendered:
			outcome = bjrules.OutcomeSurrender
		case state.HandBusted:
			outcome = bjrules.OutcomeLoss
		default:
			outcome = bjrules.CompareHands(h.Cards, g.DealerHand)
		}
		ret, err := handReturn(cfg, h, outcome)
		if err != nil {
			return err
		}
		playerTotal, err = addU64Checked(playerTotal, ret, "player total")
		if err != nil {
			return err
		}
		h.Outcome = outcome
		h.Status = state.HandSettled
	}

	return finishSettlement(st, g, pot, playerTotal, now)
}

// settlePeekedNatural ends the game when the peek finds a dealer blackjack:
// player naturals push, every other hand loses, and insurance pays.
func settlePeekedNatural(st *state.State, g *state.GameSession, now int64) error {
	cfg := st.Config

	pot := g.Bankroll
	var err error
	for i := range g.Hands {
		pot, err = addU64Checked(pot, g.Hands[i].Bet, "pot")
		if err != nil {
			return err
		}
	}
	pot, err = addU64Checked(pot, g.InsuranceBet, "pot")
	if err != nil {
		return err
	}

	var playerTotal uint64
	for i := range g.Hands {
		h := &g.Hands[i]
		outcome := bjrules.OutcomeLoss
		if bjrules.IsBlackjack(h.Cards) {
			outcome = bjrules.OutcomePush
		}
		ret, err := handReturn(cfg, h, outcome)
		if err != nil {
			return err
		}
		playerTotal, err = addU64Checked(playerTotal, ret, "player total")
		if err != nil {
			return err
		}
		h.Outcome = outcome
		h.Status = state.HandSettled
	}

	if g.InsuranceBet > 0 {
		premium, err := cfg.InsurancePayout.Payout(g.InsuranceBet)
		if err != nil {
			return err
		}
		insReturn, err := addU64Checked(g.InsuranceBet, premium, "insurance return")
		if err != nil {
			return err
		}
		playerTotal, err = addU64Checked(playerTotal, insReturn, "player total")
		if err != nil {
			return err
		}
	}

	return finishSettlement(st, g, pot, playerTotal, now)
}

// finishSettlement moves the money and freezes the session. The escrow
// multiple guarantees the pot covers the player, so a short pot means a
// bookkeeping bug and fails the tx.
func finishSettlement(st *state.State, g *state.GameSession, pot, playerTotal uint64, now int64) error {
	if playerTotal > pot {
		return fmt.Errorf("settlement short: pot=%d player=%d", pot, playerTotal)
	}
	if playerTotal > 0 {
		if err := st.Credit(g.Player, playerTotal); err != nil {
			return err
		}
	}
	if dealerCredit := pot - playerTotal; dealerCredit > 0 {
		if err := st.BankrollCredit(g.Dealer, dealerCredit); err != nil {
			return err
		}
	}
	g.Bankroll = 0
	g.Phase = state.PhaseSettled
	g.ClearReveals()
	g.LastActionTimestamp = now
	return nil
}
