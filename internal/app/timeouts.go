package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"juodzekas/chain/internal/bjrules"
	"juodzekas/chain/internal/codec"
	"juodzekas/chain/internal/state"
)

// timedOutParty names who is blocking a stalled game: during a reveal the
// party with more missing shares, ties going to whoever's turn the batch
// resumes; decision phases are always on the player.
func timedOutParty(g *state.GameSession) (string, error) {
	switch g.Phase {
	case state.PhaseWaitingForReveal:
		var playerMissing, dealerMissing int
		for i := range g.PendingReveals {
			if len(g.PendingReveals[i].PlayerShare) == 0 {
				playerMissing++
			}
			if len(g.PendingReveals[i].DealerShare) == 0 {
				dealerMissing++
			}
		}
		switch {
		case playerMissing > dealerMissing:
			return g.Player, nil
		case dealerMissing > playerMissing:
			return g.Dealer, nil
		case g.Resume == state.ResumeDealer:
			return g.Dealer, nil
		default:
			return g.Player, nil
		}
	case state.PhaseOfferingInsurance, state.PhasePlayerTurn:
		return g.Player, nil
	default:
		return "", fmt.Errorf("%w: game %d is %s", ErrInvalidPhase, g.ID, g.Phase)
	}
}

// claimTimeout forfeits a stalled game against whoever is blocking it: every
// unsettled hand settles as an outright win for the other party, busted hands
// stay lost, and the pot remainder returns to the dealer bankroll as in any
// settlement. Anyone may call it once the liveness window elapses.
func claimTimeout(st *state.State, msg codec.BlackjackClaimTimeoutTx, now int64) (*abci.ExecTxResult, error) {
	cfg := st.Config
	if cfg == nil {
		return nil, fmt.Errorf("%w: not initialized", ErrConfigInvalid)
	}
	g, ok := st.Games[msg.GameID]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrGameNotFound, msg.GameID)
	}
	if g.Phase == state.PhaseSettled {
		return nil, fmt.Errorf("%w: game %d", ErrAlreadySettled, msg.GameID)
	}
	if g.Phase == state.PhaseWaitingForPlayer {
		return nil, fmt.Errorf("%w: game %d has no player; use cancel_game", ErrInvalidPhase, msg.GameID)
	}
	deadline, err := addInt64AndU64Checked(g.LastActionTimestamp, cfg.TimeoutSecs, "timeout deadline")
	if err != nil {
		return nil, err
	}
	if now < deadline {
		return nil, fmt.Errorf("game %d not timed out: now=%d deadline=%d", msg.GameID, now, deadline)
	}
	blocked, err := timedOutParty(g)
	if err != nil {
		return nil, err
	}

	pot := g.Bankroll
	for i := range g.Hands {
		pot, err = addU64Checked(pot, g.Hands[i].Bet, "pot")
		if err != nil {
			return nil, err
		}
	}
	pot, err = addU64Checked(pot, g.InsuranceBet, "pot")
	if err != nil {
		return nil, err
	}

	var playerTotal uint64
	for i := range g.Hands {
		h := &g.Hands[i]
		outcome := bjrules.OutcomeLoss
		if blocked == g.Dealer && h.Status != state.HandBusted {
			outcome = bjrules.OutcomeWin
		}
		ret, err := handReturn(cfg, h, outcome)
		if err != nil {
			return nil, err
		}
		playerTotal, err = addU64Checked(playerTotal, ret, "player total")
		if err != nil {
			return nil, err
		}
		h.Outcome = outcome
		h.Status = state.HandSettled
	}
	if blocked == g.Dealer {
		playerTotal, err = addU64Checked(playerTotal, g.InsuranceBet, "player total")
		if err != nil {
			return nil, err
		}
	}
	if err := finishSettlement(st, g, pot, playerTotal, now); err != nil {
		return nil, err
	}
	return okEvent("TimeoutClaimed", map[string]string{
		"gameId":    fmt.Sprintf("%d", msg.GameID),
		"caller":    msg.Caller,
		"forfeiter": blocked,
	}), nil
}
