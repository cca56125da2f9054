package bjrules

import (
	"fmt"
	"math"
)

// Outcome is the settlement result of a single hand.
type Outcome string

const (
	OutcomeBlackjack Outcome = "blackjack"
	OutcomeWin       Outcome = "win"
	OutcomePush      Outcome = "push"
	OutcomeLoss      Outcome = "loss"
	OutcomeSurrender Outcome = "surrender"
)

// PayoutRatio is winnings per unit bet, e.g. 3:2 for a natural.
type PayoutRatio struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

func NewPayoutRatio(num, den uint64) (PayoutRatio, error) {
	if den == 0 {
		return PayoutRatio{}, fmt.Errorf("payout ratio: zero denominator")
	}
	return PayoutRatio{Numerator: num, Denominator: den}, nil
}

func (r PayoutRatio) Validate() error {
	if r.Denominator == 0 {
		return fmt.Errorf("payout ratio: zero denominator")
	}
	return nil
}

// Payout computes bet * num / den with the multiplication checked for
// overflow. Integer division truncates toward zero.
func (r PayoutRatio) Payout(bet uint64) (uint64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if r.Numerator != 0 && bet > math.MaxUint64/r.Numerator {
		return 0, fmt.Errorf("payout ratio: overflow")
	}
	return bet * r.Numerator / r.Denominator, nil
}

// DoubleRestriction limits which two-card totals may double down.
type DoubleRestriction string

const (
	DoubleAny        DoubleRestriction = "any"
	DoubleHard9To11  DoubleRestriction = "hard_9_10_11"
	DoubleHard10To11 DoubleRestriction = "hard_10_11"
)

func ParseDoubleRestriction(s string) (DoubleRestriction, error) {
	switch DoubleRestriction(s) {
	case DoubleAny, DoubleHard9To11, DoubleHard10To11:
		return DoubleRestriction(s), nil
	default:
		return "", fmt.Errorf("double restriction: unknown %q", s)
	}
}

func (d DoubleRestriction) Validate() error {
	_, err := ParseDoubleRestriction(string(d))
	return err
}

// AllowsDouble evaluates the restriction against a two-card hand. The hard
// variants exclude soft totals entirely.
func (d DoubleRestriction) AllowsDouble(cards []uint8) bool {
	switch d {
	case DoubleAny:
		return true
	case DoubleHard9To11:
		return !IsSoft(cards) && Score(cards) >= 9 && Score(cards) <= 11
	case DoubleHard10To11:
		return !IsSoft(cards) && Score(cards) >= 10 && Score(cards) <= 11
	default:
		return false
	}
}

// CompareHands resolves a non-busted, non-surrendered player hand against the
// dealer's final hand. A natural outranks every other 21.
func CompareHands(player, dealer []uint8) Outcome {
	ps := Score(player)
	if ps > Blackjack {
		return OutcomeLoss
	}
	ds := Score(dealer)
	pBJ := IsBlackjack(player)
	dBJ := IsBlackjack(dealer)
	switch {
	case ds > Blackjack:
		if pBJ {
			return OutcomeBlackjack
		}
		return OutcomeWin
	case ps > ds:
		if pBJ {
			return OutcomeBlackjack
		}
		return OutcomeWin
	case ps < ds:
		return OutcomeLoss
	case pBJ && !dBJ:
		return OutcomeBlackjack
	case dBJ && !pBJ:
		return OutcomeLoss
	default:
		return OutcomePush
	}
}

// DealerMustHit implements the dealer's fixed drawing rule.
func DealerMustHit(cards []uint8, hitsSoft17 bool) bool {
	s := Score(cards)
	if s < 17 {
		return true
	}
	if s == 17 && hitsSoft17 && IsSoft(cards) {
		return true
	}
	return false
}
