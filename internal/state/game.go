package state

import (
	"fmt"

	"juodzekas/chain/internal/bjrules"
	"juodzekas/chain/internal/jdzcrypto"
)

// BankrollMultiple is how many max bets a dealer escrows per game. It covers
// the worst case of a split into doubled hands plus blackjack premium.
const BankrollMultiple = 10

type Config struct {
	MinBet uint64 `json:"minBet"`
	MaxBet uint64 `json:"maxBet"`

	BlackjackPayout bjrules.PayoutRatio `json:"blackjackPayout"`
	StandardPayout  bjrules.PayoutRatio `json:"standardPayout"`
	InsurancePayout bjrules.PayoutRatio `json:"insurancePayout"`

	DealerHitsSoft17  bool                      `json:"dealerHitsSoft17"`
	DealerPeeks       bool                      `json:"dealerPeeks"`
	DoubleRestriction bjrules.DoubleRestriction `json:"doubleRestriction"`
	MaxSplits         uint32                    `json:"maxSplits"`
	CanSplitAces      bool                      `json:"canSplitAces"`
	CanHitSplitAces   bool                      `json:"canHitSplitAces"`
	SurrenderAllowed  bool                      `json:"surrenderAllowed"`

	// TimeoutSecs is the reveal-liveness window in seconds.
	TimeoutSecs uint64 `json:"timeoutSecs"`

	ShuffleVKeyID string `json:"shuffleVkeyId"`
	RevealVKeyID  string `json:"revealVkeyId"`
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if c.MinBet == 0 {
		return fmt.Errorf("config: minBet must be positive")
	}
	if c.MaxBet < c.MinBet {
		return fmt.Errorf("config: maxBet %d below minBet %d", c.MaxBet, c.MinBet)
	}
	if c.MaxBet > ^uint64(0)/BankrollMultiple {
		return fmt.Errorf("config: maxBet too large")
	}
	if err := c.BlackjackPayout.Validate(); err != nil {
		return fmt.Errorf("config: blackjackPayout: %w", err)
	}
	if err := c.StandardPayout.Validate(); err != nil {
		return fmt.Errorf("config: standardPayout: %w", err)
	}
	if err := c.InsurancePayout.Validate(); err != nil {
		return fmt.Errorf("config: insurancePayout: %w", err)
	}
	if err := c.DoubleRestriction.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.TimeoutSecs == 0 {
		return fmt.Errorf("config: timeoutSecs must be positive")
	}
	if c.ShuffleVKeyID == "" || c.RevealVKeyID == "" {
		return fmt.Errorf("config: vkey ids must be set")
	}
	return nil
}

// GameBankroll is the escrow a dealer locks when opening a game.
func (c *Config) GameBankroll() uint64 {
	return c.MaxBet * BankrollMultiple
}

type GamePhase string

const (
	PhaseWaitingForPlayer  GamePhase = "waitingForPlayer"
	PhaseWaitingForReveal  GamePhase = "waitingForReveal"
	PhaseOfferingInsurance GamePhase = "offeringInsurance"
	PhasePlayerTurn        GamePhase = "playerTurn"
	PhaseDealerTurn        GamePhase = "dealerTurn"
	PhaseSettled           GamePhase = "settled"
)

func ParseGamePhase(s string) (GamePhase, error) {
	switch GamePhase(s) {
	case PhaseWaitingForPlayer, PhaseWaitingForReveal, PhaseOfferingInsurance,
		PhasePlayerTurn, PhaseDealerTurn, PhaseSettled:
		return GamePhase(s), nil
	default:
		return "", fmt.Errorf("game phase: unknown %q", s)
	}
}

// ResumeTurn says whose turn resolution continues once a pending reveal batch
// completes.
type ResumeTurn string

const (
	ResumeNone   ResumeTurn = ""
	ResumePlayer ResumeTurn = "player"
	ResumeDealer ResumeTurn = "dealer"
)

type HandStatus string

const (
	HandActive      HandStatus = "active"
	HandStood       HandStatus = "stood"
	HandBusted      HandStatus = "busted"
	HandDoubled     HandStatus = "doubled"
	HandSurrendered HandStatus = "surrendered"
	HandSettled     HandStatus = "settled"
)

type Hand struct {
	Cards   []uint8         `json:"cards"`
	Bet     uint64          `json:"bet"`
	Status  HandStatus      `json:"status"`
	Outcome bjrules.Outcome `json:"outcome,omitempty"`
}

// Done reports whether the hand takes no further player decisions.
func (h *Hand) Done() bool {
	return h.Status != HandActive
}

// EncryptedCard is a stored ElGamal ciphertext, 32 bytes per component.
type EncryptedCard struct {
	C0 []byte `json:"c0"`
	C1 []byte `json:"c1"`
}

func (e EncryptedCard) Decode() (jdzcrypto.Ciphertext, error) {
	c0, err := jdzcrypto.PointFromBytesCanonical(e.C0)
	if err != nil {
		return jdzcrypto.Ciphertext{}, fmt.Errorf("c0: %w", err)
	}
	c1, err := jdzcrypto.PointFromBytesCanonical(e.C1)
	if err != nil {
		return jdzcrypto.Ciphertext{}, fmt.Errorf("c1: %w", err)
	}
	return jdzcrypto.Ciphertext{C0: c0, C1: c1}, nil
}

func EncodeCard(ct jdzcrypto.Ciphertext) EncryptedCard {
	return EncryptedCard{C0: ct.C0.Bytes(), C1: ct.C1.Bytes()}
}

// PendingReveal tracks decryption shares collected for one deck position.
type PendingReveal struct {
	CardIndex   uint32 `json:"cardIndex"`
	PlayerShare []byte `json:"playerShare,omitempty"`
	PlayerProof []byte `json:"playerProof,omitempty"`
	DealerShare []byte `json:"dealerShare,omitempty"`
	DealerProof []byte `json:"dealerProof,omitempty"`
}

func (p *PendingReveal) Complete() bool {
	return len(p.PlayerShare) != 0 && len(p.DealerShare) != 0
}

type GameSession struct {
	ID     uint64 `json:"id"`
	Dealer string `json:"dealer"`
	Player string `json:"player,omitempty"`

	Bet      uint64 `json:"bet,omitempty"`
	Bankroll uint64 `json:"bankroll"`

	DealerPubKey []byte `json:"dealerPubKey"`
	PlayerPubKey []byte `json:"playerPubKey,omitempty"`

	Deck []EncryptedCard `json:"deck"`

	Hands            []Hand  `json:"hands,omitempty"`
	CurrentHandIndex uint32  `json:"currentHandIndex,omitempty"`
	DealerHand       []uint8 `json:"dealerHand,omitempty"`

	Phase GamePhase `json:"phase"`

	// RevealRequests and Resume are only meaningful in PhaseWaitingForReveal.
	RevealRequests []uint32        `json:"revealRequests,omitempty"`
	Resume         ResumeTurn      `json:"resume,omitempty"`
	PendingReveals []PendingReveal `json:"pendingReveals,omitempty"`

	// LastCardIndex is the next undealt deck position.
	LastCardIndex uint32 `json:"lastCardIndex,omitempty"`

	LastActionTimestamp int64 `json:"lastActionTimestamp,omitempty"`

	SplitCount   uint32 `json:"splitCount,omitempty"`
	InsuranceBet uint64 `json:"insuranceBet,omitempty"`
	DealerPeeked bool   `json:"dealerPeeked,omitempty"`
}

// PendingRevealFor returns the tracker for a requested deck position, or nil
// if the position was not requested.
func (g *GameSession) PendingRevealFor(cardIndex uint32) *PendingReveal {
	for i := range g.PendingReveals {
		if g.PendingReveals[i].CardIndex == cardIndex {
			return &g.PendingReveals[i]
		}
	}
	return nil
}

// AllRevealsComplete reports whether every requested position has both
// shares.
func (g *GameSession) AllRevealsComplete() bool {
	for i := range g.PendingReveals {
		if !g.PendingReveals[i].Complete() {
			return false
		}
	}
	return len(g.PendingReveals) > 0
}

// ActiveHand returns the hand awaiting a player decision.
func (g *GameSession) ActiveHand() (*Hand, error) {
	if int(g.CurrentHandIndex) >= len(g.Hands) {
		return nil, fmt.Errorf("game %d: no active hand", g.ID)
	}
	return &g.Hands[g.CurrentHandIndex], nil
}

// RequestReveals moves the game into the reveal phase for the given deck
// positions.
func (g *GameSession) RequestReveals(indices []uint32, resume ResumeTurn, now int64) {
	g.Phase = PhaseWaitingForReveal
	g.RevealRequests = indices
	g.Resume = resume
	g.PendingReveals = make([]PendingReveal, len(indices))
	for i, idx := range indices {
		g.PendingReveals[i] = PendingReveal{CardIndex: idx}
	}
	g.LastActionTimestamp = now
}

// ClearReveals resets reveal tracking after a batch resolves.
func (g *GameSession) ClearReveals() {
	g.RevealRequests = nil
	g.Resume = ResumeNone
	g.PendingReveals = nil
}
