package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the v0 transaction container.
//
// CometBFT transactions are opaque bytes. For v0 localnet we use JSON-encoded
// txs to move fast; this is NOT the final protocol encoding.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// v0 tx auth (optional):
	// - Nonce: included in the signed message for replay protection (must increase per signer).
	// - Signer: logical signer id.
	// - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
	//
	// Note: This is still a scaffold; it is NOT the final protocol encoding.
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Bank ----

type BankMintTx struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type BankSendTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ---- Auth (v0) ----

// v0: account pubkey registration for tx authentication.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Blackjack ----

type PayoutRatioMsg struct {
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
}

// BlackjackInitConfigTx installs the chain-wide table rules. Accepted only
// while no games exist.
type BlackjackInitConfigTx struct {
	Sender string `json:"sender"`

	MinBet uint64 `json:"minBet"`
	MaxBet uint64 `json:"maxBet"`

	BlackjackPayout PayoutRatioMsg `json:"blackjackPayout"`
	StandardPayout  PayoutRatioMsg `json:"standardPayout"`
	InsurancePayout PayoutRatioMsg `json:"insurancePayout"`

	DealerHitsSoft17  bool   `json:"dealerHitsSoft17"`
	DealerPeeks       bool   `json:"dealerPeeks"`
	DoubleRestriction string `json:"doubleRestriction"`
	MaxSplits         uint32 `json:"maxSplits"`
	CanSplitAces      bool   `json:"canSplitAces"`
	CanHitSplitAces   bool   `json:"canHitSplitAces"`
	SurrenderAllowed  bool   `json:"surrenderAllowed"`

	TimeoutSecs uint64 `json:"timeoutSecs"`

	ShuffleVKeyID string `json:"shuffleVkeyId"`
	RevealVKeyID  string `json:"revealVkeyId"`
}

// BlackjackCreateGameTx opens a game: the dealer posts its public key, a
// shuffled encrypted deck, and a shuffle proof. Deck cards are 64-byte
// ciphertexts (c0||c1).
type BlackjackCreateGameTx struct {
	Dealer       string   `json:"dealer"`
	PubKey       []byte   `json:"pubKey"` // base64 (32-byte curve point)
	ShuffledDeck [][]byte `json:"shuffledDeck"`
	Proof        []byte   `json:"proof"`
	PublicInputs []string `json:"publicInputs"`
}

// BlackjackJoinGameTx seats the player at the oldest waiting game: bet,
// player key, and the player's re-shuffle of the dealer's deck under the
// aggregate key. The dealer's deck is encrypted under the dealer's key
// alone, so before shuffling the player folds their own key into every
// ciphertext (c1 += sk·c0); AbsorbProofs carries one Chaum-Pedersen proof
// per position showing the folded term matches PubKey. The shuffle proof's
// input deck is the absorbed deck.
type BlackjackJoinGameTx struct {
	Player       string   `json:"player"`
	Bet          uint64   `json:"bet"`
	PubKey       []byte   `json:"pubKey"` // base64 (32-byte curve point)
	ShuffledDeck [][]byte `json:"shuffledDeck"`
	Proof        []byte   `json:"proof"`
	PublicInputs []string `json:"publicInputs"`
	AbsorbProofs [][]byte `json:"absorbProofs"`
}

type BlackjackHitTx struct {
	Player string `json:"player"`
	GameID uint64 `json:"gameId"`
}

type BlackjackStandTx struct {
	Player string `json:"player"`
	GameID uint64 `json:"gameId"`
}

type BlackjackDoubleDownTx struct {
	Player string `json:"player"`
	GameID uint64 `json:"gameId"`
}

type BlackjackSplitTx struct {
	Player string `json:"player"`
	GameID uint64 `json:"gameId"`
}

type BlackjackSurrenderTx struct {
	Player string `json:"player"`
	GameID uint64 `json:"gameId"`
}

type BlackjackInsuranceTx struct {
	Player string `json:"player"`
	GameID uint64 `json:"gameId"`
}

type BlackjackDeclineInsuranceTx struct {
	Player string `json:"player"`
	GameID uint64 `json:"gameId"`
}

// BlackjackSubmitRevealTx delivers one party's decryption share for a
// requested deck position, with a reveal proof bound to publicInputs.
type BlackjackSubmitRevealTx struct {
	Sender       string   `json:"sender"`
	GameID       uint64   `json:"gameId"`
	CardIndex    uint32   `json:"cardIndex"`
	Share        []byte   `json:"share"` // base64 (32-byte curve point)
	Proof        []byte   `json:"proof"`
	PublicInputs []string `json:"publicInputs"`
}

// BlackjackClaimTimeoutTx forfeits a stalled game to the party that is not
// blocking it. Anyone may call it.
type BlackjackClaimTimeoutTx struct {
	Caller string `json:"caller"`
	GameID uint64 `json:"gameId"`
}

// BlackjackCancelGameTx lets the dealer reclaim the escrow of a game no
// player has joined.
type BlackjackCancelGameTx struct {
	Dealer string `json:"dealer"`
	GameID uint64 `json:"gameId"`
}

// BlackjackSweepSettledTx prunes settled games from state.
type BlackjackSweepSettledTx struct {
	Caller  string   `json:"caller"`
	GameIDs []uint64 `json:"gameIds,omitempty"` // empty = all settled games
}

type BlackjackDepositBankrollTx struct {
	Dealer string `json:"dealer"`
	Amount uint64 `json:"amount"`
}

// BlackjackWithdrawBankrollTx moves ledger funds back to the dealer's bank
// account. Amount 0 withdraws everything. Blocked while the dealer has
// unsettled games.
type BlackjackWithdrawBankrollTx struct {
	Dealer string `json:"dealer"`
	Amount uint64 `json:"amount,omitempty"`
}
