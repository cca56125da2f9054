package app

import (
	"fmt"
	"sort"

	abci "github.com/cometbft/cometbft/abci/types"

	"juodzekas/chain/internal/bjrules"
	"juodzekas/chain/internal/codec"
	"juodzekas/chain/internal/jdzcrypto"
	"juodzekas/chain/internal/jdzshuffle"
	"juodzekas/chain/internal/jdzverify"
	"juodzekas/chain/internal/state"
)

// initialDealIndices are the deck positions revealed on join: two player
// cards and the dealer up-card. Position 3 is the hole card.
var initialDealIndices = []uint32{0, 1, 2}

const holeCardIndex uint32 = 3

func initConfig(st *state.State, msg codec.BlackjackInitConfigTx) (*abci.ExecTxResult, error) {
	if st.Config != nil && len(st.Games) > 0 {
		return nil, fmt.Errorf("%w: config is frozen while games exist", ErrConfigInvalid)
	}
	dr, err := bjrules.ParseDoubleRestriction(msg.DoubleRestriction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	cfg := &state.Config{
		MinBet:            msg.MinBet,
		MaxBet:            msg.MaxBet,
		BlackjackPayout:   bjrules.PayoutRatio{Numerator: msg.BlackjackPayout.Numerator, Denominator: msg.BlackjackPayout.Denominator},
		StandardPayout:    bjrules.PayoutRatio{Numerator: msg.StandardPayout.Numerator, Denominator: msg.StandardPayout.Denominator},
		InsurancePayout:   bjrules.PayoutRatio{Numerator: msg.InsurancePayout.Numerator, Denominator: msg.InsurancePayout.Denominator},
		DealerHitsSoft17:  msg.DealerHitsSoft17,
		DealerPeeks:       msg.DealerPeeks,
		DoubleRestriction: dr,
		MaxSplits:         msg.MaxSplits,
		CanSplitAces:      msg.CanSplitAces,
		CanHitSplitAces:   msg.CanHitSplitAces,
		SurrenderAllowed:  msg.SurrenderAllowed,
		TimeoutSecs:       msg.TimeoutSecs,
		ShuffleVKeyID:     msg.ShuffleVKeyID,
		RevealVKeyID:      msg.RevealVKeyID,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	st.Config = cfg
	return okEvent("ConfigInitialized", map[string]string{
		"sender": msg.Sender,
		"minBet": fmt.Sprintf("%d", cfg.MinBet),
		"maxBet": fmt.Sprintf("%d", cfg.MaxBet),
	}), nil
}

// baseDeck is the trivially-encrypted canonical deck every shuffle chain
// starts from: C0 is the identity, C1 the bare card point. It carries no
// randomness, so any node can recompute it.
func baseDeck() []jdzcrypto.Ciphertext {
	out := make([]jdzcrypto.Ciphertext, jdzcrypto.NumCards)
	for i := range out {
		m, err := jdzcrypto.CardPoint(uint8(i))
		if err != nil {
			panic(err) // indices are in range by construction
		}
		out[i] = jdzcrypto.Ciphertext{C0: jdzcrypto.PointIdentity(), C1: m}
	}
	return out
}

func decodeDeck(raw [][]byte) ([]jdzcrypto.Ciphertext, error) {
	if len(raw) != jdzcrypto.NumCards {
		return nil, fmt.Errorf("%w: got %d cards", ErrDeckLengthInvalid, len(raw))
	}
	out := make([]jdzcrypto.Ciphertext, len(raw))
	for i, b := range raw {
		ct, err := jdzshuffle.DecodeCiphertext(b)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i, err)
		}
		out[i] = ct
	}
	return out, nil
}

func decksEqual(a, b []jdzcrypto.Ciphertext) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !jdzcrypto.PointEq(a[i].C0, b[i].C0) || !jdzcrypto.PointEq(a[i].C1, b[i].C1) {
			return false
		}
	}
	return true
}

func storeDeck(deck []jdzcrypto.Ciphertext) []state.EncryptedCard {
	out := make([]state.EncryptedCard, len(deck))
	for i, ct := range deck {
		out[i] = state.EncodeCard(ct)
	}
	return out
}

// checkShuffleProof validates a shuffle proof against what the chain already
// knows: the expected input deck, the expected aggregate key, and the deck
// the sender claims as output.
func checkShuffleProof(v jdzverify.Verifier, vkeyID string, proof []byte, publicInputs []string,
	wantIn []jdzcrypto.Ciphertext, wantPK jdzcrypto.Point, wantOut []jdzcrypto.Ciphertext) error {

	pub, err := jdzshuffle.ParseShufflePublicInputs(publicInputs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	pk, err := pub.AggregateKey()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !jdzcrypto.PointEq(pk, wantPK) {
		return fmt.Errorf("%w: aggregate key mismatch", ErrInvalidProof)
	}
	deckIn, deckOut, err := pub.Decks()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !decksEqual(deckIn, wantIn) {
		return fmt.Errorf("%w: input deck mismatch", ErrInvalidProof)
	}
	if !decksEqual(deckOut, wantOut) {
		return fmt.Errorf("%w: output deck mismatch", ErrInvalidProof)
	}
	ok, err := v.Verify(vkeyID, proof, publicInputs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !ok {
		return fmt.Errorf("%w: shuffle proof rejected", ErrInvalidProof)
	}
	return nil
}

func createGame(st *state.State, v jdzverify.Verifier, msg codec.BlackjackCreateGameTx, now int64) (*abci.ExecTxResult, error) {
	cfg := st.Config
	if cfg == nil {
		return nil, fmt.Errorf("%w: not initialized", ErrConfigInvalid)
	}
	dealerPK, err := jdzcrypto.PointFromBytesCanonical(msg.PubKey)
	if err != nil {
		return nil, fmt.Errorf("dealer pubkey: %w", err)
	}
	deck, err := decodeDeck(msg.ShuffledDeck)
	if err != nil {
		return nil, err
	}
	if err := checkShuffleProof(v, cfg.ShuffleVKeyID, msg.Proof, msg.PublicInputs, baseDeck(), dealerPK, deck); err != nil {
		return nil, err
	}

	escrow := cfg.GameBankroll()
	if err := st.BankrollDebit(msg.Dealer, escrow); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientBankroll, err)
	}

	id := st.NextGameID
	st.NextGameID++
	st.Games[id] = &state.GameSession{
		ID:                  id,
		Dealer:              msg.Dealer,
		Bankroll:            escrow,
		DealerPubKey:        append([]byte(nil), msg.PubKey...),
		Deck:                storeDeck(deck),
		Phase:               state.PhaseWaitingForPlayer,
		LastActionTimestamp: now,
	}
	return okEvent("GameCreated", map[string]string{
		"gameId": fmt.Sprintf("%d", id),
		"dealer": msg.Dealer,
		"escrow": fmt.Sprintf("%d", escrow),
	}), nil
}

// oldestWaitingGame returns the lowest-id game still waiting for a player.
func oldestWaitingGame(st *state.State) *state.GameSession {
	ids := make([]uint64, 0, len(st.Games))
	for id, g := range st.Games {
		if g.Phase == state.PhaseWaitingForPlayer {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return st.Games[ids[0]]
}

func joinGame(st *state.State, v jdzverify.Verifier, msg codec.BlackjackJoinGameTx, now int64) (*abci.ExecTxResult, error) {
	cfg := st.Config
	if cfg == nil {
		return nil, fmt.Errorf("%w: not initialized", ErrConfigInvalid)
	}
	g := oldestWaitingGame(st)
	if g == nil {
		return nil, fmt.Errorf("%w: no game waiting for a player", ErrGameNotFound)
	}
	if msg.Player == g.Dealer {
		return nil, fmt.Errorf("%w: dealer cannot join own game", ErrUnauthorized)
	}
	if msg.Bet < cfg.MinBet || msg.Bet > cfg.MaxBet {
		return nil, fmt.Errorf("%w: bet=%d min=%d max=%d", ErrBetOutOfRange, msg.Bet, cfg.MinBet, cfg.MaxBet)
	}
	playerPK, err := jdzcrypto.PointFromBytesCanonical(msg.PubKey)
	if err != nil {
		return nil, fmt.Errorf("player pubkey: %w", err)
	}
	dealerPK, err := jdzcrypto.PointFromBytesCanonical(g.DealerPubKey)
	if err != nil {
		return nil, fmt.Errorf("stored dealer pubkey: %w", err)
	}
	deck, err := decodeDeck(msg.ShuffledDeck)
	if err != nil {
		return nil, err
	}
	storedDeck := make([]jdzcrypto.Ciphertext, len(g.Deck))
	for i, c := range g.Deck {
		ct, err := c.Decode()
		if err != nil {
			return nil, fmt.Errorf("stored card %d: %w", i, err)
		}
		storedDeck[i] = ct
	}
	// The stored deck is encrypted under the dealer's key alone. The player
	// folds their key into it (c1 += sk·c0, proven per position) and shuffles
	// the absorbed deck under the aggregate key; only then does combining the
	// two decryption shares open a card.
	pub, err := jdzshuffle.ParseShufflePublicInputs(msg.PublicInputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	absorbed, _, err := pub.Decks()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	ok, err := jdzshuffle.VerifyKeyAbsorption(playerPK, storedDeck, absorbed, msg.AbsorbProofs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: key absorption rejected", ErrInvalidProof)
	}
	aggPK := jdzcrypto.AggregateKeys(dealerPK, playerPK)
	if err := checkShuffleProof(v, cfg.ShuffleVKeyID, msg.Proof, msg.PublicInputs, absorbed, aggPK, deck); err != nil {
		return nil, err
	}

	if err := st.Debit(msg.Player, msg.Bet); err != nil {
		return nil, err
	}

	g.Player = msg.Player
	g.Bet = msg.Bet
	g.PlayerPubKey = append([]byte(nil), msg.PubKey...)
	g.Deck = storeDeck(deck)
	g.Hands = []state.Hand{{Bet: msg.Bet, Status: state.HandActive}}
	g.CurrentHandIndex = 0
	g.LastCardIndex = holeCardIndex + 1
	g.RequestReveals(initialDealIndices, state.ResumePlayer, now)

	return okEvent("GameJoined", map[string]string{
		"gameId": fmt.Sprintf("%d", g.ID),
		"player": msg.Player,
		"bet":    fmt.Sprintf("%d", msg.Bet),
	}), nil
}

func cancelGame(st *state.State, msg codec.BlackjackCancelGameTx) (*abci.ExecTxResult, error) {
	g, ok := st.Games[msg.GameID]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrGameNotFound, msg.GameID)
	}
	if g.Dealer != msg.Dealer {
		return nil, fmt.Errorf("%w: not the dealer of game %d", ErrUnauthorized, msg.GameID)
	}
	if g.Phase != state.PhaseWaitingForPlayer {
		return nil, fmt.Errorf("%w: game %d is %s", ErrInvalidPhase, msg.GameID, g.Phase)
	}
	if err := st.BankrollCredit(msg.Dealer, g.Bankroll); err != nil {
		return nil, err
	}
	delete(st.Games, msg.GameID)
	return okEvent("GameCancelled", map[string]string{
		"gameId": fmt.Sprintf("%d", msg.GameID),
		"dealer": msg.Dealer,
	}), nil
}

func sweepSettled(st *state.State, msg codec.BlackjackSweepSettledTx) (*abci.ExecTxResult, error) {
	ids := msg.GameIDs
	if len(ids) == 0 {
		for id, g := range st.Games {
			if g.Phase == state.PhaseSettled {
				ids = append(ids, id)
			}
		}
	} else {
		for _, id := range ids {
			g, ok := st.Games[id]
			if !ok {
				return nil, fmt.Errorf("%w: id=%d", ErrGameNotFound, id)
			}
			if g.Phase != state.PhaseSettled {
				return nil, fmt.Errorf("%w: game %d is %s", ErrInvalidPhase, id, g.Phase)
			}
		}
	}
	for _, id := range ids {
		delete(st.Games, id)
	}
	return okEvent("SettledGamesSwept", map[string]string{
		"caller": msg.Caller,
		"count":  fmt.Sprintf("%d", len(ids)),
	}), nil
}

func depositBankroll(st *state.State, msg codec.BlackjackDepositBankrollTx) (*abci.ExecTxResult, error) {
	if msg.Amount == 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}
	if err := st.Debit(msg.Dealer, msg.Amount); err != nil {
		return nil, err
	}
	if err := st.BankrollCredit(msg.Dealer, msg.Amount); err != nil {
		return nil, err
	}
	return okEvent("BankrollDeposited", map[string]string{
		"dealer": msg.Dealer,
		"amount": fmt.Sprintf("%d", msg.Amount),
	}), nil
}

func withdrawBankroll(st *state.State, msg codec.BlackjackWithdrawBankrollTx) (*abci.ExecTxResult, error) {
	if st.DealerHasOpenGames(msg.Dealer) {
		return nil, fmt.Errorf("%w: dealer %s has unsettled games", ErrInvalidPhase, msg.Dealer)
	}
	amount := msg.Amount
	if amount == 0 {
		amount = st.Bankroll(msg.Dealer)
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: nothing to withdraw", ErrInsufficientBankroll)
	}
	if err := st.BankrollDebit(msg.Dealer, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientBankroll, err)
	}
	if err := st.Credit(msg.Dealer, amount); err != nil {
		return nil, err
	}
	return okEvent("BankrollWithdrawn", map[string]string{
		"dealer": msg.Dealer,
		"amount": fmt.Sprintf("%d", amount),
	}), nil
}
