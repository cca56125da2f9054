package app

import "errors"

// Transaction failure taxonomy. Handlers wrap these with context; tests and
// clients match with errors.Is on the log text prefixing.
var (
	ErrInvalidProof         = errors.New("invalid proof")
	ErrInvalidPhase         = errors.New("invalid phase")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrAlreadyRevealed      = errors.New("already revealed")
	ErrCardIndexUnexpected  = errors.New("unexpected card index")
	ErrDeckLengthInvalid    = errors.New("invalid deck length")
	ErrBetOutOfRange        = errors.New("bet out of range")
	ErrInsufficientBankroll = errors.New("insufficient bankroll")
	ErrAlreadySettled       = errors.New("already settled")
	ErrArithmeticOverflow   = errors.New("arithmetic overflow")
	ErrConfigInvalid        = errors.New("invalid config")
	ErrProtocolFault        = errors.New("protocol fault")
	ErrDeckExhausted        = errors.New("deck exhausted")
	ErrGameNotFound         = errors.New("game not found")
)
