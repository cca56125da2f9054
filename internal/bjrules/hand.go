// Package bjrules scores blackjack hands and evaluates table rules. Cards
// are ids 0..51; rank = id % 13 with 0 = ace and 9..12 the ten-valued cards.
package bjrules

const (
	NumRanks = 13
	NumCards = 52

	// Blackjack is the best possible total.
	Blackjack = 21
)

func Rank(card uint8) uint8 {
	return card % NumRanks
}

func IsAce(card uint8) bool {
	return Rank(card) == 0
}

// CardValue returns the hard value of a card, with aces counted as 11.
func CardValue(card uint8) uint8 {
	r := Rank(card)
	switch {
	case r == 0:
		return 11
	case r >= 9:
		return 10
	default:
		return r + 1
	}
}

// Score totals a hand, demoting aces from 11 to 1 while the total busts.
func Score(cards []uint8) uint8 {
	var total uint8
	var aces uint8
	for _, c := range cards {
		total += CardValue(c)
		if IsAce(c) {
			aces++
		}
	}
	for total > Blackjack && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsSoft reports whether the hand counts an ace as 11.
func IsSoft(cards []uint8) bool {
	var total uint8
	var aces uint8
	for _, c := range cards {
		total += CardValue(c)
		if IsAce(c) {
			aces++
		}
	}
	for total > Blackjack && aces > 0 {
		total -= 10
		aces--
	}
	return aces > 0
}

// IsBlackjack is a two-card 21. It outranks any other 21 at settlement.
func IsBlackjack(cards []uint8) bool {
	return len(cards) == 2 && Score(cards) == Blackjack
}

func IsBusted(cards []uint8) bool {
	return Score(cards) > Blackjack
}

// SameRank reports whether two cards form a splittable pair.
func SameRank(a, b uint8) bool {
	return Rank(a) == Rank(b)
}
