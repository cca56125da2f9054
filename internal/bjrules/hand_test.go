package bjrules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Card ids by rank within the first suit: 0=A, 1=2, ..., 8=9, 9=10, 10=J,
// 11=Q, 12=K.
const (
	ace   = 0
	two   = 1
	five  = 4
	six   = 5
	seven = 6
	eight = 7
	nine  = 8
	ten   = 9
	jack  = 10
	king  = 12
)

func TestScoreAceDemotion(t *testing.T) {
	require.Equal(t, uint8(21), Score([]uint8{ace, king}))
	require.Equal(t, uint8(12), Score([]uint8{ace, ace}))
	require.Equal(t, uint8(21), Score([]uint8{ace, nine, ace}))
	require.Equal(t, uint8(13), Score([]uint8{ace, ace, ace, ten}))
	require.Equal(t, uint8(25), Score([]uint8{king, jack, five}))
}

func TestSoftHands(t *testing.T) {
	require.True(t, IsSoft([]uint8{ace, six}))
	require.False(t, IsSoft([]uint8{ace, six, ten}))
	require.False(t, IsSoft([]uint8{ten, seven}))
	require.True(t, IsSoft([]uint8{ace, ace}))
}

func TestBlackjackDetection(t *testing.T) {
	require.True(t, IsBlackjack([]uint8{ace, king}))
	require.True(t, IsBlackjack([]uint8{ten, ace}))
	require.False(t, IsBlackjack([]uint8{seven, seven, seven}))
	require.False(t, IsBlackjack([]uint8{ten, ten}))
}

func TestCrossSuitRanks(t *testing.T) {
	// 13 = ace of the second suit, 22 = ten of the second suit.
	require.True(t, IsAce(13))
	require.Equal(t, uint8(10), CardValue(22))
	require.True(t, SameRank(9, 22))
	require.False(t, SameRank(9, 10))
}

func TestCompareHands(t *testing.T) {
	cases := []struct {
		name   string
		player []uint8
		dealer []uint8
		want   Outcome
	}{
		{"player higher", []uint8{ten, nine}, []uint8{ten, eight}, OutcomeWin},
		{"dealer higher", []uint8{ten, six}, []uint8{ten, eight}, OutcomeLoss},
		{"equal 18", []uint8{ten, eight}, []uint8{nine, nine}, OutcomePush},
		{"dealer busts", []uint8{ten, six}, []uint8{ten, six, king}, OutcomeWin},
		{"player busts", []uint8{ten, six, king}, []uint8{ten, seven}, OutcomeLoss},
		{"natural beats three-card 21", []uint8{ace, king}, []uint8{seven, seven, seven}, OutcomeBlackjack},
		{"three-card 21 loses to natural", []uint8{seven, seven, seven}, []uint8{ace, king}, OutcomeLoss},
		{"natural vs natural", []uint8{ace, king}, []uint8{ace, ten}, OutcomePush},
		{"natural vs dealer bust", []uint8{ace, king}, []uint8{ten, six, king}, OutcomeBlackjack},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CompareHands(tc.player, tc.dealer))
		})
	}
}

func TestDealerMustHit(t *testing.T) {
	require.True(t, DealerMustHit([]uint8{ten, six}, false))
	require.False(t, DealerMustHit([]uint8{ten, seven}, false))
	// Soft 17: ace + six.
	require.False(t, DealerMustHit([]uint8{ace, six}, false))
	require.True(t, DealerMustHit([]uint8{ace, six}, true))
	// Hard 17 never hits.
	require.False(t, DealerMustHit([]uint8{ten, six, ace}, true))
}
