package poker

import "fmt"

// HandRank represents the strength of a one-card hand against a board. Lower
// values are stronger.
type HandRank uint16

// HandType enumerates the hand categories ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
)

const (
	basePair     = 0
	baseHighCard = basePair + 13
)

// Type returns the category of the hand.
func (hr HandRank) Type() HandType {
	if hr < baseHighCard {
		return Pair
	}
	return HighCard
}

func (hr HandRank) String() string {
	switch hr.Type() {
	case Pair:
		return fmt.Sprintf("pair of %c", rankChars[12-int(hr-basePair)])
	default:
		return fmt.Sprintf("%c high", rankChars[12-int(hr-baseHighCard)])
	}
}

// Evaluate ranks a single hole card against the public board. Pairing any
// board card beats every unpaired hand; otherwise the higher hole rank wins.
func Evaluate(hole Card, board Hand) HandRank {
	rank := hole.Rank()
	if board.RankMask()&(1<<rank) != 0 {
		return HandRank(basePair + 12 - int(rank))
	}
	return HandRank(baseHighCard + 12 - int(rank))
}

// CompareHands returns 1 if a beats b, -1 if b beats a and 0 on a tie.
func CompareHands(a, b HandRank) int {
	if a < b {
		return 1
	} else if a > b {
		return -1
	}
	return 0
}
