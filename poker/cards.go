package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Card represents a single card as a bit position in a uint64.
// Layout: [13 spades][13 hearts][13 diamonds][13 clubs]
type Card uint64

// Hand is a set of cards, one bit per card.
type Hand uint64

// Suit constants
const (
	Clubs    uint8 = 0
	Diamonds uint8 = 1
	Hearts   uint8 = 2
	Spades   uint8 = 3
)

// Rank constants (0-12 for 2-A)
const (
	Two   uint8 = 0
	Three uint8 = 1
	Four  uint8 = 2
	Five  uint8 = 3
	Six   uint8 = 4
	Seven uint8 = 5
	Eight uint8 = 6
	Nine  uint8 = 7
	Ten   uint8 = 8
	Jack  uint8 = 9
	Queen uint8 = 10
	King  uint8 = 11
	Ace   uint8 = 12
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
)

// NewCard creates a card from rank and suit.
func NewCard(rank, suit uint8) Card {
	offset := suit*13 + rank
	return Card(1) << offset
}

// BitPosition returns which bit this card occupies (0-51), or 255 for the zero card.
func (c Card) BitPosition() uint8 {
	if c == 0 {
		return 255
	}
	return uint8(bits.TrailingZeros64(uint64(c)))
}

// Rank returns the rank of the card (0-12).
func (c Card) Rank() uint8 {
	pos := c.BitPosition()
	if pos == 255 {
		return 255
	}
	return pos % 13
}

// Suit returns the suit of the card (0-3).
func (c Card) Suit() uint8 {
	pos := c.BitPosition()
	if pos == 255 {
		return 255
	}
	return pos / 13
}

// String returns the two character form, e.g. "Kh".
func (c Card) String() string {
	rank := c.Rank()
	suit := c.Suit()
	if rank > 12 || suit > 3 {
		return "??"
	}
	return string(rankChars[rank]) + string(suitChars[suit])
}

// ParseRank parses a single rank character.
func ParseRank(ch byte) (uint8, error) {
	idx := strings.IndexByte(rankChars, upper(ch))
	if idx < 0 {
		return 0, fmt.Errorf("invalid rank: %c", ch)
	}
	return uint8(idx), nil
}

// ParseSuit parses a single suit character.
func ParseSuit(ch byte) (uint8, error) {
	idx := strings.IndexByte(suitChars, lower(ch))
	if idx < 0 {
		return 0, fmt.Errorf("invalid suit: %c", ch)
	}
	return uint8(idx), nil
}

// ParseCard parses a string like "Kh" into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card string: %s", s)
	}
	rank, err := ParseRank(s[0])
	if err != nil {
		return 0, err
	}
	suit, err := ParseSuit(s[1])
	if err != nil {
		return 0, err
	}
	return NewCard(rank, suit), nil
}

// ParseCards parses a concatenated card string such as "KhQs".
func ParseCards(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card list: %q", s)
	}
	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// NewHand creates a hand from multiple cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard checks if the hand contains a specific card.
func (h Hand) HasCard(c Card) bool {
	return (h & Hand(c)) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// SuitMask returns the cards of a specific suit as a rank bitmask.
func (h Hand) SuitMask(suit uint8) uint16 {
	offset := suit * 13
	return uint16((h >> offset) & 0x1FFF)
}

// RankMask returns a bitmask of the ranks present in the hand.
func (h Hand) RankMask() uint16 {
	mask := uint16(0)
	for suit := uint8(0); suit < 4; suit++ {
		mask |= h.SuitMask(suit)
	}
	return mask
}

// Cards lists the hand's cards in bit order.
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.CountCards())
	for rest := uint64(h); rest != 0; rest &= rest - 1 {
		out = append(out, Card(rest&-rest))
	}
	return out
}

func (h Hand) String() string {
	var b strings.Builder
	for _, c := range h.Cards() {
		b.WriteString(c.String())
	}
	return b.String()
}

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 'A'
	}
	return ch
}

func lower(ch byte) byte {
	if ch >= 'A' && ch <= 'Z' {
		return ch - 'A' + 'a'
	}
	return ch
}
