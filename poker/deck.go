package poker

import (
	"errors"
	"fmt"
)

// Deck is an ordered, possibly short, deck of cards. Each card has a stable
// index which doubles as the private hand index when every hand is one card.
type Deck struct {
	cards []Card
	index [64]int16
}

// LeducRanks and LeducSuits describe the six card deck used by default.
var (
	LeducRanks = []uint8{Jack, Queen, King}
	LeducSuits = []uint8{Spades, Hearts}
)

// NewDeck builds a deck containing every rank/suit combination, ordered by
// rank then suit.
func NewDeck(ranks, suits []uint8) (Deck, error) {
	if len(ranks) == 0 || len(suits) == 0 {
		return Deck{}, errors.New("deck needs at least one rank and one suit")
	}
	d := Deck{cards: make([]Card, 0, len(ranks)*len(suits))}
	for i := range d.index {
		d.index[i] = -1
	}
	for _, r := range ranks {
		if r > Ace {
			return Deck{}, fmt.Errorf("invalid rank %d", r)
		}
		for _, s := range suits {
			if s > Spades {
				return Deck{}, fmt.Errorf("invalid suit %d", s)
			}
			c := NewCard(r, s)
			if d.index[c.BitPosition()] >= 0 {
				return Deck{}, fmt.Errorf("duplicate card %s", c)
			}
			d.index[c.BitPosition()] = int16(len(d.cards))
			d.cards = append(d.cards, c)
		}
	}
	return d, nil
}

// ParseDeck builds a deck from rank and suit strings such as "JQK" and "sh".
func ParseDeck(ranks, suits string) (Deck, error) {
	rs := make([]uint8, 0, len(ranks))
	for i := 0; i < len(ranks); i++ {
		r, err := ParseRank(ranks[i])
		if err != nil {
			return Deck{}, err
		}
		rs = append(rs, r)
	}
	ss := make([]uint8, 0, len(suits))
	for i := 0; i < len(suits); i++ {
		s, err := ParseSuit(suits[i])
		if err != nil {
			return Deck{}, err
		}
		ss = append(ss, s)
	}
	return NewDeck(rs, ss)
}

// LeducDeck returns the default six card deck.
func LeducDeck() Deck {
	d, _ := NewDeck(LeducRanks, LeducSuits)
	return d
}

// Len returns the number of cards in the deck.
func (d Deck) Len() int { return len(d.cards) }

// Card returns the card at index i.
func (d Deck) Card(i int) Card { return d.cards[i] }

// Cards returns a copy of the deck's cards in index order.
func (d Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// Index returns the stable index of c, or -1 when c is not in the deck.
func (d Deck) Index(c Card) int {
	pos := c.BitPosition()
	if pos >= 64 || len(d.cards) == 0 {
		return -1
	}
	return int(d.index[pos])
}

// Remaining lists the deck cards not present in dead, in index order.
func (d Deck) Remaining(dead Hand) []Card {
	out := make([]Card, 0, len(d.cards))
	for _, c := range d.cards {
		if !dead.HasCard(c) {
			out = append(out, c)
		}
	}
	return out
}
