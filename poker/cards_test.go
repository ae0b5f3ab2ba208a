package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCard(t *testing.T, s string) Card {
	t.Helper()
	c, err := ParseCard(s)
	require.NoError(t, err)
	return c
}

func TestCardLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		card string
		rank uint8
		suit uint8
		bit  uint8
	}{
		{"2c", Two, Clubs, 0},
		{"Jh", Jack, Hearts, 2*13 + 9},
		{"Qs", Queen, Spades, 3*13 + 10},
		{"kH", King, Hearts, 2*13 + 11},
	}
	for _, tt := range tests {
		t.Run(tt.card, func(t *testing.T) {
			c := mustCard(t, tt.card)
			assert.Equal(t, NewCard(tt.rank, tt.suit), c)
			assert.Equal(t, tt.rank, c.Rank())
			assert.Equal(t, tt.suit, c.Suit())
			assert.Equal(t, tt.bit, c.BitPosition())
		})
	}

	assert.Equal(t, uint8(255), Card(0).BitPosition())
	assert.Equal(t, "??", Card(0).String())
}

func TestParseCardErrors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "K", "Ksx", "Xs", "Kx"} {
		_, err := ParseCard(in)
		assert.Error(t, err, "input %q", in)
	}

	cards, err := ParseCards("Ks Qh")
	require.NoError(t, err)
	assert.Equal(t, []Card{mustCard(t, "Ks"), mustCard(t, "Qh")}, cards)

	_, err = ParseCards("Ksq")
	require.Error(t, err)
}

func TestHandMasks(t *testing.T) {
	t.Parallel()
	board := NewHand(mustCard(t, "Ks"), mustCard(t, "Kh"), mustCard(t, "Jh"))

	assert.Equal(t, 3, board.CountCards())
	assert.True(t, board.HasCard(mustCard(t, "Kh")))
	assert.False(t, board.HasCard(mustCard(t, "Qh")))
	assert.Equal(t, uint16(1<<King|1<<Jack), board.RankMask(), "paired ranks collapse")
	assert.Equal(t, uint16(1<<King), board.SuitMask(Spades))

	board.AddCard(mustCard(t, "Qh"))
	assert.Equal(t, 4, board.CountCards())
	assert.Len(t, board.Cards(), 4)
}

func TestLeducDeck(t *testing.T) {
	t.Parallel()
	deck := LeducDeck()
	require.Equal(t, 6, deck.Len())

	var seen Hand
	for i := 0; i < deck.Len(); i++ {
		c := deck.Card(i)
		require.False(t, seen.HasCard(c), "duplicate card %s", c)
		seen.AddCard(c)
		assert.Equal(t, i, deck.Index(c))
	}
	assert.Equal(t, "Js", deck.Card(0).String())
	assert.Equal(t, "Kh", deck.Card(5).String())
	assert.Equal(t, -1, deck.Index(NewCard(Two, Clubs)))
	assert.Equal(t, -1, Deck{}.Index(mustCard(t, "Js")), "zero deck holds nothing")

	rest := deck.Remaining(NewHand(mustCard(t, "Ks")))
	assert.Len(t, rest, 5)
	assert.NotContains(t, rest, mustCard(t, "Ks"))
}

func TestParseDeck(t *testing.T) {
	t.Parallel()
	deck, err := ParseDeck("AKQ", "cdhs")
	require.NoError(t, err)
	assert.Equal(t, 12, deck.Len())

	_, err = ParseDeck("KK", "s")
	assert.Error(t, err, "duplicate card")
	_, err = ParseDeck("", "s")
	assert.Error(t, err, "empty ranks")
	_, err = ParseDeck("K", "z")
	assert.Error(t, err, "bad suit")
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	board := NewHand(mustCard(t, "Qh"))
	pairQ := Evaluate(mustCard(t, "Qs"), board)
	kingHigh := Evaluate(mustCard(t, "Ks"), board)
	jackHigh := Evaluate(mustCard(t, "Js"), board)

	assert.Equal(t, Pair, pairQ.Type())
	assert.Equal(t, "pair of Q", pairQ.String())
	assert.Equal(t, HighCard, kingHigh.Type())
	assert.Equal(t, "K high", kingHigh.String())

	assert.Equal(t, 1, CompareHands(pairQ, kingHigh), "pairing the board beats any high card")
	assert.Equal(t, -1, CompareHands(jackHigh, kingHigh))
	assert.Equal(t, 0, CompareHands(kingHigh, Evaluate(mustCard(t, "Kh"), board)))
	assert.Equal(t, HighCard, Evaluate(mustCard(t, "Ks"), 0).Type(), "empty board cannot pair")
}

func BenchmarkEvaluate(b *testing.B) {
	board := NewHand(NewCard(Queen, Hearts))
	hole := NewCard(King, Spades)
	for i := 0; i < b.N; i++ {
		_ = Evaluate(hole, board)
	}
}
