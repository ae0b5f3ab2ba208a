package tree

import (
	"testing"

	"github.com/lox/rangesolver/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBuildLeducRoot(t *testing.T) {
	t.Parallel()
	tr, err := Build(DefaultBuildParams())
	require.NoError(t, err)
	require.Equal(t, 6, tr.HandCount())

	root := tr.Node(tr.Root)
	require.Equal(t, KindPlayer, root.Kind)
	require.Equal(t, 0, root.Player)
	labels := make([]string, len(root.Actions))
	for i, a := range root.Actions {
		labels[i] = a.String()
	}
	assert.Equal(t, []string{"x", "b3", "a12"}, labels)
	assert.Equal(t, 1.0, root.Pot())
}

func TestBuildStructure(t *testing.T) {
	t.Parallel()
	tr, err := Build(DefaultBuildParams())
	require.NoError(t, err)

	var terminals, chance int
	err = tr.Walk(tr.Root, func(n *Node) error {
		switch n.Kind {
		case KindTerminal:
			terminals++
			assert.Empty(t, n.Children)
			if n.Terminal == TerminalShowdown {
				assert.Equal(t, n.Bets[0], n.Bets[1], "showdown at %s", tr.Path(n.ID))
				assert.Equal(t, 1, n.Board.CountCards())
			}
		case KindChance:
			chance++
			require.NotNil(t, n.ChanceWeights)
			r, c := n.ChanceWeights.Dims()
			assert.Equal(t, len(n.Children), r)
			assert.Equal(t, tr.HandCount(), c)
		case KindPlayer:
			assert.NotEmpty(t, n.Children)
			assert.Len(t, n.Actions, len(n.Children))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Greater(t, terminals, 0)
	assert.Greater(t, chance, 0)
	assert.Len(t, tr.Terminals(tr.Root), terminals)
}

func TestChanceWeightsConserveEachHand(t *testing.T) {
	t.Parallel()
	deck := poker.LeducDeck()
	dealt := deck.Remaining(0)
	w := ChanceWeights(deck, 0, dealt)

	for h := 0; h < deck.Len(); h++ {
		col := mat.Col(nil, h, w)
		sum := 0.0
		for i, v := range col {
			if dealt[i] == deck.Card(h) {
				assert.Zero(t, v, "hand cannot see its own card dealt")
			}
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestPathAndFind(t *testing.T) {
	t.Parallel()
	tr, err := Build(DefaultBuildParams())
	require.NoError(t, err)

	assert.Equal(t, "", tr.Path(tr.Root))
	for _, n := range tr.Terminals(tr.Root) {
		path := tr.Path(n.ID)
		id, ok := tr.Find(path)
		require.True(t, ok, path)
		require.Equal(t, n.ID, id, path)
	}

	id, ok := tr.Find("x/x/Ks/b3/f")
	require.True(t, ok)
	n := tr.Node(id)
	assert.Equal(t, TerminalFold, n.Terminal)
	assert.Equal(t, 1, n.Player)
	assert.Equal(t, 1.0, n.Pot())

	_, ok = tr.Find("x/nonsense")
	assert.False(t, ok)
}

func TestBuildParamsValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*BuildParams)
	}{
		{"zero ante", func(p *BuildParams) { p.Ante = 0 }},
		{"short stack", func(p *BuildParams) { p.Stack = 0.5 }},
		{"no streets", func(p *BuildParams) { p.Streets = 0 }},
		{"unsorted sizes", func(p *BuildParams) { p.BetSizes = []float64{1, 0.5} }},
		{"negative raises", func(p *BuildParams) { p.MaxRaises = -1 }},
		{"empty deck", func(p *BuildParams) { p.Deck = poker.Deck{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultBuildParams()
			tt.mutate(&p)
			_, err := Build(p)
			require.Error(t, err)
		})
	}
}

func TestManualTree(t *testing.T) {
	t.Parallel()
	tr := New(2)
	root := tr.AddRoot(Node{Kind: KindPlayer, Player: 0})
	left := tr.AddChild(root, Action{Kind: ActionCheck}, Node{Kind: KindTerminal, Terminal: TerminalShowdown})
	right := tr.AddChild(root, Action{Kind: ActionBet, Amount: 2}, Node{Kind: KindTerminal, Terminal: TerminalShowdown})

	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, []NodeID{left, right}, tr.Node(root).Children)
	assert.Equal(t, 1, tr.Node(right).Depth)
	assert.Equal(t, "b2", tr.Path(right))
	assert.Nil(t, tr.Node(NodeID(99)))
}
