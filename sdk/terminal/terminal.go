// Package terminal computes counterfactual values at the leaves of a one
// private card tree. Payoffs are expressed as hand-versus-hand matrices per
// board and shared by every terminal on that board.
package terminal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lox/rangesolver/poker"
	"github.com/lox/rangesolver/sdk/solver"
	"github.com/lox/rangesolver/sdk/tree"
	"gonum.org/v1/gonum/mat"
)

type boardMatrices struct {
	call *mat.Dense
	fold *mat.Dense
}

// Builder creates terminal evaluators. It is safe for concurrent use.
type Builder struct {
	deck poker.Deck

	mu     sync.Mutex
	boards map[poker.Hand]*boardMatrices
}

// NewBuilder returns a builder whose hands are the cards of deck in index order.
func NewBuilder(deck poker.Deck) *Builder {
	return &Builder{deck: deck, boards: make(map[poker.Hand]*boardMatrices)}
}

// Build implements solver.EquityBuilder.
func (b *Builder) Build(node *tree.Node) (solver.TerminalEquity, error) {
	if node == nil || !node.IsTerminal() {
		return nil, errors.New("terminal evaluator requires a terminal node")
	}
	if node.Terminal == tree.TerminalFold && node.Player != 0 && node.Player != 1 {
		return nil, fmt.Errorf("fold terminal has folding player %d", node.Player)
	}
	m := b.matrices(node.Board)
	e := &Evaluator{
		kind:   node.Terminal,
		folder: node.Player,
		scale:  node.Pot() * removalFactor(b.deck.Len(), node.Board.CountCards()),
	}
	switch node.Terminal {
	case tree.TerminalShowdown:
		e.matrix = m.call
	case tree.TerminalFold:
		e.matrix = m.fold
	default:
		return nil, fmt.Errorf("unsupported terminal kind %s", node.Terminal)
	}
	return e, nil
}

// Boards returns how many distinct boards have matrices.
func (b *Builder) Boards() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.boards)
}

func (b *Builder) matrices(board poker.Hand) *boardMatrices {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.boards[board]; ok {
		return m
	}
	m := &boardMatrices{
		call: CallMatrix(b.deck, board),
		fold: FoldMatrix(b.deck, board),
	}
	b.boards[board] = m
	return m
}

// removalFactor corrects for the solver's chance weights, which deal each of
// the k board cards against one known hand (probability 1/(n-1-i)) while the
// true deal also excludes the opponent's card (probability 1/(n-2-i)).
func removalFactor(n, k int) float64 {
	f := 1.0
	for i := 0; i < k; i++ {
		if den := n - 2 - i; den > 0 {
			f *= float64(n-1-i) / float64(den)
		}
	}
	return f
}

// CallMatrix returns the showdown payoff sign for the row hand against the
// column hand: +1 win, -1 loss, 0 tie or impossible pairing.
func CallMatrix(deck poker.Deck, board poker.Hand) *mat.Dense {
	n := deck.Len()
	ranks := make([]poker.HandRank, n)
	for h := range n {
		ranks[h] = poker.Evaluate(deck.Card(h), board)
	}
	m := mat.NewDense(n, n, nil)
	for i := range n {
		if board.HasCard(deck.Card(i)) {
			continue
		}
		for j := range n {
			if i == j || board.HasCard(deck.Card(j)) {
				continue
			}
			m.Set(i, j, float64(poker.CompareHands(ranks[i], ranks[j])))
		}
	}
	return m
}

// FoldMatrix marks the hand pairs that can coexist with board.
func FoldMatrix(deck poker.Deck, board poker.Hand) *mat.Dense {
	n := deck.Len()
	m := mat.NewDense(n, n, nil)
	for i := range n {
		if board.HasCard(deck.Card(i)) {
			continue
		}
		for j := range n {
			if i == j || board.HasCard(deck.Card(j)) {
				continue
			}
			m.Set(i, j, 1)
		}
	}
	return m
}

// Evaluator is bound to one terminal node.
type Evaluator struct {
	kind   tree.TerminalKind
	folder int
	scale  float64
	matrix *mat.Dense
}

// Values implements solver.TerminalEquity.
func (e *Evaluator) Values(player int, opponentRange, out []float64) error {
	n, _ := e.matrix.Dims()
	if len(opponentRange) != n || len(out) != n {
		return fmt.Errorf("range length %d and output length %d must both be %d", len(opponentRange), len(out), n)
	}
	if player != 0 && player != 1 {
		return fmt.Errorf("invalid player %d", player)
	}
	scale := e.scale
	if e.kind == tree.TerminalFold && player == e.folder {
		scale = -scale
	}
	v := mat.NewVecDense(n, out)
	v.MulVec(e.matrix, mat.NewVecDense(n, opponentRange))
	v.ScaleVec(scale, v)
	return nil
}
