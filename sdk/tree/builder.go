package tree

import (
	"errors"
	"fmt"

	"github.com/lox/rangesolver/poker"
	"gonum.org/v1/gonum/mat"
)

// BuildParams describes a heads-up, one private card game with one public
// card dealt before every street after the first.
type BuildParams struct {
	Deck poker.Deck
	// Ante is posted by both players before the first street.
	Ante float64
	// Stack is each player's total chips including the ante.
	Stack float64
	// BetSizes lists bet and raise sizes as fractions of the pot after calling.
	BetSizes []float64
	// AllIn exposes a shove at every decision that still has chips behind.
	AllIn bool
	// MaxRaises caps bets plus raises per street.
	MaxRaises int
	// Streets is the number of betting rounds.
	Streets int
}

// DefaultBuildParams returns the Leduc-style defaults.
func DefaultBuildParams() BuildParams {
	return BuildParams{
		Deck:      poker.LeducDeck(),
		Ante:      1,
		Stack:     12,
		BetSizes:  []float64{1},
		AllIn:     true,
		MaxRaises: 2,
		Streets:   2,
	}
}

// Validate checks the parameters before a build.
func (p BuildParams) Validate() error {
	if p.Deck.Len() < 2 {
		return errors.New("deck must hold at least two cards")
	}
	if p.Ante <= 0 {
		return errors.New("ante must be > 0")
	}
	if p.Stack < p.Ante {
		return errors.New("stack must cover the ante")
	}
	if p.Streets <= 0 {
		return errors.New("streets must be > 0")
	}
	if p.Deck.Len() < p.Streets+1 {
		return fmt.Errorf("deck of %d cards cannot deal %d streets", p.Deck.Len(), p.Streets)
	}
	if p.MaxRaises < 0 {
		return errors.New("max raises cannot be negative")
	}
	last := 0.0
	for i, v := range p.BetSizes {
		if v <= 0 {
			return fmt.Errorf("bet sizing[%d] must be > 0", i)
		}
		if v <= last {
			return fmt.Errorf("bet sizing[%d] must be strictly increasing", i)
		}
		last = v
	}
	return nil
}

type buildState struct {
	street  int
	board   poker.Hand
	bets    [2]float64
	player  int
	raises  int
	checked bool
}

type builder struct {
	params BuildParams
	tree   *Tree
}

// Build expands the full public tree for the given parameters. Every private
// hand is a single card, so the tree's hand count equals the deck size.
func Build(params BuildParams) (*Tree, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	b := &builder{params: params, tree: New(params.Deck.Len())}
	b.tree.Deck = params.Deck

	st := buildState{street: 1, bets: [2]float64{params.Ante, params.Ante}}
	root := b.tree.AddRoot(Node{Kind: KindPlayer, Player: 0, Street: 1, Bets: st.bets})
	b.expandPlayer(root, st)
	return b.tree, nil
}

func (b *builder) expandPlayer(id NodeID, st buildState) {
	me, opp := st.player, 1-st.player
	stack := b.params.Stack
	next := st
	next.player = opp

	if st.bets[opp] > st.bets[me] {
		b.tree.AddChild(id, Action{Kind: ActionFold}, Node{
			Kind: KindTerminal, Terminal: TerminalFold, Player: me,
			Street: st.street, Board: st.board, Bets: st.bets,
		})

		called := st
		called.bets[me] = st.bets[opp]
		b.closeStreet(id, Action{Kind: ActionCall, Amount: called.bets[me]}, called)
	} else {
		if st.checked {
			b.closeStreet(id, Action{Kind: ActionCheck}, st)
		} else {
			checked := next
			checked.checked = true
			child := b.tree.AddChild(id, Action{Kind: ActionCheck}, Node{
				Kind: KindPlayer, Player: opp, Street: st.street, Board: st.board, Bets: st.bets,
			})
			b.expandPlayer(child, checked)
		}
	}

	if st.raises >= b.params.MaxRaises || st.bets[opp] >= stack {
		return
	}
	base := max(st.bets[0], st.bets[1])
	pot := 2 * base
	for _, frac := range b.params.BetSizes {
		target := base + frac*pot
		if target >= stack {
			break
		}
		b.addRaise(id, Action{Kind: ActionBet, Amount: target}, next, me, target)
	}
	if b.params.AllIn {
		b.addRaise(id, Action{Kind: ActionAllIn, Amount: stack}, next, me, stack)
	}
}

func (b *builder) addRaise(id NodeID, a Action, next buildState, me int, target float64) {
	next.bets[me] = target
	next.raises++
	next.checked = false
	child := b.tree.AddChild(id, a, Node{
		Kind: KindPlayer, Player: next.player, Street: next.street, Board: next.board, Bets: next.bets,
	})
	b.expandPlayer(child, next)
}

// closeStreet adds the node reached when betting on the current street ends.
func (b *builder) closeStreet(id NodeID, a Action, st buildState) {
	if st.street >= b.params.Streets {
		b.tree.AddChild(id, a, Node{
			Kind: KindTerminal, Terminal: TerminalShowdown,
			Street: st.street, Board: st.board, Bets: st.bets,
		})
		return
	}
	chance := b.tree.AddChild(id, a, Node{
		Kind: KindChance, Street: st.street, Board: st.board, Bets: st.bets,
	})
	b.expandChance(chance, st)
}

func (b *builder) expandChance(id NodeID, st buildState) {
	allIn := st.bets[0] >= b.params.Stack
	dealt := b.params.Deck.Remaining(st.board)
	for _, c := range dealt {
		next := buildState{
			street: st.street + 1,
			board:  st.board | poker.Hand(c),
			bets:   st.bets,
		}
		switch {
		case allIn && next.street >= b.params.Streets:
			b.tree.AddChild(id, Action{Kind: ActionDeal, Card: c}, Node{
				Kind: KindTerminal, Terminal: TerminalShowdown,
				Street: next.street, Board: next.board, Bets: next.bets,
			})
		case allIn:
			child := b.tree.AddChild(id, Action{Kind: ActionDeal, Card: c}, Node{
				Kind: KindChance, Street: next.street, Board: next.board, Bets: next.bets,
			})
			b.expandChance(child, next)
		default:
			child := b.tree.AddChild(id, Action{Kind: ActionDeal, Card: c}, Node{
				Kind: KindPlayer, Player: 0, Street: next.street, Board: next.board, Bets: next.bets,
			})
			b.expandPlayer(child, next)
		}
	}
	b.tree.Nodes[id].ChanceWeights = ChanceWeights(b.params.Deck, st.board, dealt)
}

// ChanceWeights returns the children x hands matrix of conditional deal
// probabilities: a hand that neither holds the dealt card nor sits on the
// board sees each of the remaining n-1-k cards with equal probability, where
// n is the deck size and k the current board size. Every live hand's column
// sums to one.
func ChanceWeights(deck poker.Deck, board poker.Hand, dealt []poker.Card) *mat.Dense {
	hands := deck.Len()
	w := mat.NewDense(len(dealt), hands, nil)
	denom := float64(hands - 1 - board.CountCards())
	if denom <= 0 {
		return w
	}
	for i, c := range dealt {
		for h := 0; h < hands; h++ {
			hole := deck.Card(h)
			if hole == c || board.HasCard(hole) {
				continue
			}
			w.Set(i, h, 1/denom)
		}
	}
	return w
}
