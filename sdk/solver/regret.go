package solver

import (
	"github.com/lox/rangesolver/internal/arrayops"
	"gonum.org/v1/gonum/mat"
)

// regretMatch writes the regret-matching strategy for every hand (column) of
// regrets into out. Hands whose positive regrets sum to zero fall back to the
// uniform strategy.
func regretMatch(regrets, out *mat.Dense) {
	actions, hands := regrets.Dims()
	uniform := 1.0 / float64(actions)
	for h := 0; h < hands; h++ {
		total := 0.0
		for a := 0; a < actions; a++ {
			if r := regrets.At(a, h); r > 0 {
				total += r
			}
		}
		if total <= 0 {
			for a := 0; a < actions; a++ {
				out.Set(a, h, uniform)
			}
			continue
		}
		for a := 0; a < actions; a++ {
			r := regrets.At(a, h)
			if r < 0 {
				r = 0
			}
			out.Set(a, h, r/total)
		}
	}
}

// updateRegrets adds the instantaneous regret of every action for every hand
// and clips the result at epsilon. actionValues holds one row of
// counterfactual values per action; nodeValues is broadcast across the rows.
func updateRegrets(regrets, actionValues *mat.Dense, nodeValues []float64, epsilon float64) error {
	nodeCF, err := arrayops.Expand(arrayops.RowView(nodeValues), regrets)
	if err != nil {
		return err
	}
	regrets.Add(regrets, actionValues)
	regrets.Sub(regrets, nodeCF)
	arrayops.ClipLow(regrets, epsilon)
	return nil
}

// accumulateStrategy adds the reach-weighted current strategy to sum.
func accumulateStrategy(sum, strategy *mat.Dense, reach []float64) error {
	weighted, err := arrayops.Expand(arrayops.RowView(reach), strategy)
	if err != nil {
		return err
	}
	weighted.MulElem(weighted, strategy)
	sum.Add(sum, weighted)
	return nil
}

// normaliseColumns returns a copy of sum with every hand's column scaled to
// one. Hands with no accumulated mass get the uniform strategy.
func normaliseColumns(sum *mat.Dense) *mat.Dense {
	actions, hands := sum.Dims()
	out := mat.NewDense(actions, hands, nil)
	col := make([]float64, actions)
	for h := 0; h < hands; h++ {
		mat.Col(col, h, sum)
		arrayops.Normalize(col)
		out.SetCol(h, col)
	}
	return out
}
