package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/rangesolver/sdk/solver"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	strongStyle = cellStyle.
			Foreground(lipgloss.Color("10"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// renderStrategy draws one row per hand with the probability of each action.
// The most likely action for a hand is highlighted.
func renderStrategy(path string, ns solver.NodeStrategy, hands []string) string {
	name := path
	if name == "" {
		name = "<root>"
	}
	title := titleStyle.Render(fmt.Sprintf("%s  player %d to act", name, ns.Player))

	headers := append([]string{"hand"}, ns.Actions...)
	best := make([]int, len(hands))
	rows := make([][]string, len(hands))
	for h, hand := range hands {
		row := []string{hand}
		for a := range ns.Actions {
			p := ns.Strategy[a][h]
			row = append(row, fmt.Sprintf("%5.1f%%", 100*p))
			if p > ns.Strategy[best[h]][h] {
				best[h] = a
			}
		}
		rows[h] = row
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col > 0 && row >= 0 && row < len(best) && best[row] == col-1:
				return strongStyle
			default:
				return cellStyle
			}
		})
	return title + "\n" + t.Render()
}

// childPaths lists the stored decision nodes one or more public actions
// below path, stopping at the first decision on each branch.
func childPaths(bp *solver.Blueprint, path string) []string {
	prefix := path
	if prefix != "" {
		prefix += "/"
	}
	var out []string
	for p := range bp.Nodes {
		if p == path || !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if hasStoredAncestor(bp, prefix, rest) {
			continue
		}
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func hasStoredAncestor(bp *solver.Blueprint, prefix, rest string) bool {
	parts := strings.Split(rest, "/")
	for i := 1; i < len(parts); i++ {
		if _, ok := bp.Nodes[prefix+strings.Join(parts[:i], "/")]; ok {
			return true
		}
	}
	return false
}
