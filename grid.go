package main

import (
	"fmt"
)

const gridSize = 5

// Cell is one square on a player's card. Value is fixed at submission;
// Marked only ever flips from false to true.
type Cell struct {
	Value  int  `json:"value"`
	Marked bool `json:"marked"`
}

// Grid is a player's 5x5 card, holding each of 1..25 exactly once.
type Grid [gridSize][gridSize]Cell

// parseLayout builds a Grid from a submitted layout, enforcing the
// shape and the permutation invariant: five rows of five values, each
// of 1..25 appearing exactly once. All cells start unmarked.
func parseLayout(layout [][]int) (*Grid, error) {
	if len(layout) != gridSize {
		return nil, fmt.Errorf("grid must have %d rows, got %d", gridSize, len(layout))
	}

	var grid Grid
	var seen [gridSize*gridSize + 1]bool

	for i, row := range layout {
		if len(row) != gridSize {
			return nil, fmt.Errorf("grid row %d must have %d values, got %d", i, gridSize, len(row))
		}
		for j, value := range row {
			if value < 1 || value > gridSize*gridSize {
				return nil, fmt.Errorf("grid value %d is outside 1-%d", value, gridSize*gridSize)
			}
			if seen[value] {
				return nil, fmt.Errorf("grid value %d appears more than once", value)
			}
			seen[value] = true
			grid[i][j] = Cell{Value: value}
		}
	}

	return &grid, nil
}

// mark marks the cell holding value, if any. The full card is scanned
// even though the permutation invariant means at most one cell matches.
func (g *Grid) mark(value int) {
	for i := range g {
		for j := range g[i] {
			if g[i][j].Value == value {
				g[i][j].Marked = true
			}
		}
	}
}

// completedLines returns the ids of every fully marked line: row-0
// through row-4, col-0 through col-4, diag-main, and diag-anti. Pure
// over the card's marks, so calling it twice without new marks yields
// the same set, and a completed line never leaves the result.
func (g *Grid) completedLines() map[string]bool {
	lines := make(map[string]bool)

	for i := 0; i < gridSize; i++ {
		row, col := true, true
		for j := 0; j < gridSize; j++ {
			if !g[i][j].Marked {
				row = false
			}
			if !g[j][i].Marked {
				col = false
			}
		}
		if row {
			lines[fmt.Sprintf("row-%d", i)] = true
		}
		if col {
			lines[fmt.Sprintf("col-%d", i)] = true
		}
	}

	mainDiag, antiDiag := true, true
	for i := 0; i < gridSize; i++ {
		if !g[i][i].Marked {
			mainDiag = false
		}
		if !g[i][gridSize-1-i].Marked {
			antiDiag = false
		}
	}
	if mainDiag {
		lines["diag-main"] = true
	}
	if antiDiag {
		lines["diag-anti"] = true
	}

	return lines
}
