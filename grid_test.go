package main

import (
	"testing"
)

// sequentialLayout fills the card left to right, top to bottom: row 0
// holds 1..5, row 1 holds 6..10, and so on.
func sequentialLayout() [][]int {
	layout := make([][]int, gridSize)
	n := 1
	for i := range layout {
		layout[i] = make([]int, gridSize)
		for j := range layout[i] {
			layout[i][j] = n
			n++
		}
	}
	return layout
}

// spreadLayout is a valid permutation whose low numbers are scattered:
// cell (i,j) holds ((i*5+j)*7 mod 25) + 1. Multiplying by 7 (coprime
// with 25) keeps it a bijection while breaking up consecutive runs.
func spreadLayout() [][]int {
	layout := make([][]int, gridSize)
	for i := range layout {
		layout[i] = make([]int, gridSize)
		for j := range layout[i] {
			layout[i][j] = ((i*gridSize+j)*7)%25 + 1
		}
	}
	return layout
}

func TestParseLayoutValid(t *testing.T) {
	for name, layout := range map[string][][]int{
		"sequential": sequentialLayout(),
		"spread":     spreadLayout(),
	} {
		grid, err := parseLayout(layout)
		if err != nil {
			t.Fatalf("%s: parseLayout failed: %v", name, err)
		}

		for i := range grid {
			for j := range grid[i] {
				if grid[i][j].Marked {
					t.Fatalf("%s: cell (%d,%d) marked on a fresh grid", name, i, j)
				}
				if grid[i][j].Value != layout[i][j] {
					t.Fatalf("%s: cell (%d,%d) = %d, want %d", name, i, j, grid[i][j].Value, layout[i][j])
				}
			}
		}

		if lines := grid.completedLines(); len(lines) != 0 {
			t.Fatalf("%s: fresh grid reports completed lines: %v", name, lines)
		}
	}
}

func TestParseLayoutRejects(t *testing.T) {
	tooFewRows := sequentialLayout()[:4]

	shortRow := sequentialLayout()
	shortRow[2] = shortRow[2][:4]

	outOfRangeLow := sequentialLayout()
	outOfRangeLow[0][0] = 0

	outOfRangeHigh := sequentialLayout()
	outOfRangeHigh[4][4] = 26

	duplicate := sequentialLayout()
	duplicate[4][4] = 1

	for name, layout := range map[string][][]int{
		"nil":            nil,
		"tooFewRows":     tooFewRows,
		"shortRow":       shortRow,
		"outOfRangeLow":  outOfRangeLow,
		"outOfRangeHigh": outOfRangeHigh,
		"duplicate":      duplicate,
	} {
		if _, err := parseLayout(layout); err == nil {
			t.Errorf("%s: parseLayout accepted an invalid layout", name)
		}
	}
}

func TestCompletedLinesAllTwelve(t *testing.T) {
	grid, err := parseLayout(sequentialLayout())
	if err != nil {
		t.Fatal(err)
	}

	for n := 1; n <= 25; n++ {
		grid.mark(n)
	}

	lines := grid.completedLines()
	want := []string{
		"row-0", "row-1", "row-2", "row-3", "row-4",
		"col-0", "col-1", "col-2", "col-3", "col-4",
		"diag-main", "diag-anti",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for _, id := range want {
		if !lines[id] {
			t.Errorf("missing line %s", id)
		}
	}
}

func TestCompletedLinesSingleRowAndColumn(t *testing.T) {
	grid, err := parseLayout(sequentialLayout())
	if err != nil {
		t.Fatal(err)
	}

	// Row 1 holds 6..10, column 2 holds 3, 8, 13, 18, 23.
	for _, n := range []int{6, 7, 8, 9, 10, 3, 13, 18, 23} {
		grid.mark(n)
	}

	lines := grid.completedLines()
	if !lines["row-1"] {
		t.Error("row-1 not reported complete")
	}
	if !lines["col-2"] {
		t.Error("col-2 not reported complete")
	}
	if len(lines) != 2 {
		t.Errorf("unexpected extra lines: %v", lines)
	}
}

func TestCompletedLinesDiagonals(t *testing.T) {
	grid, err := parseLayout(sequentialLayout())
	if err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{1, 7, 13, 19, 25} {
		grid.mark(n)
	}
	if lines := grid.completedLines(); !lines["diag-main"] || len(lines) != 1 {
		t.Errorf("want only diag-main, got %v", lines)
	}

	for _, n := range []int{5, 9, 17, 21} {
		grid.mark(n)
	}
	lines := grid.completedLines()
	if !lines["diag-anti"] {
		t.Error("diag-anti not reported complete")
	}
	if !lines["diag-main"] {
		t.Error("diag-main dropped after further marks")
	}
}

func TestCompletedLinesIdempotentAndMonotonic(t *testing.T) {
	grid, err := parseLayout(sequentialLayout())
	if err != nil {
		t.Fatal(err)
	}

	var previous map[string]bool

	for n := 1; n <= 25; n++ {
		grid.mark(n)

		first := grid.completedLines()
		second := grid.completedLines()
		if len(first) != len(second) {
			t.Fatalf("after marking %d: repeated calls disagree: %v vs %v", n, first, second)
		}
		for id := range first {
			if !second[id] {
				t.Fatalf("after marking %d: %s missing on second call", n, id)
			}
		}

		for id := range previous {
			if !first[id] {
				t.Fatalf("after marking %d: previously completed %s disappeared", n, id)
			}
		}
		previous = first
	}
}

func TestMarkOnlySetsMatchingCell(t *testing.T) {
	grid, err := parseLayout(sequentialLayout())
	if err != nil {
		t.Fatal(err)
	}

	grid.mark(13)

	for i := range grid {
		for j := range grid[i] {
			marked := grid[i][j].Marked
			if grid[i][j].Value == 13 && !marked {
				t.Errorf("cell holding 13 not marked")
			}
			if grid[i][j].Value != 13 && marked {
				t.Errorf("cell (%d,%d) holding %d marked unexpectedly", i, j, grid[i][j].Value)
			}
		}
	}

	// Marking a number not on any remaining cell is a no-op.
	grid.mark(0)
	grid.mark(26)
}
