package game

import (
	"fmt"
)

// Board is one player's private N-Queens grid. Boards are independent
// per player; nothing outside the owning room touches them.
type Board struct {
	size   int
	cells  [][]bool
	queens int
}

func NewBoard(size int) *Board {
	cells := make([][]bool, size)
	for i := range cells {
		cells[i] = make([]bool, size)
	}
	return &Board{size: size, cells: cells}
}

// PlacementError explains a rejected placement without mutating state.
type PlacementError struct {
	Row, Col int
	Reason   string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("invalid placement at (%d,%d): %s", e.Row, e.Col, e.Reason)
}

// Place puts a queen at (row, col). The placement is accepted only when
// the cell is free and shares no row, column, or diagonal with any
// existing queen on this board.
func (b *Board) Place(row, col int) error {
	if row < 0 || row >= b.size || col < 0 || col >= b.size {
		return &PlacementError{Row: row, Col: col, Reason: "out of bounds"}
	}
	if b.cells[row][col] {
		return &PlacementError{Row: row, Col: col, Reason: "cell already occupied"}
	}
	if reason := b.conflict(row, col); reason != "" {
		return &PlacementError{Row: row, Col: col, Reason: reason}
	}

	b.cells[row][col] = true
	b.queens++
	return nil
}

// conflict returns a non-empty reason when (row, col) is attacked by an
// existing queen.
func (b *Board) conflict(row, col int) string {
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if !b.cells[r][c] {
				continue
			}
			switch {
			case r == row:
				return "shares a row with an existing queen"
			case c == col:
				return "shares a column with an existing queen"
			case r-c == row-col || r+c == row+col:
				return "shares a diagonal with an existing queen"
			}
		}
	}
	return ""
}

// Complete reports whether the board holds a full non-conflicting
// solution (one queen per row by construction).
func (b *Board) Complete() bool {
	return b.queens == b.size
}

func (b *Board) Size() int {
	return b.size
}

func (b *Board) Queens() int {
	return b.queens
}

// Grid returns a copy of the occupancy grid for snapshots.
func (b *Board) Grid() [][]bool {
	grid := make([][]bool, b.size)
	for i, row := range b.cells {
		grid[i] = make([]bool, b.size)
		copy(grid[i], row)
	}
	return grid
}
