package game

import (
	"math/rand"
	"testing"
)

func TestBoard_PlaceAndConflicts(t *testing.T) {
	tests := []struct {
		name     string
		existing [][2]int
		row, col int
		wantErr  bool
	}{
		{"empty board accepts", nil, 3, 4, false},
		{"same cell rejected", [][2]int{{3, 4}}, 3, 4, true},
		{"same row rejected", [][2]int{{3, 4}}, 3, 0, true},
		{"same column rejected", [][2]int{{3, 4}}, 0, 4, true},
		{"main diagonal rejected", [][2]int{{3, 4}}, 5, 6, true},
		{"anti diagonal rejected", [][2]int{{3, 4}}, 5, 2, true},
		{"knight distance accepted", [][2]int{{3, 4}}, 5, 5, false},
		{"out of bounds rejected", nil, 8, 0, true},
		{"negative rejected", nil, -1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := NewBoard(8)
			for _, q := range tt.existing {
				if err := board.Place(q[0], q[1]); err != nil {
					t.Fatalf("setup placement failed: %v", err)
				}
			}

			err := board.Place(tt.row, tt.col)
			if tt.wantErr && err == nil {
				t.Errorf("Place(%d,%d) should be rejected", tt.row, tt.col)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Place(%d,%d) should be accepted, got %v", tt.row, tt.col, err)
			}
		})
	}
}

func TestBoard_RejectedPlacementDoesNotMutate(t *testing.T) {
	board := NewBoard(8)
	if err := board.Place(0, 0); err != nil {
		t.Fatal(err)
	}

	if err := board.Place(0, 5); err == nil {
		t.Fatal("row conflict should be rejected")
	}

	if board.Queens() != 1 {
		t.Errorf("rejected placement changed queen count: %d", board.Queens())
	}
	if board.Grid()[0][5] {
		t.Error("rejected placement marked the cell")
	}
}

func TestBoard_CompleteSolution(t *testing.T) {
	// A known 8-queens solution.
	solution := [][2]int{{0, 0}, {1, 4}, {2, 7}, {3, 5}, {4, 2}, {5, 6}, {6, 1}, {7, 3}}

	board := NewBoard(8)
	for i, q := range solution {
		if board.Complete() {
			t.Fatalf("board complete too early after %d queens", i)
		}
		if err := board.Place(q[0], q[1]); err != nil {
			t.Fatalf("solution placement %d rejected: %v", i, err)
		}
	}

	if !board.Complete() {
		t.Error("full valid solution should complete the board")
	}
}

// Random partial permutation-based placements that avoid diagonal
// conflicts must always be accepted; any attacked cell must always be
// rejected.
func TestBoard_PropertyRandomPlacements(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		size := 4 + rng.Intn(7) // 4..10
		board := NewBoard(size)

		var queens [][2]int
		for row := 0; row < size; row++ {
			cols := rng.Perm(size)
			for _, col := range cols {
				if attacked(queens, row, col) {
					if err := board.Place(row, col); err == nil {
						t.Fatalf("size=%d attacked cell (%d,%d) was accepted", size, row, col)
					}
					continue
				}
				if err := board.Place(row, col); err != nil {
					t.Fatalf("size=%d free cell (%d,%d) was rejected: %v", size, row, col, err)
				}
				queens = append(queens, [2]int{row, col})
				break
			}
		}

		if board.Queens() != len(queens) {
			t.Fatalf("queen count mismatch: board=%d reference=%d", board.Queens(), len(queens))
		}
	}
}

// attacked is the reference oracle for the property test.
func attacked(queens [][2]int, row, col int) bool {
	for _, q := range queens {
		if q[0] == row || q[1] == col {
			return true
		}
		if q[0]-q[1] == row-col || q[0]+q[1] == row+col {
			return true
		}
	}
	return false
}
