package models

import (
	"fmt"
	"math/rand"
)

// BoardSize is the number of cells in the 5x5 hexagonal grid.
const BoardSize = 25

// Alphabet is the fixed 28-letter pool boards are drawn from.
var Alphabet = []string{
	"ض", "ر", "أ", "غ", "ج", "ه", "ل", "ت", "د", "م",
	"ح", "ص", "ث", "ب", "ش", "ظ", "ك", "ف", "ذ", "ق",
	"ز", "ي", "ط", "خ", "ع", "س", "ن", "و",
}

// Team identifies a side, or the absence of one for unowned cells.
type Team string

const (
	TeamGreen  Team = "green"
	TeamPurple Team = "purple"
	TeamNone   Team = "none"
)

// Opponent returns the other playing team. TeamNone has no opponent.
func (t Team) Opponent() Team {
	switch t {
	case TeamGreen:
		return TeamPurple
	case TeamPurple:
		return TeamGreen
	default:
		return TeamNone
	}
}

// Cell is one lettered position on the board.
type Cell struct {
	ID     int    `json:"id"`
	Letter string `json:"letter"`
	Owner  Team   `json:"owner"`
}

// Board is the ordered sequence of 25 cells.
type Board []Cell

// NewBoard draws 25 distinct letters from the alphabet, all cells unowned.
func NewBoard(rng *rand.Rand) Board {
	perm := rng.Perm(len(Alphabet))
	board := make(Board, BoardSize)
	for i := 0; i < BoardSize; i++ {
		board[i] = Cell{ID: i, Letter: Alphabet[perm[i]], Owner: TeamNone}
	}
	return board
}

// Cell returns the cell with the given id, or nil if out of range.
func (b Board) Cell(id int) *Cell {
	for i := range b {
		if b[i].ID == id {
			return &b[i]
		}
	}
	return nil
}

// WithOwner returns a copy of the board with one cell's owner replaced.
// The board is always written back whole; there is no per-cell update path.
func (b Board) WithOwner(cellID int, owner Team) Board {
	updated := make(Board, len(b))
	copy(updated, b)
	for i := range updated {
		if updated[i].ID == cellID {
			updated[i].Owner = owner
		}
	}
	return updated
}

// Scores counts cells per owning team. Score is always derived from the
// board, never held as separate counters.
func (b Board) Scores() (green, purple int) {
	for _, c := range b {
		switch c.Owner {
		case TeamGreen:
			green++
		case TeamPurple:
			purple++
		}
	}
	return green, purple
}

// Validate checks the board shape: exactly 25 cells with unique ids 0..24.
func (b Board) Validate() error {
	if len(b) != BoardSize {
		return fmt.Errorf("board has %d cells, want %d", len(b), BoardSize)
	}
	seen := make(map[int]bool, BoardSize)
	for _, c := range b {
		if c.ID < 0 || c.ID >= BoardSize {
			return fmt.Errorf("cell id %d out of range", c.ID)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate cell id %d", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
