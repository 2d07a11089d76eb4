package models

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard(t *testing.T) {
	board := NewBoard(rand.New(rand.NewSource(1)))

	require.Len(t, board, BoardSize)
	require.NoError(t, board.Validate())

	seen := make(map[string]bool)
	for i, cell := range board {
		assert.Equal(t, i, cell.ID)
		assert.Equal(t, TeamNone, cell.Owner)
		assert.False(t, seen[cell.Letter], "letter %s repeated", cell.Letter)
		seen[cell.Letter] = true
	}
	assert.Len(t, seen, BoardSize)
}

func TestNewBoardLettersComeFromAlphabet(t *testing.T) {
	alphabet := make(map[string]bool, len(Alphabet))
	for _, letter := range Alphabet {
		alphabet[letter] = true
	}

	for seed := int64(0); seed < 10; seed++ {
		board := NewBoard(rand.New(rand.NewSource(seed)))
		for _, cell := range board {
			assert.True(t, alphabet[cell.Letter], "unknown letter %s", cell.Letter)
		}
	}
}

func TestWithOwnerCopies(t *testing.T) {
	board := NewBoard(rand.New(rand.NewSource(2)))

	updated := board.WithOwner(7, TeamGreen)

	assert.Equal(t, TeamNone, board[7].Owner, "original board must not change")
	assert.Equal(t, TeamGreen, updated[7].Owner)

	reverted := updated.WithOwner(7, TeamNone)
	assert.Equal(t, TeamNone, reverted[7].Owner)
	assert.Equal(t, TeamGreen, updated[7].Owner)
}

func TestScores(t *testing.T) {
	board := NewBoard(rand.New(rand.NewSource(3)))

	green, purple := board.Scores()
	assert.Equal(t, 0, green)
	assert.Equal(t, 0, purple)

	board = board.WithOwner(0, TeamGreen)
	board = board.WithOwner(1, TeamGreen)
	board = board.WithOwner(2, TeamPurple)

	green, purple = board.Scores()
	assert.Equal(t, 2, green)
	assert.Equal(t, 1, purple)
}

func TestCellLookup(t *testing.T) {
	board := NewBoard(rand.New(rand.NewSource(4)))

	cell := board.Cell(24)
	require.NotNil(t, cell)
	assert.Equal(t, 24, cell.ID)

	assert.Nil(t, board.Cell(-1))
	assert.Nil(t, board.Cell(BoardSize))
}

func TestOpponent(t *testing.T) {
	assert.Equal(t, TeamPurple, TeamGreen.Opponent())
	assert.Equal(t, TeamGreen, TeamPurple.Opponent())
	assert.Equal(t, TeamNone, TeamNone.Opponent())
}

func TestValidateRejectsBadBoards(t *testing.T) {
	board := NewBoard(rand.New(rand.NewSource(5)))

	short := board[:BoardSize-1]
	assert.Error(t, Board(short).Validate())

	dup := board.WithOwner(0, TeamNone)
	dup[1].ID = 0
	assert.Error(t, dup.Validate())
}
