package tictactoe

import (
	"github.com/gridclash/tictactoe-backend/internal/entity"
)

// Tie - returned by Evaluate when the board is full with no winning line.
const Tie = "-"

// WinCombos - the 8 winning lines: rows, columns, diagonals. Evaluation
// short-circuits on the first match; the order is fixed so results are
// deterministic.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Apply - writes mark into cell and evaluates the resulting board. The caller
// guarantees the cell is in range and empty; this function does not
// re-validate. The input board is never mutated.
func Apply(board entity.Board, cell int, mark string) (entity.Board, string) {
	next := board.WithCell(cell, mark)
	return next, Evaluate(next)
}

// Evaluate - returns the winning mark, Tie on a full board with no winner,
// or an empty string while the game continues.
func Evaluate(board entity.Board) string {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	if board.IsFull() {
		return Tie
	}

	return entity.EmptyCell
}

// ToggleMark - the mark that moves after currentMark.
func ToggleMark(currentMark string) string {
	if currentMark == entity.MarkX {
		return entity.MarkO
	}
	return entity.MarkX
}
