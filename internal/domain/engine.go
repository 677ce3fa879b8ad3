package domain

import "fmt"

// PlacementMultiplier scales the area of a placed shape into score.
const PlacementMultiplier = 1

// Line clear bonuses. A single line pays SingleLineBonus; n simultaneous
// lines pay n*ComboLineBonus.
const (
	SingleLineBonus = GridSize*3 + 5
	ComboLineBonus  = GridSize*5 + 10
)

// CanPlace reports whether every cell of shape anchored at pos is on the
// board and empty. It never mutates b.
func CanPlace(b *Board, shape Shape, at Pos) bool {
	for _, p := range shape.CellsAt(at) {
		if !p.InBounds() {
			return false
		}
		if b[p.Row*GridSize+p.Col] != Empty {
			return false
		}
	}
	return true
}

// Place fills the shape's cells with color and returns the placement score.
// Callers must check CanPlace first; an illegal placement panics and leaves
// the board untouched.
func Place(b *Board, shape Shape, at Pos, color Cell) int {
	if !CanPlace(b, shape, at) {
		panic(fmt.Errorf("place %s at (%d,%d): %w", shape.Name(), at.Row, at.Col, ErrIllegalPlacement))
	}
	for _, p := range shape.CellsAt(at) {
		b[p.Row*GridSize+p.Col] = color
	}
	return shape.Area() * PlacementMultiplier
}

// Clear describes the lines removed by one ClearLines call.
type Clear struct {
	Rows  []int
	Cols  []int
	Lines int
	Score int
}

// ClearLines empties every full row and column of the current board.
// Full lines are collected before any cell is cleared, so a cell shared by a
// full row and a full column counts toward both.
func ClearLines(b *Board) Clear {
	cl := Clear{Rows: b.FullRows(), Cols: b.FullCols()}
	for _, r := range cl.Rows {
		b.ClearRow(r)
	}
	for _, c := range cl.Cols {
		b.ClearCol(c)
	}
	cl.Lines = len(cl.Rows) + len(cl.Cols)
	cl.Score = LineScore(cl.Lines)
	return cl
}

// LineScore is the bonus for clearing n lines at once.
func LineScore(n int) int {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return SingleLineBonus
	default:
		return n * ComboLineBonus
	}
}

// HasAnyLegalMove reports whether any pending piece fits anywhere on b.
func HasAnyLegalMove(b *Board, pending []Piece) bool {
	for i := range pending {
		s := pending[i].Shape
		for r := 0; r <= GridSize-s.Rows(); r++ {
			for c := 0; c <= GridSize-s.Cols(); c++ {
				if CanPlace(b, s, Pos{Row: r, Col: c}) {
					return true
				}
			}
		}
	}
	return false
}

// IsSessionOver reports whether no pending piece can be placed. An empty
// pending set is mid-regeneration and never over.
func IsSessionOver(b *Board, pending []Piece) bool {
	if len(pending) == 0 {
		return false
	}
	return !HasAnyLegalMove(b, pending)
}
