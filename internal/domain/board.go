package domain

import (
	"errors"
	"fmt"
	"strings"
)

// GridSize is the number of rows and columns on the board.
const GridSize = 8

// Cell represents a board cell state: Empty or the color tag of the piece
// that filled it.
type Cell uint8

const (
	Empty Cell = iota
	Red
	Green
	Blue
	Yellow
	Purple
	Orange
	Cyan
)

// Palette lists the colors the generator draws from.
var Palette = []Cell{Red, Green, Blue, Yellow, Purple, Orange, Cyan}

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Yellow:
		return "yellow"
	case Purple:
		return "purple"
	case Orange:
		return "orange"
	case Cyan:
		return "cyan"
	default:
		return fmt.Sprintf("cell(%d)", uint8(c))
	}
}

// Errors returned by domain operations.
var (
	ErrOutOfBounds      = errors.New("out of bounds")
	ErrIllegalPlacement = errors.New("illegal placement")
)

// Pos is a board cell coordinate.
type Pos struct {
	Row int
	Col int
}

// InBounds reports whether p lies on the board.
func (p Pos) InBounds() bool {
	return p.Row >= 0 && p.Row < GridSize && p.Col >= 0 && p.Col < GridSize
}

// Board is a fixed 8x8 board stored row-major.
type Board [GridSize * GridSize]Cell

// At returns the cell at row r, column c.
func (b *Board) At(r, c int) (Cell, error) {
	if !(Pos{r, c}).InBounds() {
		return Empty, ErrOutOfBounds
	}
	return b[r*GridSize+c], nil
}

// IsEmpty reports whether the cell at row r, column c is empty.
func (b *Board) IsEmpty(r, c int) (bool, error) {
	cell, err := b.At(r, c)
	if err != nil {
		return false, err
	}
	return cell == Empty, nil
}

// Occupy fills the cell at row r, column c with tag. Callers validate
// coordinates first; an out of range cell is reported, never ignored.
func (b *Board) Occupy(r, c int, tag Cell) error {
	if !(Pos{r, c}).InBounds() {
		return fmt.Errorf("occupy (%d,%d): %w", r, c, ErrOutOfBounds)
	}
	b[r*GridSize+c] = tag
	return nil
}

// ClearRow empties every cell of row r.
func (b *Board) ClearRow(r int) {
	for c := 0; c < GridSize; c++ {
		b[r*GridSize+c] = Empty
	}
}

// ClearCol empties every cell of column c.
func (b *Board) ClearCol(c int) {
	for r := 0; r < GridSize; r++ {
		b[r*GridSize+c] = Empty
	}
}

// FullRows returns the indices of rows with no empty cell, ascending.
func (b *Board) FullRows() []int {
	var rows []int
	for r := 0; r < GridSize; r++ {
		full := true
		for c := 0; c < GridSize; c++ {
			if b[r*GridSize+c] == Empty {
				full = false
				break
			}
		}
		if full {
			rows = append(rows, r)
		}
	}
	return rows
}

// FullCols returns the indices of columns with no empty cell, ascending.
func (b *Board) FullCols() []int {
	var cols []int
	for c := 0; c < GridSize; c++ {
		full := true
		for r := 0; r < GridSize; r++ {
			if b[r*GridSize+c] == Empty {
				full = false
				break
			}
		}
		if full {
			cols = append(cols, c)
		}
	}
	return cols
}

// Filled counts the non-empty cells.
func (b *Board) Filled() int {
	n := 0
	for _, c := range b {
		if c != Empty {
			n++
		}
	}
	return n
}

// String renders the board as rows of '.' and '#', one line per row.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if b[r*GridSize+c] == Empty {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
