package domain

// Tier is a difficulty bucket of shapes. It only drives weighted generation;
// placement rules never look at it.
type Tier uint8

const (
	TierSquare Tier = iota
	TierLine
	TierSmallCorner
	TierLShape
	TierLargeCorner
)

// TierCount is the number of tiers in the catalog.
const TierCount = 5

func (t Tier) String() string {
	switch t {
	case TierSquare:
		return "square"
	case TierLine:
		return "line"
	case TierSmallCorner:
		return "small-corner"
	case TierLShape:
		return "l-shape"
	case TierLargeCorner:
		return "large-corner"
	default:
		return "unknown"
	}
}

// Shape is an immutable rectangular mask with at least one filled cell.
type Shape struct {
	name  string
	rows  int
	cols  int
	cells []Pos
}

// mustShape builds a shape from rows of '#' (filled) and '.' (blank).
func mustShape(name string, rows ...string) Shape {
	s := Shape{name: name, rows: len(rows)}
	for r, line := range rows {
		if len(line) > s.cols {
			s.cols = len(line)
		}
		for c, ch := range line {
			if ch == '#' {
				s.cells = append(s.cells, Pos{Row: r, Col: c})
			}
		}
	}
	if len(s.cells) == 0 {
		panic("shape " + name + " has no cells")
	}
	return s
}

func (s Shape) Name() string { return s.name }
func (s Shape) Rows() int { return s.rows }
func (s Shape) Cols() int { return s.cols }

// Area is the number of filled cells.
func (s Shape) Area() int { return len(s.cells) }

// Filled reports whether the mask cell at (r, c) is set.
func (s Shape) Filled(r, c int) bool {
	for _, p := range s.cells {
		if p.Row == r && p.Col == c {
			return true
		}
	}
	return false
}

// CellsAt translates the mask so its top-left corner sits at anchor.
func (s Shape) CellsAt(anchor Pos) []Pos {
	out := make([]Pos, len(s.cells))
	for i, p := range s.cells {
		out[i] = Pos{Row: anchor.Row + p.Row, Col: anchor.Col + p.Col}
	}
	return out
}

// Rotated variants are listed explicitly; nothing rotates at runtime.
var catalog = [TierCount][]Shape{
	TierSquare: {
		mustShape("dot", "#"),
		mustShape("square2", "##", "##"),
		mustShape("square3", "###", "###", "###"),
	},
	TierLine: {
		mustShape("line2h", "##"),
		mustShape("line2v", "#", "#"),
		mustShape("line3h", "###"),
		mustShape("line3v", "#", "#", "#"),
		mustShape("line4h", "####"),
		mustShape("line4v", "#", "#", "#", "#"),
		mustShape("line5h", "#####"),
		mustShape("line5v", "#", "#", "#", "#", "#"),
	},
	TierSmallCorner: {
		mustShape("corner2-nw", "##", "#."),
		mustShape("corner2-ne", "##", ".#"),
		mustShape("corner2-sw", "#.", "##"),
		mustShape("corner2-se", ".#", "##"),
	},
	TierLShape: {
		mustShape("l-0", "#.", "#.", "##"),
		mustShape("l-90", "###", "#.."),
		mustShape("l-180", "##", ".#", ".#"),
		mustShape("l-270", "..#", "###"),
		mustShape("j-0", ".#", ".#", "##"),
		mustShape("j-90", "#..", "###"),
		mustShape("j-180", "##", "#.", "#."),
		mustShape("j-270", "###", "..#"),
	},
	TierLargeCorner: {
		mustShape("corner3-nw", "###", "#..", "#.."),
		mustShape("corner3-ne", "###", "..#", "..#"),
		mustShape("corner3-sw", "#..", "#..", "###"),
		mustShape("corner3-se", "..#", "..#", "###"),
	},
}

// Catalog returns every tier's shapes in tier order. The slices must not be
// modified.
func Catalog() [TierCount][]Shape {
	return catalog
}

// ShapesOf returns the shapes of tier t. The slice must not be modified.
func ShapesOf(t Tier) []Shape {
	if int(t) >= TierCount {
		return nil
	}
	return catalog[t]
}

// LookupShape finds a catalog shape by name.
func LookupShape(name string) (Shape, Tier, bool) {
	for t, shapes := range catalog {
		for _, s := range shapes {
			if s.name == name {
				return s, Tier(t), true
			}
		}
	}
	return Shape{}, 0, false
}
