package domain

// Point is a pixel position on the play surface.
type Point struct {
	X int
	Y int
}

// Layout maps pixel positions onto board cells.
type Layout struct {
	OriginX  int // board top-left, pixels
	OriginY  int
	CellSize int
	Width    int // play surface width
	TrayX    int // first offered piece
	TrayY    int
	TrayCell int // cell size of pieces waiting in the tray
	TrayGap  int // horizontal gap between offered pieces
}

// DefaultLayout matches a 400x600 window with 50px cells and the tray below
// the board. Three of the widest shapes fit the tray at 24px cells.
var DefaultLayout = Layout{
	OriginX:  0,
	OriginY:  0,
	CellSize: 50,
	Width:    400,
	TrayX:    10,
	TrayY:    450,
	TrayCell: 24,
	TrayGap:  10,
}

// TrayFits reports whether BatchSize shapes of cols columns each fit the
// surface width.
func (l Layout) TrayFits(cols int) bool {
	return l.TrayX+BatchSize*cols*l.TrayCell+(BatchSize-1)*l.TrayGap <= l.Width
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// CellOf returns the board cell containing pixel p. Points left of or above
// the board map to negative coordinates.
func (l Layout) CellOf(p Point) Pos {
	return Pos{
		Row: floorDiv(p.Y-l.OriginY, l.CellSize),
		Col: floorDiv(p.X-l.OriginX, l.CellSize),
	}
}

// PointOf returns the top-left pixel of cell pos.
func (l Layout) PointOf(pos Pos) Point {
	return Point{X: l.OriginX + pos.Col*l.CellSize, Y: l.OriginY + pos.Row*l.CellSize}
}

// Snap rounds p to the nearest cell corner in each axis, halves rounding up.
func (l Layout) Snap(p Point) Point {
	half := l.CellSize / 2
	return Point{
		X: l.OriginX + floorDiv(p.X-l.OriginX+half, l.CellSize)*l.CellSize,
		Y: l.OriginY + floorDiv(p.Y-l.OriginY+half, l.CellSize)*l.CellSize,
	}
}

// Piece is an offered shape with its color and current drag position.
type Piece struct {
	ID     int
	Shape  Shape
	Tier   Tier
	Color  Cell
	Anchor Point // top-left pixel, may be off the board while dragging
	Origin Point // tray position assigned at generation
}

// Cell returns the board cell under the piece's top-left corner.
func (p *Piece) Cell(l Layout) Pos {
	return l.CellOf(p.Anchor)
}

// CellsAt projects the shape onto the board from the current anchor.
func (p *Piece) CellsAt(l Layout) []Pos {
	return p.Shape.CellsAt(p.Cell(l))
}

// SnapToGrid moves the anchor onto the nearest cell corner.
func (p *Piece) SnapToGrid(l Layout) {
	p.Anchor = l.Snap(p.Anchor)
}

// ResetToOrigin returns the piece to its tray position.
func (p *Piece) ResetToOrigin() {
	p.Anchor = p.Origin
}

// Width and Height are the piece's pixel extents on the board.
func (p *Piece) Width(l Layout) int { return p.Shape.Cols() * l.CellSize }
func (p *Piece) Height(l Layout) int { return p.Shape.Rows() * l.CellSize }

// TrayWidth is the piece's pixel width while it waits in the tray.
func (p *Piece) TrayWidth(l Layout) int { return p.Shape.Cols() * l.TrayCell }
