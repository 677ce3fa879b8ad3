package domain

import "errors"

// Session errors.
var (
	ErrSessionOver     = errors.New("session over")
	ErrUnknownPiece    = errors.New("unknown piece")
	ErrAlreadyDragging = errors.New("already dragging a piece")
	ErrNotDragging     = errors.New("no piece is being dragged")
)

// Phase is the interaction state of a session.
type Phase uint8

const (
	Idle Phase = iota
	Dragging
	Resolving
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// Interaction tracks which piece, if any, the player holds.
type Interaction struct {
	Phase   Phase
	PieceID int // valid while Dragging or Resolving
}

// Outcome is the result of releasing a piece. A rejected drop has
// Placed == false and is not an error.
type Outcome struct {
	PieceID    int
	Placed     bool
	ScoreDelta int
	Lines      int
	Rows       []int
	Cols       []int
	Refilled   bool
	GameOver   bool
}

// Session holds the state of one game.
type Session struct {
	Board        Board
	Pending      []Piece
	Score        int
	Moves        int
	LinesCleared int
	Over         bool
	Layout       Layout
	Interaction  Interaction

	gen *Generator
}

// NewSession starts a game on an empty board with a fresh batch.
func NewSession(gen *Generator, layout Layout) *Session {
	s := &Session{Layout: layout, gen: gen}
	s.Pending = gen.Batch(0)
	return s
}

// Reset returns a fresh session sharing the generator.
func (s *Session) Reset() *Session {
	return NewSession(s.gen, s.Layout)
}

// Clone returns a read-only snapshot. The clone cannot draw new pieces.
func (s *Session) Clone() Session {
	cp := *s
	cp.Pending = append([]Piece(nil), s.Pending...)
	cp.gen = nil
	return cp
}

func (s *Session) indexOf(id int) int {
	for i := range s.Pending {
		if s.Pending[i].ID == id {
			return i
		}
	}
	return -1
}

// Piece returns the pending piece with id.
func (s *Session) Piece(id int) (*Piece, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return &s.Pending[i], true
}

// Press picks up a pending piece.
func (s *Session) Press(id int) error {
	if s.Over {
		return ErrSessionOver
	}
	if s.Interaction.Phase != Idle {
		return ErrAlreadyDragging
	}
	if s.indexOf(id) < 0 {
		return ErrUnknownPiece
	}
	s.Interaction = Interaction{Phase: Dragging, PieceID: id}
	return nil
}

// Drag moves the held piece's anchor to p.
func (s *Session) Drag(p Point) error {
	if s.Interaction.Phase != Dragging {
		return ErrNotDragging
	}
	piece, ok := s.Piece(s.Interaction.PieceID)
	if !ok {
		s.Interaction = Interaction{}
		return ErrUnknownPiece
	}
	piece.Anchor = p
	return nil
}

// Cancel drops the held piece back into the tray.
func (s *Session) Cancel() error {
	if s.Interaction.Phase != Dragging {
		return ErrNotDragging
	}
	if piece, ok := s.Piece(s.Interaction.PieceID); ok {
		piece.ResetToOrigin()
	}
	s.Interaction = Interaction{}
	return nil
}

// Release drops the held piece at raw anchor p.
func (s *Session) Release(p Point) (Outcome, error) {
	if s.Interaction.Phase != Dragging {
		return Outcome{}, ErrNotDragging
	}
	i := s.indexOf(s.Interaction.PieceID)
	if i < 0 {
		s.Interaction = Interaction{}
		return Outcome{}, ErrUnknownPiece
	}
	s.Interaction.Phase = Resolving
	s.Pending[i].Anchor = p
	out := s.resolve(i)
	s.Interaction = Interaction{}
	return out, nil
}

// Place picks up piece id and drops it at raw anchor p in one step.
func (s *Session) Place(id int, p Point) (Outcome, error) {
	if err := s.Press(id); err != nil {
		return Outcome{}, err
	}
	return s.Release(p)
}

// PlaceAt drops piece id with its top-left cell on pos.
func (s *Session) PlaceAt(id int, pos Pos) (Outcome, error) {
	return s.Place(id, s.Layout.PointOf(pos))
}

func (s *Session) resolve(i int) Outcome {
	piece := &s.Pending[i]
	out := Outcome{PieceID: piece.ID}
	piece.SnapToGrid(s.Layout)
	at := piece.Cell(s.Layout)
	if !CanPlace(&s.Board, piece.Shape, at) {
		piece.ResetToOrigin()
		return out
	}

	out.Placed = true
	out.ScoreDelta = Place(&s.Board, piece.Shape, at, piece.Color)
	cl := ClearLines(&s.Board)
	out.ScoreDelta += cl.Score
	out.Lines, out.Rows, out.Cols = cl.Lines, cl.Rows, cl.Cols

	s.Score += out.ScoreDelta
	s.Moves++
	s.LinesCleared += cl.Lines
	s.Pending = append(s.Pending[:i], s.Pending[i+1:]...)
	if len(s.Pending) == 0 {
		s.Refill()
		out.Refilled = true
	}
	s.Over = IsSessionOver(&s.Board, s.Pending)
	out.GameOver = s.Over
	return out
}

// Refill draws a new batch when every pending piece has been placed. It is a
// no-op while pieces remain.
func (s *Session) Refill() []Piece {
	if len(s.Pending) == 0 && s.gen != nil {
		s.Pending = s.gen.Batch(s.Score)
	}
	return s.Pending
}
