// Package tui is a terminal client for blockblast built on tview.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/jaminalder/blockblast/internal/domain"
)

// RecordStore keeps the best final scores.
type RecordStore interface {
	Load(ctx context.Context) []int
	Append(ctx context.Context, score int) ([]int, error)
}

// Controller maps key events onto a session. Arrow keys drag the held piece
// one cell at a time.
type Controller struct {
	Session *domain.Session
	Records []int
	Status  string

	store    RecordStore
	log      *slog.Logger
	recorded bool
	quit     bool
}

// NewController starts on session and loads records from store, which may
// be nil.
func NewController(session *domain.Session, store RecordStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{Session: session, store: store, log: logger}
	if store != nil {
		c.Records = store.Load(context.Background())
	}
	c.Status = "1-3 pick a piece, arrows move, Enter drops, Esc cancels"
	return c
}

// Quit reports whether the player asked to leave.
func (c *Controller) Quit() bool { return c.quit }

// Held returns the piece being dragged, if any.
func (c *Controller) Held() (*domain.Piece, bool) {
	if c.Session.Interaction.Phase != domain.Dragging {
		return nil, false
	}
	return c.Session.Piece(c.Session.Interaction.PieceID)
}

// HandleKey applies one key event and reports whether it was consumed.
func (c *Controller) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyUp:
		c.move(-1, 0)
	case tcell.KeyDown:
		c.move(1, 0)
	case tcell.KeyLeft:
		c.move(0, -1)
	case tcell.KeyRight:
		c.move(0, 1)
	case tcell.KeyEnter:
		c.drop()
	case tcell.KeyEsc:
		if err := c.Session.Cancel(); err == nil {
			c.Status = "Piece returned"
		}
	case tcell.KeyRune:
		switch r := ev.Rune(); r {
		case 'h':
			c.move(0, -1)
		case 'j':
			c.move(1, 0)
		case 'k':
			c.move(-1, 0)
		case 'l':
			c.move(0, 1)
		case 'r':
			c.restart()
		case 'q':
			c.quit = true
		default:
			if r >= '1' && r <= '9' {
				c.pick(int(r - '1'))
			} else {
				return false
			}
		}
	default:
		return false
	}
	return true
}

func (c *Controller) pick(i int) {
	if i >= len(c.Session.Pending) {
		return
	}
	id := c.Session.Pending[i].ID
	if err := c.Session.Press(id); err != nil {
		c.Status = describe(err)
		return
	}
	// lift onto the board's top-left corner
	_ = c.Session.Drag(c.Session.Layout.PointOf(domain.Pos{}))
	c.Status = fmt.Sprintf("Holding piece %d", i+1)
}

func (c *Controller) move(dr, dc int) {
	p, ok := c.Held()
	if !ok {
		return
	}
	step := c.Session.Layout.CellSize
	_ = c.Session.Drag(domain.Point{X: p.Anchor.X + dc*step, Y: p.Anchor.Y + dr*step})
}

func (c *Controller) drop() {
	p, ok := c.Held()
	if !ok {
		return
	}
	out, err := c.Session.Release(p.Anchor)
	if err != nil {
		c.Status = describe(err)
		return
	}
	switch {
	case !out.Placed:
		c.Status = "Doesn't fit there"
	case out.Lines > 1:
		c.Status = fmt.Sprintf("+%d combo x%d!", out.ScoreDelta, out.Lines)
	default:
		c.Status = fmt.Sprintf("+%d", out.ScoreDelta)
	}
	if out.GameOver {
		c.finish()
	}
}

func (c *Controller) finish() {
	c.Status = fmt.Sprintf("Game over with %d points. r to restart, q to quit", c.Session.Score)
	if c.recorded || c.store == nil {
		return
	}
	c.recorded = true
	recs, err := c.store.Append(context.Background(), c.Session.Score)
	if err != nil {
		c.log.Warn("record append failed", "err", err)
		return
	}
	c.Records = recs
}

func (c *Controller) restart() {
	c.Session = c.Session.Reset()
	c.recorded = false
	c.Status = "New game"
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionOver):
		return "Game is over. r to restart"
	case errors.Is(err, domain.ErrAlreadyDragging):
		return "Drop or cancel the held piece first"
	default:
		return err.Error()
	}
}
