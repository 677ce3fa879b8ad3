package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jaminalder/blockblast/internal/domain"
)

var cellColors = map[domain.Cell]tcell.Color{
	domain.Red:    tcell.ColorRed,
	domain.Green:  tcell.ColorGreen,
	domain.Blue:   tcell.ColorBlue,
	domain.Yellow: tcell.ColorYellow,
	domain.Purple: tcell.ColorPurple,
	domain.Orange: tcell.ColorOrange,
	domain.Cyan:   tcell.ColorTeal,
}

const (
	emptyRune = '·'
	blockRune = '█'
	trayRows  = 6 // tray height below the board, in cells
)

// App wires a Controller to a tview application.
type App struct {
	app    *tview.Application
	board  *tview.Box
	status *tview.TextView
	ctl    *Controller
}

// NewApp builds the layout: board on the left, score and records on the right.
func NewApp(ctl *Controller) *App {
	a := &App{
		app:    tview.NewApplication(),
		board:  tview.NewBox(),
		status: tview.NewTextView().SetDynamicColors(true),
		ctl:    ctl,
	}
	a.board.SetBorder(true).SetTitle(" Block Blast ")
	a.status.SetBorder(true).SetTitle(" Status ").SetTitleAlign(tview.AlignLeft)
	a.status.SetBorderPadding(0, 0, 1, 1)
	a.board.SetDrawFunc(a.draw)

	layout := tview.NewFlex().
		AddItem(a.board, domain.GridSize*2+2+24, 0, true).
		AddItem(a.status, 0, 1, false)
	a.app.SetRoot(layout, true)
	a.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if !a.ctl.HandleKey(ev) {
			return ev
		}
		if a.ctl.Quit() {
			a.app.Stop()
			return nil
		}
		a.refreshStatus()
		return nil
	})
	a.refreshStatus()
	return a
}

// Run blocks until the player quits.
func (a *App) Run() error {
	return a.app.Run()
}

func (a *App) refreshStatus() {
	s := a.ctl.Session
	var sb strings.Builder
	fmt.Fprintf(&sb, "[yellow]Score[-] %d\n[yellow]Lines[-] %d\n\n", s.Score, s.LinesCleared)
	sb.WriteString("[yellow]Records[-]\n")
	if len(a.ctl.Records) == 0 {
		sb.WriteString("  none yet\n")
	}
	for i, r := range a.ctl.Records {
		fmt.Fprintf(&sb, "  %d. %d\n", i+1, r)
	}
	fmt.Fprintf(&sb, "\n%s\n", tview.Escape(a.ctl.Status))
	a.status.SetText(sb.String())
}

// draw renders two terminal columns per cell for a square look.
func (a *App) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	s := a.ctl.Session
	l := s.Layout
	base := tcell.StyleDefault

	put := func(pos domain.Pos, r rune, st tcell.Style) {
		sx, sy := x+1+pos.Col*2, y+1+pos.Row
		if sx < x || sy < y || sx+1 >= x+width || sy >= y+height {
			return
		}
		screen.SetContent(sx, sy, r, nil, st)
		screen.SetContent(sx+1, sy, r, nil, st)
	}

	for r := 0; r < domain.GridSize; r++ {
		for c := 0; c < domain.GridSize; c++ {
			cell, _ := s.Board.At(r, c)
			if cell == domain.Empty {
				put(domain.Pos{Row: r, Col: c}, emptyRune, base.Foreground(tcell.ColorGray))
				continue
			}
			put(domain.Pos{Row: r, Col: c}, blockRune, base.Foreground(cellColors[cell]))
		}
	}

	held, holding := a.ctl.Held()
	trayCol := 0
	for i := range s.Pending {
		p := &s.Pending[i]
		// tray pieces sit left to right in offer order, one cell apart
		tray := domain.Pos{Row: domain.GridSize + 1, Col: trayCol}
		trayCol += p.Shape.Cols() + 1
		label := domain.Pos{Row: tray.Row + trayRows - 1, Col: tray.Col}
		put(label, rune('1'+i), base)

		anchor := l.CellOf(p.Anchor)
		if holding && p.ID == held.ID {
			st := base.Foreground(cellColors[p.Color])
			if !domain.CanPlace(&s.Board, p.Shape, anchor) {
				st = st.Blink(true)
			}
			for _, c := range p.Shape.CellsAt(anchor) {
				put(c, '▓', st)
			}
			continue
		}
		for _, c := range p.Shape.CellsAt(tray) {
			put(c, blockRune, base.Foreground(cellColors[p.Color]))
		}
	}
	return x, y, width, height
}
