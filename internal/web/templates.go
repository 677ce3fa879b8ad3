package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaminalder/blockblast/internal/app"
	"github.com/jaminalder/blockblast/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"iter": func(n int) []int {
			a := make([]int, n)
			for i := range a {
				a[i] = i
			}
			return a
		},
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Block Blast</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.grid{display:grid;grid-template-columns:repeat(8,32px);gap:2px}
.cell{width:32px;height:32px;background:#eee}
.red{background:#e33}.green{background:#3c3}.blue{background:#36e}
.yellow{background:#ec3}.purple{background:#a3d}.orange{background:#f93}.cyan{background:#3dd}
.mini{display:inline-grid;gap:1px;margin:4px}
.mini .cell{width:14px;height:14px}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Funcs(funcs()).Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Block Blast</h1>
<form action="/game" method="post"><button>New game</button></form>
{{if .Records}}<h2>Records</h2><ol id="records">{{range .Records}}<li>{{.}}</li>{{end}}</ol>{{end}}`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board" hx-sse="swap:board">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, name string, data any) []byte {
	var buf bytes.Buffer
	if name == "" {
		_ = t.Execute(&buf, data)
	} else {
		_ = t.ExecuteTemplate(&buf, name, data)
	}
	return buf.Bytes()
}

const boardTemplate = `
<div id="board">
  <p class="score">Score: <span id="score">{{.Score}}</span> Lines: {{.Lines}}</p>
  {{if .Error}}<div class="alert">{{.Error}}</div>{{end}}
  {{if .Message}}<div class="note">{{.Message}}</div>{{end}}
  {{if .Over}}
  <div class="over">Game over
    <form hx-post="/game/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML" method="post"><button>Play again</button></form>
  </div>
  {{end}}
  <div class="grid">
    {{range .Rows}}{{range .}}<div class="cell {{.}}"></div>{{end}}{{end}}
  </div>
  <div class="tray">
    {{range $p := .Pending}}
    <div class="piece" data-piece="{{$p.ID}}">
      <div class="mini" style="grid-template-columns:repeat({{$p.Cols}},14px)">
        {{range $p.Mask}}{{range .}}<div class="cell {{if .}}{{$p.Color}}{{end}}"></div>{{end}}{{end}}
      </div>
      {{if eq $.Held $p.ID}}
      <form hx-post="/game/{{$.ID}}/cancel" hx-target="#board" hx-swap="outerHTML" method="post"><button>Put back</button></form>
      {{else if not $.Over}}
      <form hx-post="/game/{{$.ID}}/place" hx-target="#board" hx-swap="outerHTML" method="post">
        <input type="hidden" name="piece" value="{{$p.ID}}">
        <select name="r">{{range $i := iter 8}}<option>{{$i}}</option>{{end}}</select>
        <select name="c">{{range $i := iter 8}}<option>{{$i}}</option>{{end}}</select>
        <button type="submit">Place</button>
      </form>
      {{end}}
    </div>
    {{end}}
  </div>
</div>
`

// boardView is the template and JSON model of a session.
type boardView struct {
	ID      string      `json:"id"`
	Score   int         `json:"score"`
	Lines   int         `json:"lines"`
	Moves   int         `json:"moves"`
	Over    bool        `json:"over"`
	Phase   string      `json:"phase"`
	Held    int         `json:"held,omitempty"` // piece being dragged
	Rows    [][]string  `json:"board"`
	Pending []pieceView `json:"pending"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type pieceView struct {
	ID     int      `json:"id"`
	Shape  string   `json:"shape"`
	Tier   string   `json:"tier"`
	Color  string   `json:"color"`
	Cols   int      `json:"cols"`
	Mask   [][]bool `json:"mask"`
	Anchor [2]int   `json:"anchor"`
}

func newBoardView(st app.SessionState) boardView {
	g := st.Session
	v := boardView{
		ID:    st.ID,
		Score: g.Score,
		Lines: g.LinesCleared,
		Moves: g.Moves,
		Over:  g.Over,
		Phase: g.Interaction.Phase.String(),
		Rows:  make([][]string, domain.GridSize),
	}
	if g.Interaction.Phase == domain.Dragging {
		v.Held = g.Interaction.PieceID
	}
	for r := range v.Rows {
		v.Rows[r] = make([]string, domain.GridSize)
		for c := range v.Rows[r] {
			if cell, _ := g.Board.At(r, c); cell != domain.Empty {
				v.Rows[r][c] = cell.String()
			}
		}
	}
	for _, p := range g.Pending {
		pv := pieceView{
			ID:     p.ID,
			Shape:  p.Shape.Name(),
			Tier:   p.Tier.String(),
			Color:  p.Color.String(),
			Cols:   p.Shape.Cols(),
			Mask:   make([][]bool, p.Shape.Rows()),
			Anchor: [2]int{p.Anchor.X, p.Anchor.Y},
		}
		for r := range pv.Mask {
			pv.Mask[r] = make([]bool, p.Shape.Cols())
			for c := range pv.Mask[r] {
				pv.Mask[r][c] = p.Shape.Filled(r, c)
			}
		}
		v.Pending = append(v.Pending, pv)
	}
	return v
}

// Helper to set cookie
func ensurePlayerCookie(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie("player_id"); err == nil && c.Value != "" {
		return c.Value
	}
	v := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "player_id", Value: v, Path: "/"})
	return v
}
