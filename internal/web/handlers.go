package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jaminalder/blockblast/internal/app"
	"github.com/jaminalder/blockblast/internal/domain"
)

type handlers struct {
	svc *app.Service
	tpl *templates
	log *slog.Logger
}

func (h *handlers) renderBoard(st app.SessionState, msg, errMsg string) []byte {
	v := newBoardView(st)
	v.Message, v.Error = msg, errMsg
	return renderTemplate(h.tpl.board, "", v)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	data := struct{ Records []int }{Records: h.svc.Records(r.Context())}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderTemplate(h.tpl.index, "base", data))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	st, err := h.svc.CreateSession(pid)
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+st.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ensurePlayerCookie(w, r)
	st, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	v := newBoardView(*st)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	// Render page with embedded board container
	_, _ = w.Write(renderTemplate(h.tpl.game, "base", v))
}

func formInt(r *http.Request, key string) (int, error) {
	v, err := strconv.Atoi(r.Form.Get(key))
	if err != nil {
		return 0, fmt.Errorf("bad %s: %w", key, err)
	}
	return v, nil
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrNotAPlayer):
		return "You are a spectator"
	case errors.Is(err, domain.ErrSessionOver):
		return "Game is over"
	case errors.Is(err, domain.ErrUnknownPiece):
		return "That piece is no longer available"
	case errors.Is(err, domain.ErrAlreadyDragging):
		return "Another move is in progress"
	case errors.Is(err, domain.ErrNotDragging):
		return "No piece is held"
	default:
		return "Invalid move"
	}
}

func outcomeMessage(out domain.Outcome) string {
	switch {
	case !out.Placed:
		return "Doesn't fit there"
	case out.Lines > 1:
		return fmt.Sprintf("+%d combo x%d", out.ScoreDelta, out.Lines)
	default:
		return fmt.Sprintf("+%d", out.ScoreDelta)
	}
}

// act authorizes the player and applies fn to session id, rendering the board
// fragment with fn's message or an inline alert.
func (h *handlers) act(w http.ResponseWriter, r *http.Request, fn func(id string) (string, *app.SessionState, error)) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	_ = r.ParseForm()

	var msg string
	var st *app.SessionState
	err := h.svc.Authorize(id, pid)
	if errors.Is(err, app.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err == nil {
		msg, st, err = fn(id)
	}
	var errMsg string
	if err != nil {
		msg, errMsg = "", errorMessage(err)
		h.log.Debug("move failed", "id", id, "err", err)
	}
	if st == nil {
		if latest, ok := h.svc.Get(id); ok {
			st = latest
		}
	}
	if st == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*st, msg, errMsg))
}

func formPoint(r *http.Request) (domain.Point, error) {
	x, err := formInt(r, "x")
	if err != nil {
		return domain.Point{}, err
	}
	y, err := formInt(r, "y")
	if err != nil {
		return domain.Point{}, err
	}
	return domain.Point{X: x, Y: y}, nil
}

// place drops a piece with its top-left cell on form fields r and c.
func (h *handlers) place(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id string) (string, *app.SessionState, error) {
		pieceID, err := formInt(r, "piece")
		if err != nil {
			return "", nil, err
		}
		row, err := formInt(r, "r")
		if err != nil {
			return "", nil, err
		}
		col, err := formInt(r, "c")
		if err != nil {
			return "", nil, err
		}
		out, st, err := h.svc.PlaceAt(r.Context(), id, pieceID, row, col)
		return outcomeMessage(out), st, err
	})
}

// drop picks up a piece and releases it at raw pixels x and y in one request.
func (h *handlers) drop(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id string) (string, *app.SessionState, error) {
		pieceID, err := formInt(r, "piece")
		if err != nil {
			return "", nil, err
		}
		p, err := formPoint(r)
		if err != nil {
			return "", nil, err
		}
		out, st, err := h.svc.Place(r.Context(), id, pieceID, p.X, p.Y)
		return outcomeMessage(out), st, err
	})
}

// press picks up the piece named by form field piece.
func (h *handlers) press(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id string) (string, *app.SessionState, error) {
		pieceID, err := formInt(r, "piece")
		if err != nil {
			return "", nil, err
		}
		st, err := h.svc.Press(id, pieceID)
		return "", st, err
	})
}

// drag moves the held piece to pixels x and y.
func (h *handlers) drag(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id string) (string, *app.SessionState, error) {
		p, err := formPoint(r)
		if err != nil {
			return "", nil, err
		}
		st, err := h.svc.Drag(id, p.X, p.Y)
		return "", st, err
	})
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id string) (string, *app.SessionState, error) {
		st, err := h.svc.Cancel(id)
		return "Piece returned", st, err
	})
}

// release drops the held piece at pixels x and y, as a drag client reports
// them.
func (h *handlers) release(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(id string) (string, *app.SessionState, error) {
		p, err := formPoint(r)
		if err != nil {
			return "", nil, err
		}
		out, st, err := h.svc.Release(r.Context(), id, p.X, p.Y)
		return outcomeMessage(out), st, err
	})
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)
	if err := h.svc.Authorize(id, pid); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		st, _ := h.svc.Get(id)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(h.renderBoard(*st, "", errorMessage(err)))
		return
	}
	st, err := h.svc.Restart(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.renderBoard(*st, "New game", ""))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	st, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, newBoardView(*st))
}

func (h *handlers) records(w http.ResponseWriter, r *http.Request) {
	recs := h.svc.Records(r.Context())
	if recs == nil {
		recs = []int{}
	}
	writeJSON(w, struct {
		Records []int `json:"records"`
	}{recs})
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	defer unsub()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: board\n")
			_, _ = fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}
