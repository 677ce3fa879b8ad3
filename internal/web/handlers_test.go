package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jaminalder/blockblast/internal/app"
	"github.com/jaminalder/blockblast/internal/domain"
	"github.com/jaminalder/blockblast/internal/records"
)

func newTestServer(t *testing.T) (*app.Service, http.Handler) {
	t.Helper()
	store := records.NewStore(filepath.Join(t.TempDir(), "records.txt"), 3, nil)
	s := app.NewService(app.Options{Seed: 7, Records: store})
	h := NewServer(s, nil)
	return s, h
}

func postForm(h http.Handler, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIndexPage(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "<form") || !strings.Contains(body, "action=\"/game\"") {
		t.Fatalf("index should contain create form; got body: %q", body)
	}
}

func TestCreateRedirectsToGameAndSetsOwner(t *testing.T) {
	svc, h := newTestServer(t)
	req := httptest.NewRequest("POST", "/game", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther && rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	loc := rr.Result().Header.Get("Location")
	if !strings.HasPrefix(loc, "/game/") {
		t.Fatalf("expected redirect to /game/{id}, got %q", loc)
	}
	var playerID string
	for _, c := range rr.Result().Cookies() {
		if c.Name == "player_id" {
			playerID = c.Value
		}
	}
	if playerID == "" {
		t.Fatalf("expected player_id cookie to be set")
	}
	st, ok := svc.Get(strings.TrimPrefix(loc, "/game/"))
	if !ok || st.Owner != playerID {
		t.Fatalf("expected owner %q, got %+v", playerID, st)
	}
}

func TestGamePageHasBoardAndSSE(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("")

	req := httptest.NewRequest("GET", "/game/"+url.PathEscape(st.ID), nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "hx-ext=\"sse\"") || !strings.Contains(body, "/game/"+st.ID+"/events") {
		t.Fatalf("expected SSE wiring in page; got body: %q", body)
	}
	if strings.Count(body, "class=\"cell \"") < 64 {
		t.Fatalf("expected 64 empty board cells; got body: %q", body)
	}
	if strings.Count(body, "data-piece=") != 3 {
		t.Fatalf("expected three offered pieces; got body: %q", body)
	}
}

func TestUnknownGameIs404(t *testing.T) {
	_, h := newTestServer(t)
	for _, path := range []string{"/game/nope", "/game/nope/state", "/game/nope/events"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rr.Code)
		}
	}
	rr := postForm(h, "/game/nope/place", url.Values{"piece": {"1"}, "r": {"0"}, "c": {"0"}}, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestPlaceEndpointUpdatesStateAndReturnsFragment(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("p1")
	cookie := &http.Cookie{Name: "player_id", Value: "p1"}
	piece := st.Session.Pending[0]

	form := url.Values{"piece": {strconv.Itoa(piece.ID)}, "r": {"0"}, "c": {"0"}}
	rr := postForm(h, "/game/"+st.ID+"/place", form, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "id=\"board\"") {
		t.Fatalf("expected board fragment, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(st.ID)
	if latest.Session.Moves != 1 || latest.Session.Score < piece.Shape.Area() {
		t.Fatalf("expected move applied, moves=%d score=%d", latest.Session.Moves, latest.Session.Score)
	}

	// below the board: rejected, not an error
	next := latest.Session.Pending[0]
	form = url.Values{"piece": {strconv.Itoa(next.ID)}, "r": {"8"}, "c": {"0"}}
	rr = postForm(h, "/game/"+st.ID+"/place", form, cookie)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Doesn&#39;t fit there") {
		t.Fatalf("expected rejection note, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestDropEndpointSnapsPixels(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("")
	piece := st.Session.Pending[0]

	// 20px right of column 2, 30px below row 1: snaps to (2,2)
	form := url.Values{"piece": {strconv.Itoa(piece.ID)}, "x": {"120"}, "y": {"80"}}
	rr := postForm(h, "/game/"+st.ID+"/drop", form, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	latest, _ := svc.Get(st.ID)
	if latest.Session.Moves != 1 {
		t.Fatalf("expected move applied; body %q", rr.Body.String())
	}
	for _, p := range piece.Shape.CellsAt(domain.Pos{Row: 2, Col: 2}) {
		if empty, _ := latest.Session.Board.IsEmpty(p.Row, p.Col); empty {
			t.Fatalf("expected piece anchored at (2,2):\n%s", latest.Session.Board.String())
		}
	}
}

func TestPressDragReleaseEndpoints(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("p1")
	cookie := &http.Cookie{Name: "player_id", Value: "p1"}
	base := "/game/" + st.ID
	piece := st.Session.Pending[0]

	rr := postForm(h, base+"/release", url.Values{"x": {"0"}, "y": {"0"}}, cookie)
	if !strings.Contains(rr.Body.String(), "No piece is held") {
		t.Fatalf("expected not-held alert, got %q", rr.Body.String())
	}

	rr = postForm(h, base+"/press", url.Values{"piece": {strconv.Itoa(piece.ID)}}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("press: expected 200, got %d", rr.Code)
	}
	latest, _ := svc.Get(st.ID)
	if latest.Session.Interaction.Phase != domain.Dragging || latest.Session.Interaction.PieceID != piece.ID {
		t.Fatalf("expected piece held, got %+v", latest.Session.Interaction)
	}

	rr = postForm(h, base+"/press", url.Values{"piece": {strconv.Itoa(piece.ID)}}, cookie)
	if !strings.Contains(rr.Body.String(), "Another move is in progress") {
		t.Fatalf("expected second press to be refused, got %q", rr.Body.String())
	}

	// 10px right of column 0, 20px below row 0: snaps to (0,0)
	rr = postForm(h, base+"/drag", url.Values{"x": {"10"}, "y": {"20"}}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("drag: expected 200, got %d", rr.Code)
	}
	latest, _ = svc.Get(st.ID)
	if latest.Session.Pending[0].Anchor != (domain.Point{X: 10, Y: 20}) {
		t.Fatalf("expected anchor moved, got %+v", latest.Session.Pending[0].Anchor)
	}

	rr = postForm(h, base+"/release", url.Values{"x": {"10"}, "y": {"20"}}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("release: expected 200, got %d", rr.Code)
	}
	latest, _ = svc.Get(st.ID)
	if latest.Session.Moves != 1 || latest.Session.Interaction.Phase != domain.Idle {
		t.Fatalf("expected move applied and idle, got moves=%d %+v", latest.Session.Moves, latest.Session.Interaction)
	}
	for _, p := range piece.Shape.CellsAt(domain.Pos{}) {
		if empty, _ := latest.Session.Board.IsEmpty(p.Row, p.Col); empty {
			t.Fatalf("expected piece anchored at (0,0):\n%s", latest.Session.Board.String())
		}
	}
}

func TestCancelReturnsHeldPiece(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("")
	base := "/game/" + st.ID
	piece := st.Session.Pending[1]

	postForm(h, base+"/press", url.Values{"piece": {strconv.Itoa(piece.ID)}}, nil)
	rr := postForm(h, base+"/drag", url.Values{"x": {"75"}, "y": {"75"}}, nil)
	if !strings.Contains(rr.Body.String(), "/cancel") {
		t.Fatalf("expected put-back form for the held piece, got %q", rr.Body.String())
	}
	rr = postForm(h, base+"/cancel", nil, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Piece returned") {
		t.Fatalf("expected cancel note, got %d %q", rr.Code, rr.Body.String())
	}
	latest, _ := svc.Get(st.ID)
	if latest.Session.Interaction.Phase != domain.Idle {
		t.Fatalf("expected idle after cancel, got %v", latest.Session.Interaction.Phase)
	}
	if got := latest.Session.Pending[1]; got.Anchor != got.Origin {
		t.Fatalf("expected piece back at %+v, got %+v", got.Origin, got.Anchor)
	}
	if latest.Session.Moves != 0 {
		t.Fatalf("cancel must not place")
	}
}

func TestSpectatorCannotPress(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("p1")
	form := url.Values{"piece": {strconv.Itoa(st.Session.Pending[0].ID)}}
	rr := postForm(h, "/game/"+st.ID+"/press", form, &http.Cookie{Name: "player_id", Value: "p2"})
	if !strings.Contains(rr.Body.String(), "You are a spectator") {
		t.Fatalf("expected spectator alert, got %q", rr.Body.String())
	}
	latest, _ := svc.Get(st.ID)
	if latest.Session.Interaction.Phase != domain.Idle {
		t.Fatalf("spectator picked up a piece")
	}
	rr = postForm(h, "/game/nope/drag", url.Values{"x": {"1"}, "y": {"1"}}, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSpectatorCannotPlace(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("p1")
	form := url.Values{"piece": {strconv.Itoa(st.Session.Pending[0].ID)}, "r": {"0"}, "c": {"0"}}
	rr := postForm(h, "/game/"+st.ID+"/place", form, &http.Cookie{Name: "player_id", Value: "p2"})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "You are a spectator") {
		t.Fatalf("expected spectator alert, got %d %q", rr.Code, rr.Body.String())
	}
	latest, _ := svc.Get(st.ID)
	if latest.Session.Moves != 0 {
		t.Fatalf("spectator move applied")
	}
}

func TestBadFormIsInvalidMove(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("")
	rr := postForm(h, "/game/"+st.ID+"/place", url.Values{"piece": {"x"}}, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Invalid move") {
		t.Fatalf("expected invalid move alert, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestRestartEndpoint(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("")
	if _, _, err := svc.PlaceAt(context.Background(), st.ID, st.Session.Pending[0].ID, 0, 0); err != nil {
		t.Fatalf("place: %v", err)
	}
	rr := postForm(h, "/game/"+st.ID+"/restart", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	latest, _ := svc.Get(st.ID)
	if latest.Session.Score != 0 || latest.Session.Board.Filled() != 0 {
		t.Fatalf("expected fresh session after restart")
	}
}

func TestStateAndRecordsJSON(t *testing.T) {
	svc, h := newTestServer(t)
	st, _ := svc.CreateSession("")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/game/"+st.ID+"/state", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var v boardView
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if v.ID != st.ID || len(v.Rows) != 8 || len(v.Pending) != 3 || v.Phase != "idle" {
		t.Fatalf("unexpected state %+v", v)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/records", nil))
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != `{"records":[]}` {
		t.Fatalf("unexpected records response %d %q", rr.Code, rr.Body.String())
	}
}

func TestEventsEndpointSSEHeaders(t *testing.T) {
	_, h := newTestServer(t)
	reqCreate := httptest.NewRequest("POST", "/game", nil)
	rrCreate := httptest.NewRecorder()
	h.ServeHTTP(rrCreate, reqCreate)
	loc := rrCreate.Result().Header.Get("Location")
	if loc == "" {
		t.Fatalf("missing redirect location")
	}
	req := httptest.NewRequest("GET", loc+"/events", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	ct := rr.Result().Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/event-stream") {
		io.Copy(io.Discard, rr.Result().Body)
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
}
