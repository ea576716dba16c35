package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/game"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/model"
	"github.com/marketgame/market-engine/internal/notify"
	"github.com/marketgame/market-engine/internal/random"
	"github.com/marketgame/market-engine/internal/scenario"
	"github.com/marketgame/market-engine/internal/server"
	"github.com/marketgame/market-engine/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

type testEnv struct {
	svc      *server.Service
	router   http.Handler
	playerID string
	assetID  string
	hub      *server.Hub
}

// newTestEnv serves a one-player game with a single stock priced at 100.
// Random regime switches, events and story injection are off.
func newTestEnv(t *testing.T, withHub bool) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rng := random.New(3)

	mc := market.DefaultConfig()
	mc.RegimeSwitchChance = 0
	mc.RandomEventChance = 0
	gc := game.DefaultConfig()
	gc.StoryEventChance = 0

	s, err := scenario.NewBuilder(mc, rng, logger).
		AddPlayer("Alice", 10000).
		AddInvestor("Fund", 50000, 0.5).
		AddAsset(asset.KindStock, "Acme", "ACME", 100).
		Build()
	if err != nil {
		t.Fatalf("build scenario: %v", err)
	}
	g := game.New(s, gc, rng, logger)

	var hub *server.Hub
	if withHub {
		hub = server.NewHub(logger)
	}
	opts := server.Options{Market: mc, Game: gc, InboxWindow: notify.DefaultWindow, CORSOrigins: []string{"*"}}
	svc := server.NewService(g, store.NewMemoryStore(), hub, rng, opts, logger)
	return &testEnv{
		svc:      svc,
		router:   svc.Router(),
		playerID: s.Players[0].ID,
		assetID:  s.Market.Assets()[0].ID,
		hub:      hub,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		buf = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, "GET", "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health: %d %s", w.Code, w.Body)
	}
}

func TestGetState(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, "GET", "/api/v1/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	state := decode[server.StateView](t, w)
	if state.Day != 1 || state.Regime != "Bull" || len(state.Assets) != 1 || len(state.Standings) != 1 {
		t.Errorf("unexpected state %+v", state)
	}
	if !state.Assets[0].ChangePct.IsZero() {
		t.Errorf("fresh asset moved: %s", state.Assets[0].ChangePct)
	}
}

func TestPostAction_Buy(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, "POST", "/api/v1/players/"+env.playerID+"/actions", game.Action{
		Kind:     game.ActionBuy,
		AssetID:  env.assetID,
		Quantity: d(10),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	view := decode[server.PlayerView](t, w)
	if !view.Capital.Equal(d(9000)) || !view.Portfolio[env.assetID].Equal(d(10)) {
		t.Errorf("unexpected account %+v", view)
	}
	if !view.NetWorth.Equal(d(10000)) || len(view.Trades) != 1 {
		t.Errorf("net worth %s trades %d", view.NetWorth, len(view.Trades))
	}
}

func TestPostAction_Errors(t *testing.T) {
	env := newTestEnv(t, false)
	actions := "/api/v1/players/" + env.playerID + "/actions"

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown player", "/api/v1/players/nobody/actions", game.Action{Kind: game.ActionBuy, AssetID: env.assetID, Quantity: d(1)}, http.StatusNotFound},
		{"unknown asset", actions, game.Action{Kind: game.ActionBuy, AssetID: "nope", Quantity: d(1)}, http.StatusNotFound},
		{"insufficient funds", actions, game.Action{Kind: game.ActionBuy, AssetID: env.assetID, Quantity: d(1000)}, http.StatusConflict},
		{"no holdings", actions, game.Action{Kind: game.ActionSell, AssetID: env.assetID, Quantity: d(1)}, http.StatusConflict},
		{"zero quantity", actions, game.Action{Kind: game.ActionBuy, AssetID: env.assetID, Quantity: decimal.Zero}, http.StatusBadRequest},
		{"unknown action", actions, game.Action{Kind: "dance"}, http.StatusBadRequest},
		{"bad body", actions, "not an action", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, w.Code, w.Body)
			}
		})
	}
}

func TestAssetHistory(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(t, "POST", "/api/v1/day", nil)

	w := env.do(t, "GET", "/api/v1/assets/"+env.assetID+"/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	history := decode[[]asset.PricePoint](t, w)
	if len(history) < 2 {
		t.Errorf("expected the tick in history, got %d points", len(history))
	}

	if w := env.do(t, "GET", "/api/v1/assets/nope/history", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown asset: %d", w.Code)
	}
}

func TestNextDayAndNotifications(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, "POST", "/api/v1/day", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	summary := decode[game.DaySummary](t, w)
	if summary.Day != 2 {
		t.Errorf("expected day 2, got %d", summary.Day)
	}

	w = env.do(t, "GET", "/api/v1/players/"+env.playerID+"/notifications", nil)
	items := decode[[]notify.Notification](t, w)
	if len(items) != 1 || items[0].Kind != notify.KindDay || items[0].Message != "Day 2" {
		t.Errorf("unexpected notifications %+v", items)
	}
}

func TestPostStrategy(t *testing.T) {
	env := newTestEnv(t, false)
	path := "/api/v1/players/" + env.playerID + "/strategy"

	w := env.do(t, "POST", path, server.StrategyRequest{Strategy: "value"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("nothing is cheap yet, got %s", w.Body)
	}

	if w := env.do(t, "POST", path, server.StrategyRequest{Strategy: "martingale"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown strategy: %d", w.Code)
	}
}

func TestPostFeedback(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(t, "POST", "/api/v1/feedback", game.Feedback{Difficulty: game.DifficultyHarder})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	if state := decode[server.StateView](t, w); state.Volatility != 0.75 {
		t.Errorf("volatility %v, want 0.75", state.Volatility)
	}

	if w := env.do(t, "POST", "/api/v1/feedback", game.Feedback{Difficulty: "impossible"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown feedback: %d", w.Code)
	}
}

func TestSaveAndLoad(t *testing.T) {
	env := newTestEnv(t, false)
	actions := "/api/v1/players/" + env.playerID + "/actions"

	w := env.do(t, "PUT", "/api/v1/saves/slot1", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("save: %d %s", w.Code, w.Body)
	}

	env.do(t, "POST", actions, game.Action{Kind: game.ActionBuy, AssetID: env.assetID, Quantity: d(10)})
	env.do(t, "POST", "/api/v1/day", nil)

	infos := decode[[]model.SaveInfo](t, env.do(t, "GET", "/api/v1/saves", nil))
	if len(infos) != 1 || infos[0].Slot != "slot1" || infos[0].Day != 1 {
		t.Fatalf("unexpected saves %+v", infos)
	}

	w = env.do(t, "POST", "/api/v1/saves/slot1/load", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("load: %d %s", w.Code, w.Body)
	}
	if state := decode[server.StateView](t, w); state.Day != 1 {
		t.Errorf("loaded day %d, want 1", state.Day)
	}

	view := decode[server.PlayerView](t, env.do(t, "GET", "/api/v1/players/"+env.playerID, nil))
	if !view.Capital.Equal(d(10000)) || len(view.Portfolio) != 0 {
		t.Errorf("player not restored: %+v", view)
	}

	if w := env.do(t, "POST", "/api/v1/saves/missing/load", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing slot: %d", w.Code)
	}
	if w := env.do(t, "PUT", "/api/v1/saves/bad.slot", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad slot: %d", w.Code)
	}
	if w := env.do(t, "DELETE", "/api/v1/saves/slot1", nil); w.Code != http.StatusNoContent {
		t.Errorf("delete: %d", w.Code)
	}
}

func TestDayRefusedWhenGameOver(t *testing.T) {
	env := newTestEnv(t, false)
	g := env.svc.Game()
	g.Players()[0].Capital = decimal.Zero
	g.CheckGameOver()

	if w := env.do(t, "POST", "/api/v1/day", nil); w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestWebSocketReceivesNotifications(t *testing.T) {
	env := newTestEnv(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(srv.URL+"/api/v1/day", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var n notify.Notification
	if err := conn.ReadJSON(&n); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n.Kind != notify.KindDay || n.Day != 2 {
		t.Errorf("unexpected notification %+v", n)
	}
}
