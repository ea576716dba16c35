package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketgame/market-engine/internal/asset"
	"github.com/marketgame/market-engine/internal/game"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/metrics"
	"github.com/marketgame/market-engine/internal/model"
	"github.com/marketgame/market-engine/internal/notify"
	"github.com/marketgame/market-engine/internal/store"
	"github.com/marketgame/market-engine/internal/strategy"
)

// GetState handles GET /api/v1/state
func (s *Service) GetState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, stateView(s.game))
}

// ListAssets handles GET /api/v1/assets
func (s *Service) ListAssets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := []AssetView{}
	for _, a := range s.game.Market().Assets() {
		views = append(views, assetView(a))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetAssetHistory handles GET /api/v1/assets/{assetID}/history
// Returns the asset's price history, oldest first.
func (s *Service) GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.game.Market().Asset(assetID)
	if !ok {
		s.writeErr(w, r, fmt.Errorf("%w: %s", market.ErrUnknownAsset, assetID))
		return
	}
	history := a.History()
	if history == nil {
		history = []asset.PricePoint{}
	}
	writeJSON(w, http.StatusOK, history)
}

// GetPlayer handles GET /api/v1/players/{playerID}
// Returns the account with net worth and required margin.
func (s *Service) GetPlayer(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.game.Player(chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playerView(p, s.game.Market()))
}

// GetNotifications handles GET /api/v1/players/{playerID}/notifications
// Returns the inbox's display window, or everything with ?all=true.
func (s *Service) GetNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.game.Player(chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	items := p.Inbox.Recent()
	if r.URL.Query().Get("all") == "true" {
		items = p.Inbox.All()
	}
	if items == nil {
		items = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}

// PostAction handles POST /api/v1/players/{playerID}/actions
// Performs one action and returns the updated account.
func (s *Service) PostAction(w http.ResponseWriter, r *http.Request) {
	var a game.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	playerID := chi.URLParam(r, "playerID")

	// Serialize game mutations.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.Act(playerID, a); err != nil {
		s.writeErr(w, r, err)
		return
	}
	p, _ := s.game.Player(playerID)
	writeJSON(w, http.StatusOK, playerView(p, s.game.Market()))
}

// StrategyRequest is the JSON body for POST /players/{playerID}/strategy.
type StrategyRequest struct {
	Strategy string `json:"strategy"` // "value" or "trend"
}

// PostStrategy handles POST /api/v1/players/{playerID}/strategy
// Returns the orders that filled.
func (s *Service) PostStrategy(w http.ResponseWriter, r *http.Request) {
	var req StrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filled, err := s.game.RunStrategy(chi.URLParam(r, "playerID"), req.Strategy)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if filled == nil {
		filled = []strategy.Order{}
	}
	writeJSON(w, http.StatusOK, filled)
}

// NextDay handles POST /api/v1/day
func (s *Service) NextDay(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Over() {
		writeError(w, "game is over", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, s.game.NextDay())
}

// PostFeedback handles POST /api/v1/feedback
func (s *Service) PostFeedback(w http.ResponseWriter, r *http.Request) {
	var f game.Feedback
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.game.ApplyFeedback(f); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateView(s.game))
}

// ListSaves handles GET /api/v1/saves
func (s *Service) ListSaves(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		metrics.SaveOperations.WithLabelValues("list", "error").Inc()
		s.writeErr(w, r, err)
		return
	}
	metrics.SaveOperations.WithLabelValues("list", "ok").Inc()
	if infos == nil {
		infos = []model.SaveInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

// SaveGame handles PUT /api/v1/saves/{slot}
func (s *Service) SaveGame(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	if err := store.ValidateSlot(slot); err != nil {
		s.writeErr(w, r, err)
		return
	}

	s.mu.Lock()
	state := s.game.Snapshot()
	s.mu.Unlock()

	if err := s.store.Save(r.Context(), slot, state); err != nil {
		metrics.SaveOperations.WithLabelValues("save", "error").Inc()
		s.writeErr(w, r, err)
		return
	}
	metrics.SaveOperations.WithLabelValues("save", "ok").Inc()
	s.logger.Info("game saved", "slot", slot, "day", state.Day)
	writeJSON(w, http.StatusCreated, model.SaveInfo{Slot: slot, Day: state.Day, SavedAt: state.SavedAt})
}

// LoadGame handles POST /api/v1/saves/{slot}/load
// Replaces the running game with the save and returns the new state.
func (s *Service) LoadGame(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	start := time.Now()

	state, err := s.store.Load(r.Context(), slot)
	if err != nil {
		metrics.SaveOperations.WithLabelValues("load", "error").Inc()
		s.writeErr(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := game.Restore(state, s.opts.Game, s.opts.Market, s.rng, s.base, s.opts.InboxWindow)
	if err != nil {
		metrics.SaveOperations.WithLabelValues("load", "error").Inc()
		writeError(w, "save is corrupt: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if s.hub != nil {
		s.game.Market().Unsubscribe(s.hub)
		g.Market().Subscribe(s.hub)
	}
	s.game = g
	metrics.SaveOperations.WithLabelValues("load", "ok").Inc()
	s.logger.Info("game loaded", "slot", slot, "day", state.Day, "took", time.Since(start))
	writeJSON(w, http.StatusOK, stateView(g))
}

// DeleteSave handles DELETE /api/v1/saves/{slot}
func (s *Service) DeleteSave(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")
	if err := s.store.Delete(r.Context(), slot); err != nil {
		metrics.SaveOperations.WithLabelValues("delete", "error").Inc()
		s.writeErr(w, r, err)
		return
	}
	metrics.SaveOperations.WithLabelValues("delete", "ok").Inc()
	w.WriteHeader(http.StatusNoContent)
}
