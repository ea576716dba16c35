// Package server exposes a running game over HTTP and pushes market
// notifications to WebSocket clients.
//
// All monetary values use shopspring/decimal, never float64 for money.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marketgame/market-engine/internal/event"
	"github.com/marketgame/market-engine/internal/game"
	"github.com/marketgame/market-engine/internal/ledger"
	"github.com/marketgame/market-engine/internal/market"
	"github.com/marketgame/market-engine/internal/metrics"
	"github.com/marketgame/market-engine/internal/random"
	"github.com/marketgame/market-engine/internal/regime"
	"github.com/marketgame/market-engine/internal/store"
	"github.com/marketgame/market-engine/internal/strategy"
)

// Options are the settings a loaded save is restored with.
type Options struct {
	Market      market.Config
	Game        game.Config
	InboxWindow int
	CORSOrigins []string
}

// Service serves one game. A mutex serializes every access to the game,
// which is not safe for concurrent use.
type Service struct {
	mu    sync.Mutex
	game  *game.Game
	store store.Store
	hub   *Hub
	opts  Options
	rng   *random.Source

	base   *slog.Logger
	logger *slog.Logger
}

// NewService wires g to st and hub. The game must draw from rng. Pass nil
// for hub if WebSocket broadcasting is not needed.
func NewService(g *game.Game, st store.Store, hub *Hub, rng *random.Source, opts Options, logger *slog.Logger) *Service {
	s := &Service{
		game:   g,
		store:  st,
		hub:    hub,
		opts:   opts,
		rng:    rng,
		base:   logger,
		logger: logger.With(slog.String("component", "server")),
	}
	if hub != nil {
		g.Market().Subscribe(hub)
	}
	return s
}

// Router builds the HTTP router.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(s.cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"market-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.hub != nil {
			r.Get("/ws", s.hub.HandleWS)
		}

		r.Get("/state", s.GetState)
		r.Get("/assets", s.ListAssets)
		r.Get("/assets/{assetID}/history", s.GetAssetHistory)

		r.Get("/players/{playerID}", s.GetPlayer)
		r.Get("/players/{playerID}/notifications", s.GetNotifications)
		r.Post("/players/{playerID}/actions", s.PostAction)
		r.Post("/players/{playerID}/strategy", s.PostStrategy)

		r.Post("/day", s.NextDay)
		r.Post("/feedback", s.PostFeedback)

		r.Get("/saves", s.ListSaves)
		r.Put("/saves/{slot}", s.SaveGame)
		r.Post("/saves/{slot}/load", s.LoadGame)
		r.Delete("/saves/{slot}", s.DeleteSave)
	})
	return r
}

// cors allows the configured origins; "*" allows any.
func (s *Service) cors(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.opts.CORSOrigins))
	for _, o := range s.opts.CORSOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowed["*"]:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Game returns the game currently served. Callers must not use it while
// requests are in flight.
func (s *Service) Game() *game.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownPlayer),
		errors.Is(err, game.ErrUnknownInvestor),
		errors.Is(err, market.ErrUnknownAsset),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrPlayerInactive),
		errors.Is(err, market.ErrReputationTooLow),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientHoldings),
		errors.Is(err, ledger.ErrNoShortPosition),
		errors.Is(err, ledger.ErrShortExceeded),
		errors.Is(err, ledger.ErrInsufficientObligation),
		errors.Is(err, ledger.ErrInvestorCapital):
		return http.StatusConflict
	case errors.Is(err, game.ErrUnknownAction),
		errors.Is(err, game.ErrUnknownFeedback),
		errors.Is(err, strategy.ErrUnknownStrategy),
		errors.Is(err, event.ErrUnknownRumorKind),
		errors.Is(err, store.ErrInvalidSlot),
		errors.Is(err, regime.ErrUnknownRegime),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInvalidPrice),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeErr reports err with the status its kind maps to. Internal errors
// are logged and hidden from the client.
func (s *Service) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
		writeError(w, "internal error", status)
		return
	}
	writeError(w, err.Error(), status)
}
