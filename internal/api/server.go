// Package api exposes a small operational HTTP surface next to the
// Discord gateway: health, live sessions and the scoreboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/x-yzt/psychotropic/internal/game"
	"github.com/x-yzt/psychotropic/internal/game/structure"
	"github.com/x-yzt/psychotropic/internal/scoreboard"
)

type Server struct {
	srv      *http.Server
	registry *game.Registry
	scores   *scoreboard.Scoreboard
	pool     *structure.Pool
}

func New(addr string, registry *game.Registry, scores *scoreboard.Scoreboard, pool *structure.Pool) *Server {
	s := &Server{
		registry: registry,
		scores:   scores,
		pool:     pool,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sessions", s.handleSessions)
		r.Get("/scoreboard", s.handleScoreboard)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	log.Info().Str("addr", s.srv.Addr).Msg("Serving operational API")

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"schematics_ready": s.pool.Ready(),
		"schematics":       s.pool.Size(),
		"sessions":         s.registry.Count(),
	})
}

type sessionInfo struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channel_id"`
	Variant     string    `json:"variant"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	StartedAt   time.Time `json:"started_at"`
	Tries       int       `json:"tries"`
	ActiveTasks int       `json:"active_tasks"`
}

// handleSessions snapshots the live rounds. Solutions stay private,
// operators play too.
func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	sessions := s.registry.Sessions()

	out := make([]sessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionInfo{
			ID:          sess.ID,
			ChannelID:   sess.Channel,
			Variant:     sess.Variant(),
			OwnerID:     sess.Owner.ID,
			OwnerName:   sess.Owner.Name,
			StartedAt:   sess.StartedAt,
			Tries:       sess.Game().Tries(),
			ActiveTasks: sess.ActiveTasks(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

type scoreboardRow struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Balance  float64 `json:"balance"`
}

func (s *Server) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	entries, totalPages := s.scores.Page(page)

	rows := make([]scoreboardRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, scoreboardRow{
			Rank:     e.Rank,
			PlayerID: e.PlayerID,
			Balance:  e.Profile.Balance,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":     rows,
		"page":        page,
		"total_pages": totalPages,
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Handled HTTP request")
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
