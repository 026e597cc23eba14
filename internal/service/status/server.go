package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/oshokin/room-monitor/internal/domain/room"
	"github.com/oshokin/room-monitor/internal/logger"
)

const (
	// readHeaderTimeout bounds request header reads.
	readHeaderTimeout = 5 * time.Second
	// shutdownTimeout bounds the graceful HTTP shutdown.
	shutdownTimeout = 5 * time.Second
)

// errBadLimit is returned for a non-numeric limit parameter.
var errBadLimit = errors.New("limit must be a positive integer")

// EpisodeLister returns recorded offline episodes, newest first.
type EpisodeLister interface {
	Recent(ctx context.Context, limit int) ([]*room.OfflineEpisode, error)
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	// Title is the status line.
	Title string `json:"title"`
	// Summary is the latest summary, nil before the first one.
	Summary *room.Summary `json:"summary"`
}

// Server serves the status surface over HTTP.
type Server struct {
	// board supplies title, summary and detail.
	board *Board
	// hub serves /ws.
	hub *Hub
	// episodes serves /episodes, may be nil.
	episodes EpisodeLister
}

// NewServer creates the HTTP surface. episodes may be nil.
func NewServer(board *Board, hub *Hub, episodes EpisodeLister) *Server {
	return &Server{
		board:    board,
		hub:      hub,
		episodes: episodes,
	}
}

// Handler returns the routes of the status surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("GET /episodes", s.handleEpisodes)
	mux.Handle("GET /ws", s.hub)

	return mux
}

// Serve listens on address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, address string) error {
	ctx = logger.WithName(ctx, "status-http")

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.InfoKV(ctx, "Status server listening", "listen_address", lis.Addr().String())

	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		s.hub.Close()

		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.WarnKV(ctx, "Status server shutdown failed", "error", shutdownErr)
		}
	}()

	if err = httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve status: %w", err)
	}

	<-done
	logger.Info(ctx, "Status server stopped")

	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	response := StatusResponse{Title: s.board.Title()}
	if summary, ok := s.board.Summary(); ok {
		response.Summary = &summary
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.board.Detail())
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if s.episodes == nil {
		writeJSON(w, http.StatusOK, []*room.OfflineEpisode{})

		return
	}

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, errBadLimit)

			return
		}

		limit = parsed
	}

	episodes, err := s.episodes.Recent(r.Context(), limit)
	if err != nil {
		logger.ErrorKV(r.Context(), "Failed to list episodes", "error", err)
		writeError(w, http.StatusInternalServerError, err)

		return
	}

	if episodes == nil {
		episodes = []*room.OfflineEpisode{}
	}

	writeJSON(w, http.StatusOK, episodes)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
