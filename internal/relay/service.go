package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kshetline/asteroid-comet-data-generator/internal/horizons"
)

// Fetcher runs one ephemeris fetch. The relay talks to Horizons through
// this so tests can substitute a canned backend.
type Fetcher interface {
	FetchElements(ctx context.Context, bodyID string, span horizons.Span) (*horizons.ElementSet, error)
	Refine(ctx context.Context, set *horizons.ElementSet, span horizons.Span, depth int) (*horizons.ElementSet, error)
}

// Request is the first message a websocket client sends: one body, one
// ephemeris window.
type Request struct {
	Body        string    `json:"body"`
	Start       time.Time `json:"start"`
	Stop        time.Time `json:"stop"`
	StepMinutes int       `json:"stepMinutes"`
	RefineDepth int       `json:"refineDepth,omitempty"`
}

// Message is a server-to-client frame. Type is "line" while the session
// runs, then exactly one "result" or "error".
type Message struct {
	Type     string               `json:"type"`
	Line     string               `json:"line,omitempty"`
	Error    string               `json:"error,omitempty"`
	Elements *horizons.ElementSet `json:"elements,omitempty"`
}

// Service relays Horizons fetches over websockets, streaming session
// output to the client as it arrives.
type Service struct {
	newFetcher func(onLine func(string)) Fetcher
	upgrader   websocket.Upgrader
	logger     zerolog.Logger

	mu      sync.Mutex
	active  map[*websocket.Conn]context.CancelFunc
	stopped bool
}

// NewService creates a relay backed by the given Horizons client config.
func NewService(cfg horizons.Config) *Service {
	s := &Service{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.With().Str("component", "relay").Logger(),
		active: make(map[*websocket.Conn]context.CancelFunc),
	}
	s.newFetcher = func(onLine func(string)) Fetcher {
		c := cfg
		c.OnLine = onLine
		return horizons.NewClient(c)
	}
	return s
}

// Router returns the HTTP routes the relay serves.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/fetch", s.handleFetch).Methods(http.MethodGet)
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleFetch upgrades the connection, reads one fetch request, and
// streams the session back. All writes happen on this goroutine; a side
// reader only watches for the client going away.
func (s *Service) handleFetch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req Request
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Warn().Err(err).Msg("Bad fetch request")
		return
	}
	if err := validate(req); err != nil {
		conn.WriteJSON(Message{Type: "error", Error: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if !s.register(conn, cancel) {
		conn.WriteJSON(Message{Type: "error", Error: "service shutting down"})
		return
	}
	defer s.unregister(conn)

	// The client sends nothing after the request, so the next read only
	// returns when it disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	s.logger.Info().
		Str("body", req.Body).
		Time("start", req.Start).
		Time("stop", req.Stop).
		Msg("Relaying fetch")

	span := horizons.Span{
		Start: req.Start,
		Stop:  req.Stop,
		Step:  time.Duration(req.StepMinutes) * time.Minute,
	}

	lines := make(chan string, 64)
	fetcher := s.newFetcher(func(line string) {
		select {
		case lines <- line:
		default: // a slow client loses session chatter, never the result
		}
	})

	type outcome struct {
		set *horizons.ElementSet
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		set, err := fetcher.FetchElements(ctx, req.Body, span)
		if err == nil && req.RefineDepth > 0 {
			set, err = fetcher.Refine(ctx, set, span, req.RefineDepth)
		}
		done <- outcome{set, err}
	}()

	for {
		select {
		case line := <-lines:
			if err := conn.WriteJSON(Message{Type: "line", Line: line}); err != nil {
				cancel()
				<-done
				return
			}
		case out := <-done:
			for {
				select {
				case line := <-lines:
					conn.WriteJSON(Message{Type: "line", Line: line})
					continue
				default:
				}
				break
			}
			if out.err != nil {
				conn.WriteJSON(Message{Type: "error", Error: out.err.Error()})
				return
			}
			conn.WriteJSON(Message{Type: "result", Elements: out.set})
			return
		}
	}
}

func validate(req Request) error {
	if req.Body == "" {
		return fmt.Errorf("body is required")
	}
	if req.Start.IsZero() || req.Stop.IsZero() || !req.Stop.After(req.Start) {
		return fmt.Errorf("start and stop must describe a forward window")
	}
	if req.StepMinutes <= 0 {
		return fmt.Errorf("stepMinutes must be positive")
	}
	return nil
}

func (s *Service) register(conn *websocket.Conn, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.active[conn] = cancel
	return true
}

func (s *Service) unregister(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, conn)
}

// ActiveSessions reports how many fetches are in flight.
func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Stop cancels all in-flight fetches and refuses new ones.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.logger.Info().Int("active_sessions", len(s.active)).Msg("Stopping relay")
	for conn, cancel := range s.active {
		cancel()
		conn.Close()
	}
	s.active = make(map[*websocket.Conn]context.CancelFunc)
}
