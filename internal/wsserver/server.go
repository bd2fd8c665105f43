// Package wsserver implements the bridge's only external-facing
// transport: a WebSocket listener that assigns each connecting client
// an Observer, runs its drain loop (immediate or coalescing), and pushes
// Handler output as text or binary frames.
package wsserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mbari-org/lcm-websocket-server/internal/handler"
	"github.com/mbari-org/lcm-websocket-server/internal/observer"
)

// emptyWait is how long the immediate-mode drain loop sleeps after
// finding an observer's mailbox empty before checking again.
const emptyWait = 100 * time.Millisecond

// republisher is the subset of *republisher.Republisher the server
// depends on, narrowed to an interface for testability.
type republisher interface {
	Subscribe(o *observer.Observer)
	Unsubscribe(o *observer.Observer)
}

// Server accepts WebSocket connections and fans Republisher events out
// to them through a configured Handler.
type Server struct {
	rep            republisher
	handler        handler.Handler
	mailboxSize    int
	defaultPattern string
	logger         *slog.Logger

	upgrader websocket.Upgrader
	http     *http.Server
}

// New builds a Server. mailboxSize bounds each client's Observer
// mailbox. defaultPattern is the channel regex used for a connecting
// client that supplies no pattern of its own (an empty path); an empty
// defaultPattern falls back to ".*".
func New(rep republisher, h handler.Handler, mailboxSize int, defaultPattern string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if mailboxSize < 1 {
		mailboxSize = 64
	}
	if defaultPattern == "" {
		defaultPattern = ".*"
	}
	return &Server{
		rep:            rep,
		handler:        h,
		mailboxSize:    mailboxSize,
		defaultPattern: defaultPattern,
		logger:         logger,
		upgrader: websocket.Upgrader{
			// This bridge has no client authentication (explicit
			// non-goal); accepting any origin matches that scope.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ListenAndServe binds host:port and serves WebSocket connections until
// the context is cancelled, at which point it gracefully shuts down the
// listener and returns.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("wsserver: listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// handleConn upgrades one connection, parses its subscription path and
// query, and runs its drain loop until the socket closes.
func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	pattern, err := s.parseChannelPattern(r.URL.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid channel pattern: %v", err), http.StatusBadRequest)
		return
	}
	updateInterval, coalescing := parseUpdateInterval(r.URL.Query())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("wsserver: upgrade failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	log := s.logger.With("client_id", clientID, "remote_addr", r.RemoteAddr, "channel_pattern", pattern)
	mode := "immediate"
	if coalescing {
		mode = "coalescing"
	}
	log.Info("wsserver: client connected", "mode", mode, "update_interval_ms", updateInterval.Milliseconds())

	obs, matchErr := observer.New(pattern, s.mailboxSize)
	if matchErr != nil {
		log.Warn("wsserver: invalid channel regex, client will receive nothing", "error", matchErr)
	}
	s.rep.Subscribe(obs)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if coalescing {
		s.coalescingLoop(conn, obs, updateInterval, closed, log)
	} else {
		s.immediateLoop(conn, obs, closed, log)
	}

	s.rep.Unsubscribe(obs)
	conn.Close()
	log.Info("wsserver: client disconnected")
}

// immediateLoop sends every matching event as soon as it's available,
// sleeping briefly whenever the mailbox is empty.
func (s *Server) immediateLoop(conn *websocket.Conn, obs *observer.Observer, closed <-chan struct{}, log *slog.Logger) {
	for {
		select {
		case <-closed:
			return
		default:
		}

		ev, ok := obs.Get()
		if !ok {
			time.Sleep(emptyWait)
			continue
		}

		frame, ok := s.handler.Handle(ev.Channel, ev.Payload)
		if !ok {
			// Dropped message: never credit the advisory TaskDone
			// counter for work that produced no delivered frame.
			continue
		}
		obs.TaskDone()
		if err := s.send(conn, frame); err != nil {
			log.Debug("wsserver: send failed", "error", err)
			continue
		}
	}
}

// coalescingLoop implements last-value-wins delivery: every interval,
// drain all pending events keeping only the latest payload per channel,
// then handle and send exactly one frame per channel that had traffic.
func (s *Server) coalescingLoop(conn *websocket.Conn, obs *observer.Observer, interval time.Duration, closed <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
		}

		latest := map[string][]byte{}
		order := []string{}
		for _, ev := range obs.Drain() {
			if _, seen := latest[ev.Channel]; !seen {
				order = append(order, ev.Channel)
			}
			latest[ev.Channel] = ev.Payload
		}
		obs.TaskDone()

		for _, channel := range order {
			payload := latest[channel]
			frame, ok := s.handler.Handle(channel, payload)
			if !ok {
				continue
			}
			if err := s.send(conn, frame); err != nil {
				log.Debug("wsserver: send failed", "error", err)
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, frame handler.Frame) error {
	opcode := websocket.TextMessage
	if frame.Kind == handler.FrameBinary {
		opcode = websocket.BinaryMessage
	}
	return conn.WriteMessage(opcode, frame.Data)
}

// parseChannelPattern extracts and URL-decodes the channel regex from
// the request path; an empty path falls back to the server's configured
// default pattern.
func (s *Server) parseChannelPattern(path string) (string, error) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return s.defaultPattern, nil
	}
	decoded, err := url.PathUnescape(trimmed)
	if err != nil {
		return "", err
	}
	return decoded, nil
}

// parseUpdateInterval reads update_interval_ms from the query string.
// coalescing is true only if the value is present and parses as a
// positive integer.
func parseUpdateInterval(q url.Values) (interval time.Duration, coalescing bool) {
	raw := q.Get("update_interval_ms")
	if raw == "" {
		return 0, false
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}
