package hotreload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livefir/hotreload/internal/metrics"
)

// client is one connected hot-reload receiver. Writes are serialized per
// connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// PatchServer accepts client connections and fans finalized messages out
// to all of them. It owns the client set exclusively; the processing path
// only talks to it through Broadcast.
type PatchServer struct {
	addr      string
	logger    *slog.Logger
	collector *metrics.Collector
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	httpServer *http.Server
}

// NewPatchServer creates a server that will listen on addr. collector may
// be nil when connection counts are not wanted.
func NewPatchServer(addr string, logger *slog.Logger, collector *metrics.Collector) *PatchServer {
	return &PatchServer{
		addr:      addr,
		logger:    logger,
		collector: collector,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Run binds the listening endpoint and serves until ctx is done. Failure
// to bind is fatal for the session: without the patch channel the whole
// hot-reload session is useless.
func (s *PatchServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleClient)

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding patch endpoint %s: %w", s.addr, err)
	}
	s.httpServer = &http.Server{Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(listener) }()

	select {
	case <-ctx.Done():
		s.Shutdown()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *PatchServer) handleClient(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	if s.collector != nil {
		s.collector.IncrementClientConnected()
	}
	s.logger.Info("client connected", "remote", conn.RemoteAddr().String(), "clients", count)

	// Drain (and ignore) inbound frames so pings and closes are processed;
	// the patch channel is one-way.
	go func() {
		defer s.drop(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *PatchServer) drop(c *client) {
	s.mu.Lock()
	_, present := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if present {
		c.conn.Close()
		s.logger.Info("client disconnected", "remote", c.conn.RemoteAddr().String())
	}
}

// Broadcast sends a message to every connected client. A send failure
// removes only the failing client.
func (s *PatchServer) Broadcast(msg Message) {
	data, err := msg.Encode()
	if err != nil {
		s.logger.Error("encoding message", "kind", msg.Kind, "error", err)
		return
	}

	s.mu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		if err := c.send(data); err != nil {
			s.logger.Warn("dropping client after failed send", "error", err)
			s.drop(c)
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *PatchServer) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Shutdown notifies all clients the session is over and closes the
// listener.
func (s *PatchServer) Shutdown() {
	s.Broadcast(ShutdownMessage())

	s.mu.Lock()
	for c := range s.clients {
		c.conn.Close()
		delete(s.clients, c)
	}
	s.mu.Unlock()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}
}
