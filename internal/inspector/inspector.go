package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/scenery/internal/core/events/bus"
	"github.com/zeusync/scenery/internal/core/observability/log"
	"github.com/zeusync/scenery/internal/core/scene"
)

var (
	ErrAlreadyRunning = errors.New("inspector is already running")
	ErrNotRunning     = errors.New("inspector is not running")
)

const (
	FrameStats = "stats"
	FrameEvent = "event"

	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Frame is one message of the feed.
type Frame struct {
	Type  string       `json:"type"`
	Stats *scene.Stats `json:"stats,omitempty"`
	Bus   *bus.Metrics `json:"bus,omitempty"`
	Event *bus.Event   `json:"event,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Server streams scene statistics and lifecycle events to WebSocket clients.
// Every request served by it is upgraded. Slow clients whose buffer fills up
// are disconnected.
type Server struct {
	log log.Log

	mu      sync.Mutex
	clients map[*client]struct{}

	http     *http.Server
	listener net.Listener
}

func New(logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	return &Server{
		log:     logger.With(log.String("component", "inspector")),
		clients: make(map[*client]struct{}),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.String("remote", r.RemoteAddr), log.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.Debug("client connected", log.String("remote", conn.RemoteAddr().String()))

	go s.writePump(c)
	s.readPump(c)
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// PublishStats broadcasts a stats frame carrying the scene counters and the
// event bus metrics.
func (s *Server) PublishStats(st scene.Stats, m bus.Metrics) {
	s.broadcast(Frame{Type: FrameStats, Stats: &st, Bus: &m})
}

// PublishEvent broadcasts an event frame.
func (s *Server) PublishEvent(e bus.Event) {
	s.broadcast(Frame{Type: FrameEvent, Event: &e})
}

// Attach forwards every event of b to the clients.
func (s *Server) Attach(b bus.EventBus) (bus.Subscription, error) {
	return b.Subscribe(bus.AnyType, func(e bus.Event) error {
		s.PublishEvent(e)
		return nil
	})
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http != nil {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("inspector listen %s: %w", addr, err)
	}
	s.listener = ln
	s.http = &http.Server{Handler: s, ReadHeaderTimeout: writeTimeout}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("inspector stopped", log.Error(err))
		}
	}()
	s.log.Info("inspector listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops the listener and disconnects every client.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.http = nil
	s.listener = nil
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
	if srv == nil {
		return ErrNotRunning
	}
	return srv.Shutdown(ctx)
}

func (s *Server) broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		s.log.Error("encode frame", log.String("type", f.Type), log.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.log.Warn("dropping slow client", log.String("remote", c.conn.RemoteAddr().String()))
			delete(s.clients, c)
			c.close()
		}
	}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

func (s *Server) readPump(c *client) {
	defer s.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Debug("write failed", log.Error(err))
			s.unregister(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}
