// Package web serves a scene control over websockets: clients send commands and receive a stream
// of frames after every tick that changed something.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/scenemotion/logging"
	"go.viam.com/scenemotion/scene"
	"go.viam.com/scenemotion/utils"
)

const (
	sendBufferSize = 64
	writeWait      = 5 * time.Second
)

// Options tunes a Server.
type Options struct {
	TickInterval time.Duration
	PingInterval time.Duration
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	// debug is set for clients connected with a debug query parameter; their commands are logged
	// regardless of level under debugKey.
	debug    bool
	debugKey string
}

// Server ticks a Control on the control clock's system ticker and streams frames to websocket
// clients.
type Server struct {
	control  *scene.Control
	logger   logging.Logger
	opts     Options
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	workers utils.StoppableWorkers
	dirty   atomic.Bool
}

// NewServer returns a server for control. Nothing runs until Start.
func NewServer(control *scene.Control, logger logging.Logger, opts Options) *Server {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 20 * time.Millisecond
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 10 * time.Second
	}
	return &Server{
		control: control,
		logger:  logger,
		opts:    opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: map[string]*client{},
	}
}

// Handler returns the HTTP routes of the server: /ws for the websocket and /frames for a one-off
// JSON snapshot.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/frames", s.serveFrames)
	return mux
}

// Start begins ticking. The tick loop stops when ctx is done or Close is called.
func (s *Server) Start(ctx context.Context) {
	ticker := s.control.Clock().System().Ticker(s.opts.TickInterval)
	s.mu.Lock()
	s.workers = utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s.tick()
		}
	})
	s.mu.Unlock()
}

// ListenAndServe starts the server and serves HTTP on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return s.Serve(ctx, listener)
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	s.Start(ctx)
	defer s.Close()
	s.logger.Infow("serving", "address", listener.Addr().String())

	errs, ctx := errgroup.WithContext(ctx)
	errs.Go(func() error {
		if err := httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	errs.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return errs.Wait()
}

// Close stops ticking and disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	workers := s.workers
	s.mu.Unlock()
	if workers != nil {
		workers.Stop()
	}
}

func (s *Server) tick() {
	wrote := s.control.Tick()
	if wrote == 0 && !s.dirty.Swap(false) {
		return
	}
	frames, err := s.control.Snapshot()
	if err != nil {
		s.logger.Errorw("failed to snapshot", "error", err)
		return
	}
	s.broadcast(Message{Type: MessageFrames, Frames: frames})
}

func (s *Server) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Errorw("failed to encode message", "type", msg.Type, "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Warnw("dropping slow client", "client", id)
			close(c.send)
			delete(s.clients, id)
		}
	}
}

func (s *Server) serveFrames(w http.ResponseWriter, r *http.Request) {
	frames, err := s.control.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(frames); err != nil {
		s.logger.Debugw("failed to write frames", "error", err)
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	workers := s.workers
	s.mu.Unlock()
	if workers == nil || workers.Context().Err() != nil {
		http.Error(w, "server not running", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugw("upgrade failed", "error", err)
		return
	}
	c := &client{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		debug:    r.URL.Query().Has("debug"),
		debugKey: r.URL.Query().Get("debug"),
	}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.logger.Infow("client connected", "client", c.id, "remote", r.RemoteAddr)

	hello, err := json.Marshal(Message{Type: MessageHello, Client: c.id})
	if err == nil {
		c.send <- hello
	}
	workers.AddWorkers(func(ctx context.Context) { s.readLoop(ctx, c) }, func(ctx context.Context) { s.writeLoop(ctx, c) })
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; ok {
		close(c.send)
		delete(s.clients, c.id)
		s.logger.Infow("client disconnected", "client", c.id)
	}
}

func (s *Server) readLoop(ctx context.Context, c *client) {
	defer s.removeClient(c)
	if c.debug {
		ctx = logging.EnableDebugMode(ctx, c.debugKey)
	}
	for {
		var wire scene.WireCommand
		if err := c.conn.ReadJSON(&wire); err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugw("read failed", "client", c.id, "error", err)
			}
			return
		}
		s.logger.CDebugw(ctx, "command received", "client", c.id, "type", wire.Type, "node", wire.Name)
		reply := Message{Type: MessageAck, Client: c.id, Command: wire.Type, Node: wire.Name}
		if err := s.apply(wire); err != nil {
			reply.Type = MessageError
			reply.Error = err.Error()
		}
		s.reply(c, reply)
	}
}

func (s *Server) apply(wire scene.WireCommand) error {
	cmd, err := wire.Command()
	if err != nil {
		return err
	}
	err = s.control.Apply(cmd)
	s.dirty.Store(true)
	return err
}

func (s *Server) reply(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		s.logger.Warnw("reply dropped", "client", c.id)
	}
}

func (s *Server) writeLoop(ctx context.Context, c *client) {
	ping := s.control.Clock().System().Ticker(s.opts.PingInterval)
	defer func() {
		ping.Stop()
		//nolint:errcheck
		c.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			//nolint:errcheck
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"), time.Now().Add(writeWait))
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			//nolint:errcheck
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debugw("write failed", "client", c.id, "error", err)
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
