// Package hostbridge connects a host renderer to the showroom over WebSocket.
//
// The host sends tick, click, hover and assign frames; each is handed to a Handler that
// runs it on the showroom loop. The bridge broadcasts selection changes and camera
// poses to every session. Inbound frames are rate limited per connection.
package hostbridge

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/metric"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/selection"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// Handler executes bridge commands. Implementations serialize them onto the runtime loop.
type Handler interface {
	Tick(ctx context.Context, delta time.Duration) error
	Click(ctx context.Context, h component.ComponentHandle) error
	Hover(ctx context.Context, h component.ComponentHandle, hover bool) error
	Assign(ctx context.Context, item string) error
}

// Config holds bridge settings
type Config struct {
	Addr         string        `json:"addr" yaml:"addr" toml:"addr"`
	Path         string        `json:"path" yaml:"path" toml:"path"`
	RateLimit    float64       `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit"` // frames per second per session
	RateBurst    int           `json:"rate_burst" yaml:"rate_burst" toml:"rate_burst"`
	SendBuffer   int           `json:"send_buffer" yaml:"send_buffer" toml:"send_buffer"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval" toml:"ping_interval"`
	// CommandTimeout bounds how long a frame waits for the loop to run it
	CommandTimeout time.Duration `json:"command_timeout" yaml:"command_timeout" toml:"command_timeout"`
	CameraFrames   bool          `json:"camera_frames" yaml:"camera_frames" toml:"camera_frames"`
}

// DefaultConfig returns the bridge defaults
func DefaultConfig() Config {
	return Config{
		Addr:           ":8090",
		Path:           "/bridge",
		RateLimit:      120,
		RateBurst:      30,
		SendBuffer:     64,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		CommandTimeout: 5 * time.Second,
	}
}

// Validate checks the bridge settings
func (c Config) Validate() error {
	switch {
	case c.Path == "" || c.Path[0] != '/':
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "bridge path must start with /")
	case c.RateLimit <= 0 || c.RateBurst <= 0:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "bridge rate limit must be positive")
	case c.SendBuffer <= 0:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "bridge send buffer must be positive")
	}
	return nil
}

// Server accepts host sessions
type Server struct {
	cfg      Config
	handler  Handler
	logger   *slog.Logger
	metrics  *metric.Metrics
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
	server   *http.Server
	closing  chan struct{}
	wg       sync.WaitGroup
}

// New creates a bridge server. Zero config fields take their defaults.
func New(cfg Config, handler Handler, logger *slog.Logger, metrics *metric.Metrics) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.Path == "" {
		cfg.Path = def.Path
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = def.RateBurst
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("component", "hostbridge"),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*session),
		closing:  make(chan struct{}),
	}
}

// Handler returns the HTTP handler serving the bridge endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWebSocket)
	return mux
}

// Run serves until ctx is cancelled, then closes every session
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.WrapFatal(err, "Server", "Run", fmt.Sprintf("listen on %s", s.cfg.Addr))
	}

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	s.logger.Info("Host bridge listening", "addr", ln.Addr().String(), "path", s.cfg.Path)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		s.Close()
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapFatal(err, "Server", "Run", "serve bridge")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	s.Close()
	if shutdownErr != nil {
		return errors.WrapTransient(shutdownErr, "Server", "Run", "shutdown bridge")
	}
	return nil
}

// Close disconnects every session and waits for their goroutines
func (s *Server) Close() {
	s.mu.Lock()
	select {
	case <-s.closing:
	default:
		close(s.closing)
	}
	sessions := make([]*session, 0, len(s.sessions))
	for _, ss := range s.sessions {
		sessions = append(sessions, ss)
	}
	s.mu.Unlock()

	for _, ss := range sessions {
		ss.close()
	}
	s.wg.Wait()
}

// Sessions returns the number of connected sessions
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Broadcast queues f on every session. Sessions with a full queue drop the frame.
func (s *Server) Broadcast(f Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ss := range s.sessions {
		if !ss.enqueue(f) {
			s.logger.Warn("Session send queue full, frame dropped", "session", ss.id, "type", f.Type)
		}
	}
}

// Name identifies the bridge as a selection sink in metrics
func (s *Server) Name() string {
	return "hostbridge"
}

// SelectionChanged implements selection.Notifier
func (s *Server) SelectionChanged(c selection.Change) error {
	f, err := NewFrame(FrameSelection, "", c)
	if err != nil {
		return err
	}
	s.Broadcast(f)
	return nil
}

// PoseChanged broadcasts camera poses when camera frames are enabled; it has the
// camera.PoseSink signature
func (s *Server) PoseChanged(p types.Pose) {
	if !s.cfg.CameraFrames {
		return
	}
	f, err := NewFrame(FrameCamera, "", p)
	if err != nil {
		s.logger.Warn("Camera frame dropped", "error", err)
		return
	}
	s.Broadcast(f)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.closing:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	ss := newSession(s, conn)
	s.mu.Lock()
	select {
	case <-s.closing:
		s.mu.Unlock()
		_ = conn.Close()
		return
	default:
	}
	s.sessions[ss.id] = ss
	s.wg.Add(2)
	s.mu.Unlock()
	s.metrics.RecordBridgeConnection(1)
	s.logger.Info("Host session connected", "session", ss.id, "remote", r.RemoteAddr)

	if welcome, err := NewFrame(FrameWelcome, "", WelcomePayload{Session: ss.id}); err == nil {
		ss.enqueue(welcome)
	}

	go ss.writeLoop()
	go ss.readLoop()
}

func (s *Server) remove(ss *session) {
	s.mu.Lock()
	_, ok := s.sessions[ss.id]
	delete(s.sessions, ss.id)
	s.mu.Unlock()
	if ok {
		s.metrics.RecordBridgeConnection(-1)
		s.logger.Info("Host session disconnected", "session", ss.id)
	}
}

// dispatch runs one inbound frame against the handler
func (s *Server) dispatch(ctx context.Context, f Frame) error {
	switch f.Type {
	case FrameTick:
		var p TickPayload
		if err := f.Decode(&p); err != nil {
			return err
		}
		if p.DeltaMS < 0 {
			return errors.WrapInvalid(errors.ErrInvalidData, "Server", "dispatch", "negative tick delta")
		}
		return s.handler.Tick(ctx, p.Delta())
	case FrameClick:
		var p ClickPayload
		if err := f.Decode(&p); err != nil {
			return err
		}
		h, err := component.ParseComponentHandle(p.Component)
		if err != nil {
			return err
		}
		return s.handler.Click(ctx, h)
	case FrameHover:
		var p HoverPayload
		if err := f.Decode(&p); err != nil {
			return err
		}
		h, err := component.ParseComponentHandle(p.Component)
		if err != nil {
			return err
		}
		return s.handler.Hover(ctx, h, p.Hover)
	case FrameAssign:
		var p AssignPayload
		if err := f.Decode(&p); err != nil {
			return err
		}
		return s.handler.Assign(ctx, p.Item)
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: unknown frame type %q", errors.ErrInvalidData, f.Type),
			"Server", "dispatch", "route frame")
	}
}
