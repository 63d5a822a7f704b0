package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/gitpulse/ai/provider"
	"github.com/teranos/gitpulse/am"
	"github.com/teranos/gitpulse/errors"
	"github.com/teranos/gitpulse/pulse"
)

// ControlSurface is the scheduler boundary the transport consumes.
// *pulse.Scheduler implements it; handlers never reach into loop
// internals directly.
type ControlSurface interface {
	Snapshot() pulse.Snapshot
	Submit(req pulse.ControlRequest) error
}

// RepositoryInfo supplies repository facts for the status payload.
// *gitops.Repository implements it.
type RepositoryInfo interface {
	Path() string
	CurrentBranch() (string, error)
}

// Server exposes scheduler control and status over HTTP and pushes
// state snapshots to WebSocket clients
type Server struct {
	cfg       *am.Config
	control   ControlSurface
	store     *pulse.Store // nil disables history/stats
	repo      RepositoryInfo
	generator provider.Generator // nil when local inference is disabled
	logger    *zap.SugaredLogger

	// controlLimiter bounds POST /api/control submissions
	controlLimiter *rate.Limiter

	mu      sync.RWMutex
	clients map[*client]bool

	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates the control API server
func NewServer(cfg *am.Config, control ControlSurface, store *pulse.Store, repo RepositoryInfo, generator provider.Generator, log *zap.SugaredLogger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:            cfg,
		control:        control,
		store:          store,
		repo:           repo,
		generator:      generator,
		logger:         log,
		controlLimiter: rate.NewLimiter(rate.Limit(cfg.Server.ControlRatePerSecond), cfg.Server.ControlBurst),
		clients:        make(map[*client]bool),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// routes configures all HTTP handlers
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	mux.HandleFunc("/ws", s.corsMiddleware(s.HandleWebSocket))
	mux.HandleFunc("/api/status", s.corsMiddleware(s.HandleStatus))
	mux.HandleFunc("/api/history", s.corsMiddleware(s.HandleHistory))
	mux.HandleFunc("/api/stats", s.corsMiddleware(s.HandleStats))
	mux.HandleFunc("/api/control", s.corsMiddleware(s.HandleControl))
	mux.HandleFunc("/api/config", s.corsMiddleware(s.HandleConfig))

	return mux
}

// Start runs the HTTP server on the configured port. Blocks until
// shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.EffectivePort())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infow("HTTP server listening",
		"addr", addr,
		"url", fmt.Sprintf("http://localhost:%d", s.cfg.Server.EffectivePort()))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down, closing WebSocket clients and
// draining in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Infow("Shutting down HTTP server")
	s.cancel()

	s.mu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.mu.Unlock()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.wg.Wait()
	return err
}

// corsMiddleware sets CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// originAllowed permits loopback origins plus anything explicitly
// configured
func (s *Server) originAllowed(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}

	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
