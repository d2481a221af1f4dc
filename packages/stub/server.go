// Package stub provides a scriptable HTTP server that replies with canned
// responses. Routes are registered in code with On or loaded from YAML.
package stub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Recorded is a request as the stub saw it.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Host   string
	Body   string
}

// Server replies to requests from its route table.
type Server struct {
	router  *Router
	port    int
	delay   time.Duration
	verbose bool
	logger  *slog.Logger

	mu       sync.Mutex
	received []*Recorded
}

// Option is a functional option for Server
type Option func(*Server)

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithVerbose logs every request at info level.
func WithVerbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		router: NewRouter(),
		port:   3000,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// On starts a route for method and path. The route is registered once a
// terminal call (Reply, ReplyJSON or Drop) is made.
func (s *Server) On(method, path string) *RouteBuilder {
	return &RouteBuilder{
		server: s,
		route: &Route{
			Method: strings.ToUpper(method),
			Path:   path,
		},
	}
}

// Add registers routes as they are.
func (s *Server) Add(routes ...*Route) {
	for _, route := range routes {
		s.router.AddRoute(route)
	}
}

// Routes returns the registered routes.
func (s *Server) Routes() []*Route {
	return s.router.Routes()
}

// Received returns every request handled so far, in arrival order.
func (s *Server) Received() []*Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Recorded(nil), s.received...)
}

// Last returns the most recent request, or nil.
func (s *Server) Last() *Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.received) == 0 {
		return nil
	}
	return s.received[len(s.received)-1]
}

// Reset forgets routes and recorded requests.
func (s *Server) Reset() {
	s.router.Replace(nil)
	s.mu.Lock()
	s.received = nil
	s.mu.Unlock()
}

func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleRequest)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handleRequest(w, r)
}

// Start serves on the configured port until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("stub server listening", "addr", ln.Addr().String(), "routes", len(s.router.Routes()))
	if s.verbose {
		for _, route := range s.router.Routes() {
			s.logger.Info("route", "method", route.Method, "path", route.Path, "status", route.Status)
		}
	}

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, _ := io.ReadAll(r.Body)
	rec := &Recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Host:   r.Host,
		Body:   string(body),
	}
	s.mu.Lock()
	s.received = append(s.received, rec)
	s.mu.Unlock()

	route, params := s.router.Match(rec)
	if route == nil {
		s.logRequest(rec, http.StatusNotFound, start)
		http.Error(w, fmt.Sprintf("no stub for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
		return
	}

	if !s.wait(r.Context(), s.delay+route.Delay) {
		return
	}

	if route.Drop {
		s.logRequest(rec, 0, start)
		dropConnection(w)
		return
	}

	for key, value := range route.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(route.Status)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, resolveBodyParams(route.Body, params))
	}
	s.logRequest(rec, route.Status, start)
}

// wait returns false when the client went away first.
func (s *Server) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Server) logRequest(rec *Recorded, status int, start time.Time) {
	if !s.verbose {
		return
	}
	s.logger.Info("stub request",
		"method", rec.Method,
		"path", rec.Path,
		"status", status,
		"duration", time.Since(start))
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic(http.ErrAbortHandler)
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	_ = conn.Close()
}

func resolveBodyParams(body string, params map[string]string) string {
	result := body
	for key, value := range params {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// RouteBuilder collects matchers for one route.
type RouteBuilder struct {
	server *Server
	route  *Route
}

// MatchHeader requires the request header key to equal value.
func (b *RouteBuilder) MatchHeader(key, value string) *RouteBuilder {
	if b.route.MatchHeaders == nil {
		b.route.MatchHeaders = make(map[string]string)
	}
	b.route.MatchHeaders[key] = value
	return b
}

// MatchQuery requires the query parameter key to equal value.
func (b *RouteBuilder) MatchQuery(key, value string) *RouteBuilder {
	if b.route.MatchQuery == nil {
		b.route.MatchQuery = make(map[string]string)
	}
	b.route.MatchQuery[key] = value
	return b
}

func (b *RouteBuilder) MatchBody(body string) *RouteBuilder {
	b.route.MatchBody = &body
	return b
}

func (b *RouteBuilder) Header(key, value string) *RouteBuilder {
	if b.route.Headers == nil {
		b.route.Headers = make(map[string]string)
	}
	b.route.Headers[key] = value
	return b
}

func (b *RouteBuilder) Delay(d time.Duration) *RouteBuilder {
	b.route.Delay = d
	return b
}

// Reply registers the route with a status and body.
func (b *RouteBuilder) Reply(status int, body string) *Route {
	b.route.Status = status
	b.route.Body = body
	b.server.router.AddRoute(b.route)
	return b.route
}

// ReplyJSON is Reply with a JSON content type.
func (b *RouteBuilder) ReplyJSON(status int, body string) *Route {
	return b.Header("Content-Type", "application/json").Reply(status, body)
}

// Drop registers the route to close the connection without replying.
func (b *RouteBuilder) Drop() *Route {
	b.route.Drop = true
	b.server.router.AddRoute(b.route)
	return b.route
}
