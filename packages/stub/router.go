package stub

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Route is one scripted reply.
type Route struct {
	Method  string            `yaml:"method" json:"method"`
	Path    string            `yaml:"path" json:"path"`
	Status  int               `yaml:"status" json:"status"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty" json:"body,omitempty"`

	// Delay holds the reply back; the wait ends early if the client goes away.
	Delay time.Duration `yaml:"delay,omitempty" json:"delay,omitempty"`
	// Drop closes the connection without writing a response.
	Drop bool `yaml:"drop,omitempty" json:"drop,omitempty"`

	MatchHeaders map[string]string `yaml:"matchHeaders,omitempty" json:"matchHeaders,omitempty"`
	MatchQuery   map[string]string `yaml:"matchQuery,omitempty" json:"matchQuery,omitempty"`
	MatchBody    *string           `yaml:"matchBody,omitempty" json:"matchBody,omitempty"`

	pathRegex *regexp.Regexp
}

// Router matches incoming requests to routes
type Router struct {
	mu     sync.RWMutex
	routes []*Route
}

func NewRouter() *Router {
	return &Router{
		routes: make([]*Route, 0),
	}
}

// AddRoute adds a route to the router
func (r *Router) AddRoute(route *Route) {
	route.Path = normalizePath(route.Path)
	route.pathRegex = createPathRegex(route.Path)
	if route.Status == 0 {
		route.Status = 200
	}

	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

// Replace swaps the whole route table.
func (r *Router) Replace(routes []*Route) {
	fresh := NewRouter()
	for _, route := range routes {
		fresh.AddRoute(route)
	}

	r.mu.Lock()
	r.routes = fresh.routes
	r.mu.Unlock()
}

func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Route(nil), r.routes...)
}

// Match finds the first route accepting the request. Routes are tried in
// the order they were added.
func (r *Router) Match(req *Recorded) (*Route, map[string]string) {
	path := normalizePath(req.Path)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if !strings.EqualFold(route.Method, req.Method) {
			continue
		}

		params := matchPath(route, path)
		if params == nil {
			continue
		}
		if !route.accepts(req) {
			continue
		}
		return route, params
	}

	return nil, nil
}

func (route *Route) accepts(req *Recorded) bool {
	for k, v := range route.MatchHeaders {
		if req.Header.Get(k) != v {
			return false
		}
	}
	for k, v := range route.MatchQuery {
		if req.Query.Get(k) != v {
			return false
		}
	}
	if route.MatchBody != nil && *route.MatchBody != req.Body {
		return false
	}
	return true
}

func normalizePath(path string) string {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	// Remove trailing slash (except for root)
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

var paramPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

func createPathRegex(pattern string) *regexp.Regexp {
	if !paramPattern.MatchString(pattern) {
		return nil
	}

	var b strings.Builder
	last := 0
	for _, loc := range paramPattern.FindAllStringSubmatchIndex(pattern, -1) {
		b.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		name := strings.TrimSpace(pattern[loc[2]:loc[3]])
		b.WriteString(`(?P<` + name + `>[^/]+)`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))

	regex, err := regexp.Compile("^" + b.String() + "$")
	if err != nil {
		return nil
	}
	return regex
}

func matchPath(route *Route, path string) map[string]string {
	if route.pathRegex != nil {
		matches := route.pathRegex.FindStringSubmatch(path)
		if matches != nil {
			params := make(map[string]string)
			for i, name := range route.pathRegex.SubexpNames() {
				if i > 0 && name != "" && i < len(matches) {
					params[name] = matches[i]
				}
			}
			return params
		}
		return nil
	}

	if route.Path == path {
		return make(map[string]string)
	}
	return nil
}
