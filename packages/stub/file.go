package stub

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk route table:
//
//	routes:
//	  - method: GET
//	    path: /users/{{id}}
//	    status: 200
//	    headers: {Content-Type: application/json}
//	    body: '{"id": "{{id}}"}'
//	    delay: 250ms
type File struct {
	Routes []*Route `yaml:"routes"`
}

// ParseFile reads and validates a route file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse routes %s: %w", path, err)
	}

	for i, route := range f.Routes {
		if route == nil || route.Method == "" || route.Path == "" {
			return nil, fmt.Errorf("route %d in %s: method and path are required", i+1, path)
		}
	}
	return &f, nil
}

// LoadFile adds the routes of a route file.
func (s *Server) LoadFile(path string) error {
	f, err := ParseFile(path)
	if err != nil {
		return err
	}
	s.Add(f.Routes...)
	return nil
}

// Reload replaces the route table with the contents of paths. The current
// table is kept if any file fails to parse.
func (s *Server) Reload(paths ...string) error {
	var routes []*Route
	for _, path := range paths {
		f, err := ParseFile(path)
		if err != nil {
			return err
		}
		routes = append(routes, f.Routes...)
	}
	s.router.Replace(routes)
	return nil
}
