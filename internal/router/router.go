// Package router matches a method and path to a route handler.
package router

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

// AuthRequirement is the authentication a route demands
type AuthRequirement int

const (
	// AuthNone admits anonymous callers
	AuthNone AuthRequirement = iota
	// AuthAny admits any resolved principal
	AuthAny
	// AuthAdmin admits principals with the admin role
	AuthAdmin
)

// String returns the requirement name
func (a AuthRequirement) String() string {
	switch a {
	case AuthNone:
		return "none"
	case AuthAny:
		return "any-authenticated"
	case AuthAdmin:
		return "admin-only"
	}
	return "unknown"
}

// Params holds path parameters captured by a prefix route
type Params map[string]string

// Call is everything a route handler receives
type Call struct {
	Request   *domain.Request
	Principal *domain.Principal
	Params    Params
	Logger    *zap.Logger
}

// Param returns a captured path parameter
func (c *Call) Param(name string) string {
	return c.Params[name]
}

// Handler handles a routed call
type Handler func(ctx context.Context, call *Call) (*domain.Response, error)

// Route binds a method on a path pattern to a handler. A pattern ending in a
// "{name}" segment is a prefix route that captures the remainder of the path.
type Route struct {
	Method  string
	Pattern string
	Auth    AuthRequirement
	Handler Handler
}

// Match is a resolved route
type Match struct {
	Route  Route
	Params Params
}

type prefixRule struct {
	prefix string
	param  string
	routes map[string]Route
}

// Router is the route table. It is built once at startup and only read afterwards.
type Router struct {
	exact  map[string]map[string]Route
	prefix []*prefixRule
}

// New creates an empty router
func New() *Router {
	return &Router{exact: make(map[string]map[string]Route)}
}

// Add registers a route. Registering the same method and pattern twice replaces the first.
func (r *Router) Add(route Route) {
	route.Method = strings.ToUpper(route.Method)

	prefix, param, ok := splitParam(route.Pattern)
	if !ok {
		methods := r.exact[route.Pattern]
		if methods == nil {
			methods = make(map[string]Route)
			r.exact[route.Pattern] = methods
		}
		methods[route.Method] = route
		return
	}

	for _, rule := range r.prefix {
		if rule.prefix == prefix {
			rule.routes[route.Method] = route
			return
		}
	}
	r.prefix = append(r.prefix, &prefixRule{
		prefix: prefix,
		param:  param,
		routes: map[string]Route{route.Method: route},
	})
	sort.SliceStable(r.prefix, func(i, j int) bool {
		return len(r.prefix[i].prefix) > len(r.prefix[j].prefix)
	})
}

// Get registers a GET route
func (r *Router) Get(pattern string, auth AuthRequirement, h Handler) {
	r.Add(Route{Method: http.MethodGet, Pattern: pattern, Auth: auth, Handler: h})
}

// Post registers a POST route
func (r *Router) Post(pattern string, auth AuthRequirement, h Handler) {
	r.Add(Route{Method: http.MethodPost, Pattern: pattern, Auth: auth, Handler: h})
}

// Delete registers a DELETE route
func (r *Router) Delete(pattern string, auth AuthRequirement, h Handler) {
	r.Add(Route{Method: http.MethodDelete, Pattern: pattern, Auth: auth, Handler: h})
}

// Match resolves method and path. Exact patterns are tried before any prefix
// rule, and prefix rules are tried longest first. An unknown path, or a known
// path without the method, is NotFound.
func (r *Router) Match(method, path string) (*Match, error) {
	method = strings.ToUpper(method)

	if methods, ok := r.exact[path]; ok {
		if route, ok := methods[method]; ok {
			return &Match{Route: route, Params: Params{}}, nil
		}
		return nil, apperrors.NotFound(path)
	}

	for _, rule := range r.prefix {
		if !strings.HasPrefix(path, rule.prefix) {
			continue
		}
		rest := path[len(rule.prefix):]
		if rest == "" {
			continue
		}
		route, ok := rule.routes[method]
		if !ok {
			return nil, apperrors.NotFound(path)
		}
		return &Match{Route: route, Params: Params{rule.param: rest}}, nil
	}

	return nil, apperrors.NotFound(path)
}

// Authorize checks a principal against a route's requirement
func Authorize(auth AuthRequirement, p *domain.Principal) error {
	switch auth {
	case AuthNone:
		return nil
	case AuthAny:
		if p == nil {
			return apperrors.Unauthorized("")
		}
		return nil
	default:
		if p == nil {
			return apperrors.Unauthorized("")
		}
		if !p.IsAdmin() {
			return apperrors.Forbidden("Admin access required")
		}
		return nil
	}
}

// splitParam splits "/api/users/{id}" into "/api/users/" and "id"
func splitParam(pattern string) (string, string, bool) {
	i := strings.LastIndexByte(pattern, '/')
	if i < 0 {
		return "", "", false
	}
	last := pattern[i+1:]
	if len(last) < 3 || last[0] != '{' || last[len(last)-1] != '}' {
		return "", "", false
	}
	return pattern[:i+1], last[1 : len(last)-1], true
}
