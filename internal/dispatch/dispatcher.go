// Package dispatch runs one request through authentication, routing and its
// handler and converts any failure into a classified response.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
	"github.com/relaygate/relaygate/internal/pkg/id"
	"github.com/relaygate/relaygate/internal/pkg/metrics"
	"github.com/relaygate/relaygate/internal/router"
)

// HeaderCorrelationID carries the correlation id on every response
const HeaderCorrelationID = "X-Correlation-ID"

// AuthResolver resolves the Authorization header of a request
type AuthResolver interface {
	Resolve(ctx context.Context, header string) (*domain.Principal, error)
}

// RouteMatcher finds the route for a method and path
type RouteMatcher interface {
	Match(method, path string) (*router.Match, error)
}

// Config configures a Dispatcher
type Config struct {
	// Timeout bounds a whole dispatch; zero disables it
	Timeout  time.Duration
	Logger   *zap.Logger
	Reporter Reporter
}

// Dispatcher is safe for concurrent use. Its only shared mutable state is the
// correlation counter.
type Dispatcher struct {
	auth       AuthResolver
	routes     RouteMatcher
	correlator *id.Correlator
	timeout    time.Duration
	logger     *zap.Logger
	reporter   Reporter
}

// New creates a dispatcher
func New(auth AuthResolver, routes RouteMatcher, cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = nopReporter{}
	}
	return &Dispatcher{
		auth:       auth,
		routes:     routes,
		correlator: id.NewCorrelator(),
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
		reporter:   cfg.Reporter,
	}
}

// Dispatch never returns nil and never panics. Every call logs exactly one
// start line and one completion line under its correlation id.
func (d *Dispatcher) Dispatch(ctx context.Context, req *domain.Request) (resp *domain.Response) {
	requestID := d.correlator.Next()
	log := d.logger.With(zap.String("request_id", requestID))
	start := time.Now()
	state := StateReceived
	var kind apperrors.Kind

	method, path := describe(req)
	log.Info("request started", zap.String("method", method), zap.String("path", path))

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.Internal("handler panic").WithError(fmt.Errorf("panic: %v", r))
			resp, kind = d.fail(ctx, log, requestID, state, err, zap.Stack("stack"))
			state = StateFailed
		}
		resp.Headers[HeaderCorrelationID] = requestID

		elapsed := time.Since(start)
		metrics.RecordDispatch(resp.Status, string(kind), elapsed)
		fields := []zap.Field{
			zap.Int("status", resp.Status),
			zap.String("state", state.String()),
			zap.Duration("elapsed", elapsed),
		}
		if kind != "" {
			fields = append(fields, zap.String("error_kind", string(kind)))
		}
		log.Info("request completed", fields...)
	}()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	out, err := d.run(ctx, log, req, &state)
	if err != nil {
		resp, kind = d.fail(ctx, log, requestID, state, err)
		state = StateFailed
		return resp
	}
	state = StateResponded
	return out
}

func (d *Dispatcher) run(ctx context.Context, log *zap.Logger, req *domain.Request, state *State) (*domain.Response, error) {
	if req == nil {
		return nil, apperrors.MalformedInput("Request cannot be nil")
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	path := req.Path
	if path == "" {
		path = "/"
	}
	*state = StateParsed

	principal, err := d.auth.Resolve(ctx, req.Headers.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	*state = StateAuthenticated

	match, err := d.routes.Match(method, path)
	if err != nil {
		return nil, err
	}
	if err := router.Authorize(match.Route.Auth, principal); err != nil {
		return nil, err
	}
	*state = StateRouted

	if err := ctx.Err(); err != nil {
		return nil, contextFailure(err)
	}

	call := &router.Call{
		Request:   req,
		Principal: principal,
		Params:    match.Params,
		Logger:    log,
	}
	resp, err := match.Route.Handler(ctx, call)
	if cerr := ctx.Err(); cerr != nil && errors.Is(cerr, context.DeadlineExceeded) {
		return nil, apperrors.Timeout(cerr)
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, apperrors.Internal("handler returned no response")
	}
	*state = StateHandled

	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	return resp, nil
}

func (d *Dispatcher) fail(ctx context.Context, log *zap.Logger, requestID string, state State, err error, extra ...zap.Field) (*domain.Response, apperrors.Kind) {
	c := apperrors.Classify(err)
	if !c.Exposed {
		fields := append([]zap.Field{
			zap.Error(err),
			zap.String("state", state.String()),
		}, extra...)
		log.Error("unhandled failure", fields...)
		d.reporter.Report(ctx, err, map[string]string{
			"request_id": requestID,
			"state":      state.String(),
		})
	}
	return domain.NewJSONResponse(c.Status, c.Body()), c.Kind
}

func contextFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(err)
	}
	return apperrors.Internal("request cancelled").WithError(err)
}

func describe(req *domain.Request) (string, string) {
	if req == nil {
		return "", ""
	}
	return req.Method, req.Path
}
