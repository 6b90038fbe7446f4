package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/relaygate/relaygate/internal/domain"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
	"github.com/relaygate/relaygate/internal/router"
	"github.com/relaygate/relaygate/internal/validator"
)

// Handlers serves the user and health routes
type Handlers struct {
	store domain.RecordStore
	now   func() time.Time
}

// NewHandlers creates the route handlers
func NewHandlers(store domain.RecordStore) *Handlers {
	return &Handlers{store: store, now: time.Now}
}

// Register adds every route to r
func (h *Handlers) Register(r *router.Router) {
	r.Get("/api/users", router.AuthAny, h.ListUsers)
	r.Post("/api/users", router.AuthAdmin, h.CreateUser)
	r.Get("/api/users/{id}", router.AuthNone, h.GetUser)
	r.Delete("/api/users/{id}", router.AuthAdmin, h.DeleteUser)
	r.Get("/api/health", router.AuthNone, h.Health)
}

// ListUsers returns every user and the count
func (h *Handlers) ListUsers(ctx context.Context, _ *router.Call) (*domain.Response, error) {
	records, err := h.store.List(ctx, domain.UsersTarget)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(records))
	for _, rec := range records {
		users = append(users, domain.UserFromRecord(rec))
	}
	return domain.NewJSONResponse(http.StatusOK, map[string]any{
		"users": users,
		"total": len(users),
	}), nil
}

// CreateUser stores a user and echoes it back with its id
func (h *Handlers) CreateUser(ctx context.Context, call *router.Call) (*domain.Response, error) {
	if !call.Request.HasBody() {
		return nil, apperrors.MissingField("body", "Request body required")
	}

	var input domain.UserInput
	if err := json.Unmarshal(call.Request.Body, &input); err != nil {
		return nil, apperrors.MalformedEncoding(err)
	}
	if err := validator.ValidateInput(input); err != nil {
		return nil, err
	}

	rec, err := h.store.Insert(ctx, domain.UsersTarget, map[string]any{
		"username":   input.Username,
		"email":      input.Email,
		"created_at": h.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	call.Logger.Debug("user created", zap.Any("user_id", rec.ID))
	return domain.NewJSONResponse(http.StatusCreated, domain.UserFromRecord(*rec)), nil
}

// GetUser returns one user
func (h *Handlers) GetUser(ctx context.Context, call *router.Call) (*domain.Response, error) {
	id, ok := domain.ParseRecordID(call.Param("id"))
	if !ok {
		return nil, apperrors.NotFound(call.Request.Path)
	}

	rec, err := h.store.Get(ctx, domain.UsersTarget, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound(call.Request.Path)
		}
		return nil, err
	}
	return domain.NewJSONResponse(http.StatusOK, domain.UserFromRecord(*rec)), nil
}

// DeleteUser removes a user. Deleting an absent user still succeeds.
func (h *Handlers) DeleteUser(ctx context.Context, call *router.Call) (*domain.Response, error) {
	id, ok := domain.ParseRecordID(call.Param("id"))
	if !ok {
		return nil, apperrors.NotFound(call.Request.Path)
	}

	if _, err := h.store.Delete(ctx, domain.UsersTarget, domain.Filter{domain.IDField: id}); err != nil {
		return nil, err
	}
	return domain.NewEmptyResponse(http.StatusNoContent), nil
}

// Health reports that the dispatcher is serving
func (h *Handlers) Health(context.Context, *router.Call) (*domain.Response, error) {
	return domain.NewJSONResponse(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}), nil
}

// SeedUsers inserts the demo users when the users target is empty
func SeedUsers(ctx context.Context, store domain.RecordStore) error {
	existing, err := store.List(ctx, domain.UsersTarget)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, u := range []domain.UserInput{
		{Username: "alice", Email: "alice@example.com"},
		{Username: "bob", Email: "bob@example.com"},
	} {
		if _, err := store.Insert(ctx, domain.UsersTarget, map[string]any{
			"username": u.Username,
			"email":    u.Email,
		}); err != nil {
			return err
		}
	}
	return nil
}
