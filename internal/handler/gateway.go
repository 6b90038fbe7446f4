package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/relaygate/relaygate/internal/domain"
)

// Dispatcher runs a request through authentication, routing and the handler
type Dispatcher interface {
	Dispatch(ctx context.Context, req *domain.Request) *domain.Response
}

// GatewayHandler forwards fiber requests to the dispatcher
type GatewayHandler struct {
	dispatcher Dispatcher
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(dispatcher Dispatcher) *GatewayHandler {
	return &GatewayHandler{
		dispatcher: dispatcher,
	}
}

// Handle dispatches the request and writes whatever response comes back
func (h *GatewayHandler) Handle(c *fiber.Ctx) error {
	resp := h.dispatcher.Dispatch(c.UserContext(), toDomainRequest(c))
	return writeResponse(c, resp)
}
