package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/relaygate/relaygate/internal/domain"
	"github.com/relaygate/relaygate/internal/middleware"
	apperrors "github.com/relaygate/relaygate/internal/pkg/errors"
)

// toDomainRequest copies a fiber request into a domain.Request. Fiber reuses
// its buffers after the handler returns, so nothing is aliased.
func toDomainRequest(c *fiber.Ctx) *domain.Request {
	headers := make(domain.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers.Set(string(key), string(value))
	})

	var body []byte
	if raw := c.Body(); len(raw) > 0 {
		body = make([]byte, len(raw))
		copy(body, raw)
	}

	return &domain.Request{
		Method:  c.Method(),
		Path:    c.Path(),
		Headers: headers,
		Body:    body,
		Query:   c.Queries(),
	}
}

// writeResponse writes a dispatcher response. A nil body is sent without
// content.
func writeResponse(c *fiber.Ctx, resp *domain.Response) error {
	for k, v := range resp.Headers {
		c.Set(k, v)
	}

	data, err := resp.MarshalBody()
	if err != nil {
		return middleware.WriteError(c, apperrors.Internal("failed to encode response").WithError(err))
	}

	c.Status(resp.Status)
	if data == nil {
		return nil
	}
	return c.Send(data)
}
