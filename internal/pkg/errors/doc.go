// Package errors provides the failure taxonomy for relaygate.
//
// Every failure the gateway can produce is an AppError carrying a Kind.
// Classify turns any error, AppError or not, into a status code and a message
// that is safe to show a client.
//
// # Kinds
//
//   - MalformedInput, InvalidArgument, MissingField, MalformedEncoding (400)
//   - InvalidToken, InvalidCredentials, AuthenticationRequired (401)
//   - PermissionDenied (403)
//   - NotFound (404)
//   - RateLimited (429)
//   - Timeout (504)
//   - ServiceUnavailable, ConnectionFailure (503)
//   - Internal and anything unrecognised (500)
//
// Errors that are not AppErrors are still recognised: context.DeadlineExceeded
// is a Timeout, an open circuit breaker is ServiceUnavailable and a *net.OpError
// is a ConnectionFailure.
//
// # Usage
//
//	return apperrors.MissingField("username", "")
//
//	c := apperrors.Classify(err)
//	if !c.Exposed {
//	    log.Error("unhandled failure", zap.Error(err))
//	}
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("insert user: %w", apperrors.Timeout(ctx.Err()))
package errors
