package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/relaygate/relaygate/internal/pkg/circuitbreaker"
)

// Classification is the public face of a failure
type Classification struct {
	Kind    Kind
	Status  int
	Message string
	// Exposed is false when the failure was not recognised and the caller must
	// log it in full before answering with the generic body.
	Exposed bool
}

// Body renders the classification as a JSON response body
func (c Classification) Body() map[string]interface{} {
	return map[string]interface{}{
		"error": c.Message,
		"code":  string(c.Kind),
	}
}

type rule struct {
	kinds   []Kind
	status  int
	message string // empty means use the failure's own message
}

// rules is evaluated top to bottom; the first rule naming the kind wins.
var rules = []rule{
	{kinds: []Kind{KindMalformedInput, KindInvalidArgument, KindUnknownOperationType}, status: http.StatusBadRequest},
	{kinds: []Kind{KindMissingField}, status: http.StatusBadRequest},
	{kinds: []Kind{KindMalformedEncoding}, status: http.StatusBadRequest, message: "Invalid JSON"},
	{kinds: []Kind{KindInvalidToken, KindInvalidCredentials, KindAuthenticationRequired}, status: http.StatusUnauthorized},
	{kinds: []Kind{KindPermissionDenied}, status: http.StatusForbidden},
	{kinds: []Kind{KindNotFound}, status: http.StatusNotFound},
	{kinds: []Kind{KindRateLimited}, status: http.StatusTooManyRequests, message: "Rate limit exceeded"},
	{kinds: []Kind{KindTimeout}, status: http.StatusGatewayTimeout, message: "Request timeout"},
	{kinds: []Kind{KindServiceUnavailable, KindConnectionFailure}, status: http.StatusServiceUnavailable, message: "Service unavailable"},
}

const internalMessage = "Internal server error"

// KindOf reports the failure kind of err. Errors that are not AppErrors are
// recognised by their shape; anything else is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Kind
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		opErr     *net.OpError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return KindServiceUnavailable
	case errors.As(err, &opErr):
		return KindConnectionFailure
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return KindMalformedEncoding
	}
	return KindInternal
}

// Classify maps err to a status code and a client-safe message. Internal and
// unrecognised failures never leak their detail.
func Classify(err error) Classification {
	kind := KindOf(err)
	if kind == "" || kind == KindInternal {
		return Classification{Kind: KindInternal, Status: http.StatusInternalServerError, Message: internalMessage}
	}

	for _, r := range rules {
		for _, k := range r.kinds {
			if k != kind {
				continue
			}
			msg := r.message
			if msg == "" {
				msg = publicMessage(err, kind)
			}
			return Classification{Kind: kind, Status: r.status, Message: msg, Exposed: true}
		}
	}
	return Classification{Kind: KindInternal, Status: http.StatusInternalServerError, Message: internalMessage}
}

func publicMessage(err error, kind Kind) string {
	if appErr := GetAppError(err); appErr != nil && appErr.Message != "" {
		return appErr.Message
	}
	switch kind {
	case KindAuthenticationRequired:
		return "Authentication required"
	case KindPermissionDenied:
		return "Permission denied"
	case KindNotFound:
		return "Not found"
	}
	return http.StatusText(http.StatusBadRequest)
}
