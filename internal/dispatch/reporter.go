package dispatch

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// Reporter receives failures the classifier did not recognise
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// SentryReporter forwards failures to Sentry on a per-call hub
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter creates a reporter on the current Sentry hub. Sentry must
// already be initialised; otherwise events are dropped by the client.
func NewSentryReporter() *SentryReporter {
	return &SentryReporter{hub: sentry.CurrentHub()}
}

// Report implements Reporter
func (r *SentryReporter) Report(_ context.Context, err error, tags map[string]string) {
	hub := r.hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, error, map[string]string) {}
