// Package handler contains the fiber handlers of the relaygate server.
//
// GatewayHandler adapts any fiber request into a domain.Request and hands it
// to the dispatcher, which owns authentication, routing and error
// classification for everything under /api. The remaining handlers serve
// routes that live outside the dispatcher:
//   - POST /api/batch runs or enqueues a batch of storage operations
//   - /livez, /readyz, /healthz and /version report process health
//   - /metrics exposes Prometheus metrics
//
// All handlers are safe for concurrent use.
package handler
