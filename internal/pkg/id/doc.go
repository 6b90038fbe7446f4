// Package id provides identifier generation for relaygate.
//
// This package generates:
//   - dispatcher correlation ids (req_<unix-millis>_<counter>)
//   - UUID v4 identifiers for HTTP request ids and async batch task ids
//
// All functions are safe for concurrent use.
package id
