// Package domain contains the core value types shared by relaygate components.
//
// This package defines:
//   - Principal: the authenticated identity attached to a request or batch
//   - Request and Response: transport-agnostic dispatch values
//   - Operation, BatchContext and BatchResult: batch processing values
//   - Store and RecordReader: the storage collaborator contracts
//
// # Design Philosophy
//
// Domain types carry no transport or persistence knowledge. Adapters in
// internal/handler and internal/repository translate to and from them.
//
// # Naming Conventions
//
// Types ending in "Input" are decoded request bodies.
// Types ending in "Result" are produced by a component and returned unmodified.
package domain
