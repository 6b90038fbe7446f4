// Package api holds the route handlers served through the dispatcher.
//
// # Endpoints
//
//	GET    /api/users        any authenticated caller
//	POST   /api/users        admin only
//	GET    /api/users/{id}   anonymous
//	DELETE /api/users/{id}   admin only
//	GET    /api/health       anonymous
//
// Users are records of the "users" target in the configured store.
package api
