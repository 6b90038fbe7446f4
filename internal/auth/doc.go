// Package auth resolves an Authorization header into a principal.
//
// Resolve understands two schemes:
//
//	Bearer <token>   handed to a TokenValidator when the token is long enough
//	Basic <base64>   decoded to user:password and handed to a CredentialChecker
//
// An empty header resolves to a nil principal with no error. Callers decide
// whether anonymous access is acceptable.
package auth
