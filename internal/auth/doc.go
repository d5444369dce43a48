// Package auth holds the authorization primitives shared by the HTTP layer:
//
//   - Role, the closed set of access levels a principal can hold
//   - Principal and Session, the per-request identity resolved from the
//     identity provider
//   - Requirement and Authorize, the pure decision function that routes
//     are gated with
//
// Nothing in this package performs I/O. Session resolution lives in the
// identity package and the router composes the two in middleware.
package auth
