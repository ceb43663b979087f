// Package auth is the identity boundary of the gateway.
//
// Requests carry an HS256 JWT in the Authorization header; the "sub" claim
// names the user. Middleware verifies the token, resolves the user record,
// and attaches it to the request context, where handlers retrieve it with
// UserFromContext. Everything below the middleware trusts the user ID it
// was handed and never re-checks credentials.
//
// JWTVerifier also issues tokens (Generate), which the login flow and the
// test suite use. Credential verification itself - how a user proves who
// they are before a token is minted - lives outside this package.
package auth
