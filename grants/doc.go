// Package grants implements the RFC 6749 grant-type flows: authorization
// code, client credentials, resource owner password, refresh token, and
// implicit. Each flow is a GrantType plugin registered on the server with
// AddGrantType; the dispatch engine never needs to know which flows exist.
//
// All flows share the same issuance discipline: authenticate the client,
// resolve the requested scopes, bind a session, and create exactly one
// access token (plus, where the flow supports it, one paired refresh token)
// through the storage collaborators.
package grants
