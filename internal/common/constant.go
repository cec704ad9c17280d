// Package common contains shared constants and sentinel errors used across
// homeserver components.
package common

// URL prefixes the homeserver mounts its resources under.
const (
	ClientPrefix      = "/matrix/client/api/v1"
	FederationPrefix  = "/matrix/federation/v1"
	WebClientPrefix   = "/matrix/client"
	ContentRepoPrefix = "/matrix/content"
)

// Metadata keys carrying admin credentials on the admin channel.
const (
	AdminUserHeaderName     = "admin-user"
	AdminPasswordHeaderName = "admin-password"
)

// RequestIDHeaderName is the HTTP header echoing the per-request id.
const RequestIDHeaderName = "X-Request-Id"
