package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer credential.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the opaque API token in the authorization value.
const BearerPrefix = "Bearer "

// RequestIDHeaderName is echoed back on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"
