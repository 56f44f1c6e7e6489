package common

// AuthorizationHeaderName carries the access token on downstream requests,
// as "Bearer <token>". The gRPC interceptor reads the same key from metadata.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the authorization scheme for access tokens.
const BearerScheme = "Bearer"

// RefreshCookieName is the cookie holding the refresh token.
const RefreshCookieName = "refresh_token"

// AuthPathPrefix scopes the refresh cookie to the auth endpoints.
const AuthPathPrefix = "/api/auth"
