// Package common contains shared constants, sentinel errors and small helpers
// used across the ComplianceBinder server and the binderctl client.
package common

// AuthorizationHeaderName is the HTTP header that carries the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme prefix expected in
// AuthorizationHeaderName.
const BearerScheme = "Bearer"

// TokenType is the fixed token-type marker returned by login.
const TokenType = "bearer"

// RequestIDHeaderName carries the per-request correlation id in both
// directions.
const RequestIDHeaderName = "X-Request-ID"
