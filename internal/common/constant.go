// Package common contains shared constants and sentinel errors used across
// passvault components.
package common

import "time"

// AuthorizationHeaderName carries the bearer token on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// DefaultTokenValidityDuration is how long an issued access token stays valid.
const DefaultTokenValidityDuration = 7 * 24 * time.Hour
