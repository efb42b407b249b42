// Package auth provides JWT token management and password hashing.
package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or the signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the access token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrInvalidRefreshToken indicates the refresh token is malformed or has a bad signature
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken indicates the refresh token has expired
	ErrExpiredRefreshToken = errors.New("refresh token has expired")

	// ErrWrongTokenType indicates a token was presented in the wrong role,
	// e.g. a refresh token used as an access token
	ErrWrongTokenType = errors.New("wrong token type")
)
