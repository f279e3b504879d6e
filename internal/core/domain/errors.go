package domain

import "errors"

var (
	// ErrUnauthorized signals a protected operation attempted without
	// valid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired signals the refresh token itself has expired;
	// terminal, the session must be torn down.
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrRefreshRejected signals the identity service refused the refresh
	// exchange; terminal like ErrTokenExpired.
	ErrRefreshRejected = errors.New("refresh exchange rejected")

	// ErrNoCredentials signals an operation that needs stored credentials
	// found none.
	ErrNoCredentials = errors.New("no stored credentials")
)
