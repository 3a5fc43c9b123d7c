package auth

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrManagerAccessRequired = errors.New("manager or owner access required")
	ErrActorMissing          = errors.New("token does not identify a user")
)
