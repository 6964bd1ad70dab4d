package domain

import "errors"

// ErrUserMismatch indicates an event or token that belongs to a
// different user than the active session.
var ErrUserMismatch = errors.New("user mismatch")
