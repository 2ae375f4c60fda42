package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when request input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUser is returned when the email or phone is already registered.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrInvalidCredentials is returned when email/password do not match a user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed, expired, forged and revoked credentials.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden is returned when the actor's role does not allow the operation.
	ErrForbidden = errors.New("unauthorized")
	// ErrNotFound is the parent of every lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound indicates no user matches the lookup key.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrVideoNotFound indicates no video matches the given id.
	ErrVideoNotFound = fmt.Errorf("video %w", ErrNotFound)
	// ErrNoVideos is returned by listings when the catalogue is empty.
	ErrNoVideos = fmt.Errorf("no videos %w", ErrNotFound)
	// ErrCountMismatch indicates the number of answers differs from the number of questions.
	ErrCountMismatch = errors.New("answer count does not match question count")
)
