// Package services defines the business logic for accounts, contacts, wishes,
// reservations, notifications and reputation. This file centralizes the
// service-level error values so that they can be returned by service methods
// and translated into HTTP status codes by the handler layer.
package services

import "errors"

// Contact-related errors.
var (
	// ErrSelfRequest is returned when a user sends a contact request to themselves.
	ErrSelfRequest = errors.New("cannot send a contact request to yourself")

	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrContactExists is returned when a relationship row already links the pair.
	ErrContactExists = errors.New("a contact relationship already exists")

	// ErrContactNotFound covers both a missing row and a caller who is not
	// allowed to act on it, so row existence is not revealed.
	ErrContactNotFound = errors.New("contact not found")

	// ErrInvalidStatus is returned for a response status other than accepted/rejected.
	ErrInvalidStatus = errors.New("status must be accepted or rejected")
)

// Wish and reservation errors.
var (
	ErrWishNotFound    = errors.New("wish not found")
	ErrWishLimit       = errors.New("wish list is full")
	ErrInvalidPosition = errors.New("position must be a free slot between 1 and 10")
	ErrOwnWish         = errors.New("cannot reserve your own wish")
	ErrNotContact      = errors.New("only accepted contacts can do this")
	ErrAlreadyReserved = errors.New("wish is already reserved")
	ErrNotReserver     = errors.New("only the user who reserved the wish can cancel it")
	ErrForbidden       = errors.New("not allowed")
)

// Notification errors.
var ErrNotificationNotFound = errors.New("notification not found")

// Account errors.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrNicknameTaken      = errors.New("nickname already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// ErrInvalidInput wraps field validation failures; use errors.Is.
	ErrInvalidInput = errors.New("invalid input")
)

// Reputation errors.
var (
	ErrSelfVote      = errors.New("cannot vote on yourself")
	ErrDuplicateVote = errors.New("vote already recorded for this promise")
	ErrInvalidVote   = errors.New("vote type must be positive or negative")
)
