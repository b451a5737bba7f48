package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Clan related errors
	ErrClanNotFound      = errors.New("clan not found")
	ErrClanAlreadyExists = errors.New("clan already exists")

	ErrTaskNotFound         = errors.New("task not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
