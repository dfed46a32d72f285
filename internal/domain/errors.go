package domain

import "errors"

var (
	ErrEmptyQuery   = errors.New("empty query")
	ErrQueryTooLong = errors.New("query too long")
)

// три категории отказа на запрос, мапятся в разные HTTP статусы
var (
	ErrDirectoryUnavailable = errors.New("instance directory unavailable")
	ErrNoEligibleInstance   = errors.New("no eligible instance")
	ErrInstanceUnreachable  = errors.New("instance unreachable")
)

var (
	ErrInvalidPreferences  = errors.New("invalid preferences")
	ErrPreferencesNotSaved = errors.New("preferences not saved")
)
