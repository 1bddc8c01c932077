package domain

import "errors"

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrInvalidPollID    = errors.New("invalid poll id")
	ErrInvalidOption    = errors.New("invalid option for this poll")
	ErrAlreadyVoted     = errors.New("user has already voted")
	ErrPollNotStarted   = errors.New("poll has not started yet")
	ErrPollEnded        = errors.New("poll has ended")
	ErrCategoryNotFound = errors.New("poll category not found")
	ErrNotCreator       = errors.New("only the creator can delete this poll")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Classification targets for APIError.
	ErrTransport    = errors.New("transport failure")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
)
