package domain

import "errors"

var (
	ErrInvalidCandidateID = errors.New("candidate id invalid")
	ErrCandidateExists    = errors.New("candidate already active")
	ErrCandidateNotFound  = errors.New("candidate not found or inactive")
	ErrAlreadyVoted       = errors.New("already voted this period")
	ErrEmptyBallot        = errors.New("ballot has no picks")
	ErrUnknownResetScope  = errors.New("unknown reset scope")
)
