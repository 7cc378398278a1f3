package domain

import "errors"

// Operation failure taxonomy. Use cases return these wrapped with context;
// callers branch with errors.Is.
var (
	// ErrNotAuthenticated operation issued before the connection established an identity
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrNotFound referenced user, room, message or notification does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden blocked sender, non-member sender, or non-owner mutation
	ErrForbidden = errors.New("forbidden")
	// ErrExternalUnavailable a persistence or membership collaborator failed
	ErrExternalUnavailable = errors.New("external service unavailable")
	// ErrMessageTarget message must have exactly one of recipient or room
	ErrMessageTarget = errors.New("message must have exactly one of recipient or room")
)
