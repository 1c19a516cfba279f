package service

import (
	"errors"

	"github.com/atinyakov/stockroom/internal/client/api"
)

var (
	// ErrForbidden is returned before any request when the role may not
	// perform the action.
	ErrForbidden = errors.New("action not permitted for your role")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled")
	// ErrNoSession is returned by protected actions while signed out.
	ErrNoSession = errors.New("not signed in")
	// ErrLoadItems wraps any failure of the catalog fetch.
	ErrLoadItems = errors.New("failed to load items")
)

// ValidationError is a client-side input check that failed. No request is
// sent when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Describe turns an error into the text shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnreachable):
		return api.ErrUnreachable.Error()
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	case errors.Is(err, ErrNoSession):
		return ErrNoSession.Error()
	case errors.Is(err, ErrLoadItems):
		return ErrLoadItems.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}
