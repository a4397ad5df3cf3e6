package repository

import "errors"

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a unique key (cognitoId) is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyFavorite is returned when the property is already in the
	// tenant's favorites.
	ErrAlreadyFavorite = errors.New("property already added as favorite")

	// ErrApplicationClosed is returned when a status change targets an
	// application that already left Pending.
	ErrApplicationClosed = errors.New("application already decided")
)

// NotFoundError names the missing entity so handlers can say which one.
type NotFoundError struct {
	Entity string
}

func NotFound(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
