package repository

import "errors"

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a stock that already has
// bookings. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
