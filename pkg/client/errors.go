package client

import "errors"

var (
	// ErrRunNotActive is returned when no run is serving status on the socket
	ErrRunNotActive = errors.New("no run in progress")

	// ErrPermissionDenied is returned when the user may not open the status socket
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when 404 is returned from the status server
	ErrNotFound = errors.New("404 not found")
)
