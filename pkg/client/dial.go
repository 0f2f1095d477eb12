package client

import (
	"errors"
	"os"
	"syscall"
)

// dialError maps a failed socket dial to the client's sentinels. A socket
// file left behind with nobody listening counts as no run.
func dialError(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, syscall.ECONNREFUSED):
		return ErrRunNotActive
	case errors.Is(err, os.ErrPermission):
		return ErrPermissionDenied
	}
	return err
}
