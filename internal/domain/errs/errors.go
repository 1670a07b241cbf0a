package errs

import "errors"

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrGroupNotEmpty  = errors.New("group still has cameras")
	ErrCameraNotFound = errors.New("camera not found")

	ErrInvalidMode   = errors.New("invalid command mode")
	ErrInvalidMethod = errors.New("invalid command method")

	ErrControlNotFound = errors.New("tracking control not found on page")

	ErrWriteToDB = errors.New("failed to write to database")
)
