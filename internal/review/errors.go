package review

import "errors"

var (
	ErrNotFound     = errors.New("pull request not found")
	ErrUnauthorized = errors.New("not authorized to read pull request")
	ErrNetwork      = errors.New("review host unreachable")
)
