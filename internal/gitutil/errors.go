package gitutil

import (
	"errors"
	"fmt"
)

var (
	ErrNotARepository = errors.New("not a git repository")
	ErrDetachedHead   = errors.New("HEAD is detached, check out a branch first")
	ErrGitMissing     = errors.New("git binary not found in PATH")
)

// ConflictError reports a cherry-pick that stopped on a content conflict.
// It is the expected, recoverable failure mode of a replay step, not a bug.
type ConflictError struct {
	SHA    string
	Output string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cherry-pick of %s conflicted", e.SHA)
}
