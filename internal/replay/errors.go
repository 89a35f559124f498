package replay

import "errors"

var (
	// ErrEmptyPR marks a pull request with zero commits. There is nothing
	// to replay, so this is a hard failure rather than a warning.
	ErrEmptyPR = errors.New("pull request has no commits")

	// ErrDeclined marks a soft gate the caller answered with no.
	ErrDeclined = errors.New("cancelled by user")

	// ErrNoRecoveryState marks a recover invocation with no persisted
	// session for the requested pull request.
	ErrNoRecoveryState = errors.New("no recovery state found")

	// ErrSessionMismatch marks a persisted session that does not belong to
	// the requested pull request, or an unresolved session blocking a fresh
	// replay of the same pull request.
	ErrSessionMismatch = errors.New("persisted session does not match requested pull request")

	// ErrConflictUnresolved marks a recover invocation while the working
	// tree still has uncommitted changes. The previous conflict must be
	// settled through git cherry-pick --continue/--skip/--abort first.
	ErrConflictUnresolved = errors.New("previous conflict is not resolved yet")
)
