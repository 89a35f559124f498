// Package replay implements the replay orchestration engine: an ordered,
// resumable, at-most-once-per-commit apply loop with a persisted recovery
// state machine. Collaborators are injected as interfaces so the state
// machine is testable without a real repository or network.
package replay

import (
	"context"

	"github.com/sevigo/pr-replay/internal/core"
)

// VersionControl is the local repository capability the pipeline consumes.
// Satisfied by *gitutil.Client.
type VersionControl interface {
	BinaryAvailable() error
	IsRepository(path string) bool
	IsTreeClean(ctx context.Context, path string) (bool, error)
	CurrentBranch(path string) (string, error)
	ParentCount(path, sha string) (int, error)
	IsAncestor(path, sha string) (bool, error)
	CherryPick(ctx context.Context, path, sha string) error
	Describe(path, sha string) (string, error)
}

// RecoveryStore is the durable session record the engine persists into.
// Satisfied by *state.Store.
type RecoveryStore interface {
	Save(sess *core.Session) error
	Load(prNumber int) (*core.Session, error)
	List() ([]*core.Session, error)
	Clear(prNumber int) error
}
