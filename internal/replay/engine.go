package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-replay/internal/core"
	"github.com/sevigo/pr-replay/internal/gitutil"
)

// State is the engine's position in its lifecycle. Only StateConflictPaused
// survives the process, through the recovery store; every other state is
// transient within one invocation.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateConflictPaused
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateConflictPaused:
		return "conflict-paused"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Engine applies commits one at a time, owns the replay state machine, and
// persists recovery state on conflict. It never resolves conflicts itself:
// resolution is always deferred to git's own continue/skip/abort flow.
type Engine struct {
	vcs      VersionControl
	store    RecoveryStore
	progress core.ProgressFunc
	logger   *slog.Logger

	// DryRun walks the sequence and emits progress without applying
	// anything or touching persisted state.
	DryRun bool

	state State
}

// NewEngine returns an engine in StateIdle. progress may be nil.
func NewEngine(vcs VersionControl, store RecoveryStore, progress core.ProgressFunc, logger *slog.Logger) *Engine {
	if progress == nil {
		progress = func(core.Progress) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{vcs: vcs, store: store, progress: progress, logger: logger, state: StateIdle}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Run replays a fresh, ordered commit sequence onto the current branch.
//
// An unresolved session for the same pull request blocks the run with
// ErrSessionMismatch: the caller must recover or discard it first, otherwise
// the fresh run would re-apply commits the session already accounted for.
// Unresolved sessions for other pull requests coexist (the store is keyed by
// PR number) and are only logged.
func (e *Engine) Run(ctx context.Context, repoPath string, prNumber int, refs []core.CommitRef) (core.Outcome, error) {
	existing, err := e.store.Load(prNumber)
	if err != nil {
		return core.Outcome{}, err
	}
	if existing != nil {
		return core.Outcome{}, fmt.Errorf(
			"%w: PR #%d has an unresolved session (%d/%d applied); run recover or discard it",
			ErrSessionMismatch, prNumber, existing.Succeeded, existing.Total)
	}

	if others, err := e.store.List(); err == nil {
		for _, s := range others {
			if s.PRNumber != prNumber {
				e.logger.Warn("unresolved session for another pull request exists",
					"pr", s.PRNumber, "applied", s.Succeeded, "total", s.Total)
			}
		}
	}

	return e.apply(ctx, repoPath, prNumber, refs, 0, 0, len(refs))
}

// Recover resumes an interrupted replay. The absence of uncommitted changes
// is the sole signal that the previously failed commit was resolved
// externally; the engine does not re-verify its content.
func (e *Engine) Recover(ctx context.Context, repoPath string, prNumber int) (core.Outcome, error) {
	sess, err := e.store.Load(prNumber)
	if err != nil {
		return core.Outcome{}, err
	}
	if sess == nil {
		others, _ := e.store.List()
		if len(others) > 0 {
			return core.Outcome{}, fmt.Errorf(
				"%w: no session for PR #%d, but %d other session(s) exist; check status",
				ErrSessionMismatch, prNumber, len(others))
		}
		return core.Outcome{}, fmt.Errorf("%w for PR #%d", ErrNoRecoveryState, prNumber)
	}

	clean, err := e.vcs.IsTreeClean(ctx, repoPath)
	if err != nil {
		return core.Outcome{}, err
	}
	if !clean {
		// Session stays untouched; the user has to finish the conflict via
		// git cherry-pick --continue/--skip/--abort before resuming.
		e.state = StateConflictPaused
		return core.Outcome{}, fmt.Errorf(
			"%w: commit %s of PR #%d; settle it with git cherry-pick --continue/--skip/--abort",
			ErrConflictUnresolved, sess.FailedSHA, prNumber)
	}

	refs := make([]core.CommitRef, 0, len(sess.Remaining))
	start := sess.Total - len(sess.Remaining)
	for i, sha := range sess.Remaining {
		ref := core.CommitRef{SHA: sha, Position: start + i}
		if summary, err := e.vcs.Describe(repoPath, sha); err == nil {
			ref.Summary = summary
		}
		refs = append(refs, ref)
	}

	e.logger.Info("resuming interrupted replay",
		"pr", prNumber, "applied", sess.Succeeded, "remaining", len(sess.Remaining))
	// The previously failed commit was settled externally; count it as
	// resolved so a rewritten session keeps its accounting consistent.
	return e.apply(ctx, repoPath, prNumber, refs, sess.Succeeded, sess.Resolved+1, sess.Total)
}

// apply is the sequential loop shared by fresh runs and resumptions. refs is
// the slice of commits still to attempt; succeeded is the carried-over count
// of commits already applied in earlier invocations, resolved the count of
// earlier conflicts the user settled externally.
func (e *Engine) apply(ctx context.Context, repoPath string, prNumber int, refs []core.CommitRef, succeeded, resolved, total int) (core.Outcome, error) {
	e.state = StateRunning

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			e.state = StateAborted
			return core.Aborted("interrupted", succeeded), err
		}

		e.progress(core.Progress{Index: ref.Position + 1, Total: total, Ref: ref})

		if e.DryRun {
			succeeded++
			continue
		}

		err := e.vcs.CherryPick(ctx, repoPath, ref.SHA)
		if err == nil {
			succeeded++
			e.logger.Debug("commit applied", "sha", ref.SHA, "applied", succeeded, "total", total)
			continue
		}

		// An interrupt mid-cherry-pick kills the git subprocess, which
		// surfaces as a plain exec error rather than ctx.Err; report it as
		// an interrupt, not an engine failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.state = StateAborted
			return core.Aborted("interrupted", succeeded), ctxErr
		}

		var conflict *gitutil.ConflictError
		if !errors.As(err, &conflict) {
			e.state = StateAborted
			return core.Aborted(err.Error(), succeeded), err
		}

		remaining := make([]string, 0, len(refs)-i-1)
		for _, r := range refs[i+1:] {
			remaining = append(remaining, r.SHA)
		}
		sess := &core.Session{
			PRNumber:  prNumber,
			FailedSHA: ref.SHA,
			Succeeded: succeeded,
			Resolved:  resolved,
			Total:     total,
			Remaining: remaining,
		}
		if err := e.store.Save(sess); err != nil {
			e.state = StateAborted
			return core.Aborted("failed to persist recovery state", succeeded), err
		}

		e.state = StateConflictPaused
		e.logger.Warn("replay paused on conflict",
			"pr", prNumber, "sha", ref.SHA, "applied", succeeded, "remaining", len(remaining))
		return core.ConflictStopped(ref, succeeded, remaining), nil
	}

	if !e.DryRun {
		if err := e.store.Clear(prNumber); err != nil {
			return core.Outcome{}, err
		}
	}
	e.state = StateCompleted
	return core.Completed(succeeded), nil
}
