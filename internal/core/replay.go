// Package core defines the essential data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the replay logic.
package core

import "fmt"

// CommitRef identifies a single changeset of a pull request. The SHA is the
// content-addressed hash of the commit; Position is its chronological index
// within the PR (oldest first), which is also the replay order.
type CommitRef struct {
	SHA      string
	Position int
	Summary  string
	Parents  int
}

// IsMerge reports whether the commit has more than one parent. Cherry-picking
// a merge commit is ambiguous (which parent's diff applies is undefined), so
// merge commits always require explicit confirmation before any apply.
func (r CommitRef) IsMerge() bool {
	return r.Parents > 1
}

// ShortSHA returns the abbreviated hash used for display.
func (r CommitRef) ShortSHA() string {
	if len(r.SHA) > 7 {
		return r.SHA[:7]
	}
	return r.SHA
}

// PRState is the lifecycle state of a pull request on the review host.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
	PRStateMerged PRState = "merged"
)

// PullRequest is the subset of pull request metadata the replay pipeline needs.
type PullRequest struct {
	Number int
	Title  string
	State  PRState
}

// Progress is emitted once per commit before the apply is attempted.
// Index is 1-based; Index == Total on the last commit.
type Progress struct {
	Index int
	Total int
	Ref   CommitRef
}

// ProgressFunc receives progress events from the engine. A nil ProgressFunc
// is valid and silently discards events.
type ProgressFunc func(Progress)

// ConfirmFunc resolves a soft gate: the caller decides whether to proceed.
// Non-interactive callers supply a fixed policy (always-yes or always-no)
// instead of reading from a terminal.
type ConfirmFunc func(prompt string) bool

// OutcomeKind discriminates the terminal states of one replay invocation.
type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeConflictStopped
	OutcomeAborted
)

// Outcome is the result of a full or partial replay run.
type Outcome struct {
	Kind      OutcomeKind
	Succeeded int
	FailedRef CommitRef
	Remaining []string
	Reason    string
}

// Completed builds the outcome of a replay that applied every pending commit.
func Completed(succeeded int) Outcome {
	return Outcome{Kind: OutcomeCompleted, Succeeded: succeeded}
}

// ConflictStopped builds the outcome of a replay halted by a content conflict.
func ConflictStopped(failed CommitRef, succeeded int, remaining []string) Outcome {
	return Outcome{
		Kind:      OutcomeConflictStopped,
		Succeeded: succeeded,
		FailedRef: failed,
		Remaining: remaining,
	}
}

// Aborted builds the outcome of a replay that stopped for a reason other
// than a conflict, such as a cancelled context.
func Aborted(reason string, succeeded int) Outcome {
	return Outcome{Kind: OutcomeAborted, Succeeded: succeeded, Reason: reason}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeCompleted:
		return fmt.Sprintf("completed (%d commits applied)", o.Succeeded)
	case OutcomeConflictStopped:
		return fmt.Sprintf("conflict at %s (%d applied, %d remaining)",
			o.FailedRef.ShortSHA(), o.Succeeded, len(o.Remaining))
	case OutcomeAborted:
		return fmt.Sprintf("aborted: %s", o.Reason)
	default:
		return "unknown outcome"
	}
}
