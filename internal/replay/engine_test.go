package replay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-replay/internal/core"
	"github.com/sevigo/pr-replay/internal/state"
)

func TestEngineFullReplay(t *testing.T) {
	vcs := newFakeVCS()
	store := newFakeStore()
	engine := NewEngine(vcs, store, nil, nil)

	refs := makeRefs("c1", "c2", "c3", "c4", "c5")
	outcome, err := engine.Run(context.Background(), ".", 33, refs)

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeCompleted, outcome.Kind)
	assert.Equal(t, 5, outcome.Succeeded)
	assert.Equal(t, StateCompleted, engine.State())

	// At-most-once, in sequence.
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, vcs.attempts)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, vcs.applied)
	assert.Empty(t, store.sessions)
}

func TestEngineConflictPersistsSession(t *testing.T) {
	vcs := newFakeVCS()
	vcs.conflicts["abc123"] = true
	store := newFakeStore()
	engine := NewEngine(vcs, store, nil, nil)

	refs := makeRefs("aaa111", "bbb222", "abc123", "def456", "ghi789")
	outcome, err := engine.Run(context.Background(), ".", 33, refs)

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeConflictStopped, outcome.Kind)
	assert.Equal(t, "abc123", outcome.FailedRef.SHA)
	assert.Equal(t, 2, outcome.Succeeded)
	assert.Equal(t, []string{"def456", "ghi789"}, outcome.Remaining)
	assert.Equal(t, StateConflictPaused, engine.State())

	// The commits after the conflict were never attempted.
	assert.Equal(t, []string{"aaa111", "bbb222", "abc123"}, vcs.attempts)

	sess := store.sessions[33]
	require.NotNil(t, sess)
	assert.Equal(t, "abc123", sess.FailedSHA)
	assert.Equal(t, 2, sess.Succeeded)
	assert.Equal(t, 5, sess.Total)
	assert.Equal(t, []string{"def456", "ghi789"}, sess.Remaining)
	assert.NoError(t, sess.Validate())
}

func TestEngineRunBlockedByUnresolvedSession(t *testing.T) {
	vcs := newFakeVCS()
	store := newFakeStore()
	require.NoError(t, store.Save(&core.Session{
		PRNumber: 33, FailedSHA: "abc123", Succeeded: 2, Total: 5,
		Remaining: []string{"def456", "ghi789"},
	}))
	engine := NewEngine(vcs, store, nil, nil)

	_, err := engine.Run(context.Background(), ".", 33, makeRefs("c1", "c2"))

	assert.ErrorIs(t, err, ErrSessionMismatch)
	assert.Empty(t, vcs.attempts)
	// Session untouched.
	assert.Equal(t, "abc123", store.sessions[33].FailedSHA)
}

func TestEngineRecoverAppliesRemaining(t *testing.T) {
	vcs := newFakeVCS()
	store := newFakeStore()
	require.NoError(t, store.Save(&core.Session{
		PRNumber: 33, FailedSHA: "abc123", Succeeded: 2, Total: 5,
		Remaining: []string{"def456", "ghi789"},
	}))
	engine := NewEngine(vcs, store, nil, nil)

	outcome, err := engine.Recover(context.Background(), ".", 33)

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeCompleted, outcome.Kind)
	// 2 carried over + 2 applied now; the manually resolved commit is not counted.
	assert.Equal(t, 4, outcome.Succeeded)
	assert.Equal(t, []string{"def456", "ghi789"}, vcs.attempts)
	assert.Empty(t, store.sessions)
}

func TestEngineRecoverDirtyTreeLeavesSessionUntouched(t *testing.T) {
	vcs := newFakeVCS()
	vcs.clean = false
	store := newFakeStore()
	require.NoError(t, store.Save(&core.Session{
		PRNumber: 33, FailedSHA: "abc123", Succeeded: 2, Total: 5,
		Remaining: []string{"def456", "ghi789"},
	}))
	engine := NewEngine(vcs, store, nil, nil)

	_, err := engine.Recover(context.Background(), ".", 33)

	assert.ErrorIs(t, err, ErrConflictUnresolved)
	assert.Empty(t, vcs.attempts)

	sess := store.sessions[33]
	require.NotNil(t, sess)
	assert.Equal(t, "abc123", sess.FailedSHA)
	assert.Equal(t, []string{"def456", "ghi789"}, sess.Remaining)
}

func TestEngineRecoverNoSession(t *testing.T) {
	engine := NewEngine(newFakeVCS(), newFakeStore(), nil, nil)

	_, err := engine.Recover(context.Background(), ".", 33)

	assert.ErrorIs(t, err, ErrNoRecoveryState)
}

func TestEngineRecoverWrongPR(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Save(&core.Session{
		PRNumber: 44, FailedSHA: "zzz111", Succeeded: 0, Total: 2,
		Remaining: []string{"zzz222"},
	}))
	engine := NewEngine(newFakeVCS(), store, nil, nil)

	_, err := engine.Recover(context.Background(), ".", 33)

	assert.ErrorIs(t, err, ErrSessionMismatch)
	// The unrelated session stays untouched.
	assert.Equal(t, "zzz111", store.sessions[44].FailedSHA)
}

func TestEngineRecoverConflictsAgainRewritesSession(t *testing.T) {
	vcs := newFakeVCS()
	vcs.conflicts["def456"] = true
	store := newFakeStore()
	require.NoError(t, store.Save(&core.Session{
		PRNumber: 33, FailedSHA: "abc123", Succeeded: 2, Total: 5,
		Remaining: []string{"def456", "ghi789"},
	}))
	engine := NewEngine(vcs, store, nil, nil)

	outcome, err := engine.Recover(context.Background(), ".", 33)

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeConflictStopped, outcome.Kind)
	assert.Equal(t, "def456", outcome.FailedRef.SHA)

	sess := store.sessions[33]
	require.NotNil(t, sess)
	assert.Equal(t, "def456", sess.FailedSHA)
	assert.Equal(t, 2, sess.Succeeded)
	// The externally settled abc123 is accounted as resolved, keeping the
	// rewritten session consistent.
	assert.Equal(t, 1, sess.Resolved)
	assert.Equal(t, 5, sess.Total)
	assert.Equal(t, []string{"ghi789"}, sess.Remaining)
	assert.NoError(t, sess.Validate())
}

func TestEngineSecondConflictSurvivesRealStore(t *testing.T) {
	store := state.NewStore(t.TempDir(), nil)
	require.NoError(t, store.Save(&core.Session{
		PRNumber: 33, FailedSHA: "abc123", Succeeded: 2, Total: 5,
		Remaining: []string{"def456", "ghi789"},
	}))

	vcs := newFakeVCS()
	vcs.conflicts["def456"] = true
	engine := NewEngine(vcs, store, nil, nil)

	outcome, err := engine.Recover(context.Background(), ".", 33)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeConflictStopped, outcome.Kind)
	assert.Equal(t, "def456", outcome.FailedRef.SHA)
	assert.Equal(t, StateConflictPaused, engine.State())

	// The rewritten session must persist and no longer list the commit
	// that was already settled externally.
	sess, err := store.Load(33)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "def456", sess.FailedSHA)
	assert.Equal(t, 2, sess.Succeeded)
	assert.Equal(t, 1, sess.Resolved)
	assert.Equal(t, []string{"ghi789"}, sess.Remaining)

	// Settle the second conflict and finish: only ghi789 is attempted.
	vcs.conflicts = map[string]bool{}
	vcs.attempts = nil
	outcome, err = engine.Recover(context.Background(), ".", 33)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeCompleted, outcome.Kind)
	assert.Equal(t, 3, outcome.Succeeded)
	assert.Equal(t, []string{"ghi789"}, vcs.attempts)

	sess, err = store.Load(33)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestEngineProgressEvents(t *testing.T) {
	var events []core.Progress
	engine := NewEngine(newFakeVCS(), newFakeStore(), func(p core.Progress) {
		events = append(events, p)
	}, nil)

	_, err := engine.Run(context.Background(), ".", 33, makeRefs("c1", "c2", "c3"))
	require.NoError(t, err)

	require.Len(t, events, 3)
	for i, event := range events {
		assert.Equal(t, i+1, event.Index)
		assert.Equal(t, 3, event.Total)
	}
}

func TestEngineRecoverProgressIndexesContinueNumbering(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.Save(&core.Session{
		PRNumber: 33, FailedSHA: "abc123", Succeeded: 2, Total: 5,
		Remaining: []string{"def456", "ghi789"},
	}))

	var events []core.Progress
	engine := NewEngine(newFakeVCS(), store, func(p core.Progress) {
		events = append(events, p)
	}, nil)

	_, err := engine.Recover(context.Background(), ".", 33)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, 4, events[0].Index)
	assert.Equal(t, 5, events[1].Index)
	assert.Equal(t, 5, events[0].Total)
}

func TestEngineDryRunAppliesNothing(t *testing.T) {
	vcs := newFakeVCS()
	vcs.conflicts["c2"] = true
	store := newFakeStore()
	engine := NewEngine(vcs, store, nil, nil)
	engine.DryRun = true

	outcome, err := engine.Run(context.Background(), ".", 33, makeRefs("c1", "c2", "c3"))

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeCompleted, outcome.Kind)
	assert.Empty(t, vcs.attempts)
	assert.Empty(t, store.sessions)
}

func TestEngineInterruptMidCherryPickAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The interrupt lands while git is running: the subprocess dies with a
	// generic exec error, not a conflict and not ctx.Err.
	vcs := newFakeVCS()
	vcs.killedOn["c2"] = true
	vcs.interrupt = cancel

	store := newFakeStore()
	engine := NewEngine(vcs, store, nil, nil)

	outcome, err := engine.Run(ctx, ".", 33, makeRefs("c1", "c2", "c3"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.OutcomeAborted, outcome.Kind)
	assert.Equal(t, 1, outcome.Succeeded)
	assert.Equal(t, StateAborted, engine.State())
	assert.Empty(t, store.sessions)
}

func TestEngineInterruptAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vcs := newFakeVCS()
	engine := NewEngine(vcs, newFakeStore(), nil, nil)

	outcome, err := engine.Run(ctx, ".", 33, makeRefs("c1", "c2"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, core.OutcomeAborted, outcome.Kind)
	assert.Equal(t, StateAborted, engine.State())
	assert.Empty(t, vcs.attempts)
}
