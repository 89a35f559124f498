package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/pr-replay/internal/core"
	"github.com/sevigo/pr-replay/internal/state"
)

func TestStoreForHonorsRepoStateDirOverride(t *testing.T) {
	defaultDir := t.TempDir()
	overrideDir := t.TempDir()

	svc := &services{
		logger: slog.Default(),
		store:  state.NewStore(defaultDir, nil),
	}

	override := svc.storeFor(&core.RepoConfig{StateDir: overrideDir})
	require.NoError(t, override.Save(&core.Session{
		PRNumber: 33, FailedSHA: "abc123", Succeeded: 2, Total: 5,
		Remaining: []string{"def456", "ghi789"},
	}))

	// The session lives in the overridden directory, not the default one.
	sessions, err := override.List()
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	sessions, err = svc.store.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// Without an override (or with none configured) the default store is used.
	assert.Same(t, svc.store, svc.storeFor(core.DefaultRepoConfig()))
	assert.Same(t, svc.store, svc.storeFor(nil))
}
