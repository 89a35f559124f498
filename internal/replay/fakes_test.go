package replay

import (
	"context"
	"fmt"

	"github.com/sevigo/pr-replay/internal/core"
	"github.com/sevigo/pr-replay/internal/gitutil"
)

// fakeVCS is a scriptable in-memory VersionControl for state machine tests.
type fakeVCS struct {
	repo      bool
	clean     bool
	branch    string
	branchErr error
	binErr    error
	statusErr error
	parents   map[string]int
	missing   map[string]bool // shas whose objects are not available locally
	ancestors map[string]bool
	conflicts map[string]bool
	killedOn  map[string]bool // shas whose cherry-pick dies to an interrupt
	interrupt func()          // invoked before a killed cherry-pick returns

	attempts []string // every cherry-pick attempt, in order
	applied  []string // successful cherry-picks, in order
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{
		repo:      true,
		clean:     true,
		branch:    "main",
		parents:   map[string]int{},
		missing:   map[string]bool{},
		ancestors: map[string]bool{},
		conflicts: map[string]bool{},
		killedOn:  map[string]bool{},
	}
}

func (f *fakeVCS) BinaryAvailable() error      { return f.binErr }
func (f *fakeVCS) IsRepository(string) bool    { return f.repo }
func (f *fakeVCS) CurrentBranch(string) (string, error) {
	if f.branchErr != nil {
		return "", f.branchErr
	}
	return f.branch, nil
}

func (f *fakeVCS) IsTreeClean(context.Context, string) (bool, error) {
	return f.clean, f.statusErr
}

func (f *fakeVCS) ParentCount(_, sha string) (int, error) {
	if f.missing[sha] {
		return 0, fmt.Errorf("object %s not found", sha)
	}
	if n, ok := f.parents[sha]; ok {
		return n, nil
	}
	return 1, nil
}

func (f *fakeVCS) IsAncestor(_, sha string) (bool, error) {
	return f.ancestors[sha], nil
}

func (f *fakeVCS) CherryPick(_ context.Context, _, sha string) error {
	f.attempts = append(f.attempts, sha)
	if f.killedOn[sha] {
		if f.interrupt != nil {
			f.interrupt()
		}
		return fmt.Errorf("git cherry-pick %s failed: signal: killed", sha)
	}
	if f.conflicts[sha] {
		return &gitutil.ConflictError{SHA: sha, Output: "CONFLICT (content): merge conflict"}
	}
	f.applied = append(f.applied, sha)
	return nil
}

func (f *fakeVCS) Describe(_, sha string) (string, error) {
	return fmt.Sprintf("%s test commit", sha), nil
}

// fakeStore is an in-memory RecoveryStore.
type fakeStore struct {
	sessions map[int]*core.Session
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[int]*core.Session{}}
}

func (f *fakeStore) Save(sess *core.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	// Mirror state.Store, which refuses sessions that fail validation.
	if err := sess.Validate(); err != nil {
		return err
	}
	cp := *sess
	cp.Remaining = append([]string(nil), sess.Remaining...)
	f.sessions[sess.PRNumber] = &cp
	return nil
}

func (f *fakeStore) Load(prNumber int) (*core.Session, error) {
	sess, ok := f.sessions[prNumber]
	if !ok {
		return nil, nil
	}
	cp := *sess
	cp.Remaining = append([]string(nil), sess.Remaining...)
	return &cp, nil
}

func (f *fakeStore) List() ([]*core.Session, error) {
	var out []*core.Session
	for _, sess := range f.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (f *fakeStore) Clear(prNumber int) error {
	delete(f.sessions, prNumber)
	return nil
}

func makeRefs(shas ...string) []core.CommitRef {
	refs := make([]core.CommitRef, len(shas))
	for i, sha := range shas {
		refs[i] = core.CommitRef{SHA: sha, Position: i, Summary: sha + " test commit", Parents: 1}
	}
	return refs
}
