// Package state persists interrupted replay sessions between invocations.
//
// One file per pull request lives under the state directory, so interrupted
// replays of different PRs can coexist. The record format is a flat
// KEY=value file with a trailing multi-line REMAINING_COMMITS block, one
// commit hash per line:
//
//	PR_NUMBER=33
//	FAILED_AT_COMMIT=abc123
//	SUCCESS_COUNT=2
//	RESOLVED_COUNT=0
//	TOTAL_COUNT=5
//	REMAINING_COMMITS
//	def456
//	ghi789
//
// RESOLVED_COUNT tracks earlier conflicts settled externally between resumes;
// records without it (the original format) decode with a count of zero.
package state

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sevigo/pr-replay/internal/core"
)

const (
	keyPRNumber   = "PR_NUMBER"
	keyFailedAt   = "FAILED_AT_COMMIT"
	keySuccess    = "SUCCESS_COUNT"
	keyResolved   = "RESOLVED_COUNT"
	keyTotal      = "TOTAL_COUNT"
	keyRemaining  = "REMAINING_COMMITS"
	filePrefix    = "session-"
	fileExtension = ".state"
)

// Store is a durable record of interrupted replay sessions, keyed by PR
// number. A partially written or unparseable record is reported as absent,
// never half-applied.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore returns a store rooted at dir. The directory is created lazily on
// the first Save.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// DefaultDir resolves the session directory: $XDG_STATE_HOME/pr-replay, or
// ~/.local/state/pr-replay when XDG_STATE_HOME is unset.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "pr-replay"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "pr-replay"), nil
}

// Save persists a session, overwriting any previous record for the same PR.
// The record is written to a temp file and renamed into place so a crash
// mid-write leaves either the old record or none, never a torn one.
func (s *Store) Save(sess *core.Session) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid session: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", s.dir, err)
	}

	tmp, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(Encode(sess)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}

	path := s.path(sess.PRNumber)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move session into place: %w", err)
	}
	s.logger.Debug("session persisted", "pr", sess.PRNumber, "path", path)
	return nil
}

// Load returns the persisted session for a PR, or nil when none exists.
// A corrupt record is logged and reported as absent.
func (s *Store) Load(prNumber int) (*core.Session, error) {
	data, err := os.ReadFile(s.path(prNumber))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session for PR #%d: %w", prNumber, err)
	}

	sess, err := Decode(data)
	if err != nil {
		s.logger.Warn("discarding unparseable session record", "pr", prNumber, "error", err)
		return nil, nil
	}
	return sess, nil
}

// List returns every parseable persisted session, in file-name order.
func (s *Store) List() ([]*core.Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state directory %s: %w", s.dir, err)
	}

	var sessions []*core.Session
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExtension) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		sess, err := Decode(data)
		if err != nil {
			s.logger.Warn("skipping unparseable session record", "file", name, "error", err)
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Clear removes the persisted session for a PR. Clearing an absent session
// is a no-op.
func (s *Store) Clear(prNumber int) error {
	err := os.Remove(s.path(prNumber))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session for PR #%d: %w", prNumber, err)
	}
	return nil
}

func (s *Store) path(prNumber int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d%s", filePrefix, prNumber, fileExtension))
}

// Encode serializes a session into the flat key-value record format.
func Encode(sess *core.Session) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s=%d\n", keyPRNumber, sess.PRNumber)
	fmt.Fprintf(&buf, "%s=%s\n", keyFailedAt, sess.FailedSHA)
	fmt.Fprintf(&buf, "%s=%d\n", keySuccess, sess.Succeeded)
	fmt.Fprintf(&buf, "%s=%d\n", keyResolved, sess.Resolved)
	fmt.Fprintf(&buf, "%s=%d\n", keyTotal, sess.Total)
	fmt.Fprintf(&buf, "%s\n", keyRemaining)
	for _, sha := range sess.Remaining {
		fmt.Fprintf(&buf, "%s\n", sha)
	}
	return buf.Bytes()
}

// Decode parses a session record. Decoding validates the accounting
// invariant so a tampered or truncated record cannot be resumed.
func Decode(data []byte) (*core.Session, error) {
	sess := &core.Session{}
	inRemaining := false

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if inRemaining {
			sess.Remaining = append(sess.Remaining, line)
			continue
		}
		if line == keyRemaining {
			inRemaining = true
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("malformed record line: %q", line)
		}
		switch key {
		case keyPRNumber:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", keyPRNumber, err)
			}
			sess.PRNumber = n
		case keyFailedAt:
			sess.FailedSHA = value
		case keySuccess:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", keySuccess, err)
			}
			sess.Succeeded = n
		case keyResolved:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", keyResolved, err)
			}
			sess.Resolved = n
		case keyTotal:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", keyTotal, err)
			}
			sess.Total = n
		default:
			return nil, fmt.Errorf("unknown record key: %q", key)
		}
	}

	if err := sess.Validate(); err != nil {
		return nil, err
	}
	return sess, nil
}
