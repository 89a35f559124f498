package core

import "fmt"

// Session represents one interrupted replay attempt. It is created when a
// cherry-pick conflicts, persisted by the recovery store, and either advanced
// or discarded by the next recover invocation.
//
// Succeeded counts commits the engine itself applied; Resolved counts earlier
// conflicted commits the user settled externally before a resume. While a
// session is paused on a failed commit, the failed commit itself is neither
// succeeded, resolved, nor remaining, so:
//
//	Succeeded + Resolved + 1 + len(Remaining) == Total
type Session struct {
	PRNumber  int
	FailedSHA string
	Succeeded int
	Resolved  int
	Total     int
	Remaining []string
}

// Validate checks the session's accounting invariant. A session that fails
// validation is treated as corrupt and must not be resumed.
func (s *Session) Validate() error {
	if s.PRNumber <= 0 {
		return fmt.Errorf("invalid PR number: %d", s.PRNumber)
	}
	if s.FailedSHA == "" {
		return fmt.Errorf("session for PR #%d has no failed commit", s.PRNumber)
	}
	if s.Succeeded < 0 || s.Resolved < 0 || s.Total <= 0 {
		return fmt.Errorf("invalid counts: succeeded=%d resolved=%d total=%d", s.Succeeded, s.Resolved, s.Total)
	}
	if got := s.Succeeded + s.Resolved + 1 + len(s.Remaining); got != s.Total {
		return fmt.Errorf("inconsistent session for PR #%d: succeeded=%d resolved=%d remaining=%d total=%d",
			s.PRNumber, s.Succeeded, s.Resolved, len(s.Remaining), s.Total)
	}
	return nil
}
