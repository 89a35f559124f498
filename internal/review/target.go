package review

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Target locates a pull request on the review host.
type Target struct {
	Owner  string
	Repo   string
	Number int
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s#%d", t.Owner, t.Repo, t.Number)
}

var (
	prURLRegex   = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)
	prShortRegex = regexp.MustCompile(`^([^/#]+)/([^/#]+)#(\d+)$`)
)

// ParseTarget parses a pull request reference and extracts the owner, repo,
// and PR number. Supported formats:
//
//	https://github.com/{owner}/{repo}/pull/{number}
//	{owner}/{repo}#{number}
func ParseTarget(arg string) (Target, error) {
	arg = strings.TrimSpace(arg)

	if m := prShortRegex.FindStringSubmatch(arg); len(m) == 4 {
		return targetFromMatch(m)
	}

	url := strings.TrimSuffix(arg, "/")
	if m := prURLRegex.FindStringSubmatch(url); len(m) == 4 {
		return targetFromMatch(m)
	}

	return Target{}, fmt.Errorf("invalid pull request reference: %q (expected owner/repo#number or a GitHub PR URL)", arg)
}

func targetFromMatch(m []string) (Target, error) {
	number, err := strconv.Atoi(m[3])
	if err != nil || number <= 0 {
		return Target{}, fmt.Errorf("invalid PR number '%s'", m[3])
	}
	return Target{Owner: m[1], Repo: m[2], Number: number}, nil
}
