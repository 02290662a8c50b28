package codehost

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"releaseguard.app/guard/internal/domain"
)

// ChangeKind identifies the code host flavour of a change URL.
type ChangeKind string

const (
	ChangeKindGitHubPullRequest  ChangeKind = "github_pull_request"
	ChangeKindGitLabMergeRequest ChangeKind = "gitlab_merge_request"
)

// ChangeRef is a parsed change URL.
type ChangeRef struct {
	Kind ChangeKind
	URL  string
	Host string
	// Owner and Repo are set for GitHub pull requests.
	Owner string
	Repo  string
	// ProjectPath is the full namespace path of a GitLab project.
	ProjectPath string
	Number      int64
}

var (
	gitHubPullURL   = regexp.MustCompile(`^https://([^/\s]+)/([^/\s]+)/([^/\s]+)/pull/(\d+)/?$`)
	gitLabMergeURL  = regexp.MustCompile(`^https://([^/\s]+)/((?:[^/\s]+/)+[^/\s]+)/-/merge_requests/(\d+)/?$`)
	trailingQueries = regexp.MustCompile(`[?#].*$`)
)

// ParseChangeURL recognizes https://<host>/<owner>/<repo>/pull/<number> and
// https://<host>/<namespace>/<project>/-/merge_requests/<iid>.
func ParseChangeURL(raw string) (ChangeRef, error) {
	u := trailingQueries.ReplaceAllString(strings.TrimSpace(raw), "")

	if m := gitHubPullURL.FindStringSubmatch(u); m != nil {
		n, err := parseNumber(m[4])
		if err != nil {
			return ChangeRef{}, fmt.Errorf("%w: pull request number in %q", domain.ErrInvalidRequest, raw)
		}
		return ChangeRef{
			Kind:   ChangeKindGitHubPullRequest,
			URL:    u,
			Host:   m[1],
			Owner:  m[2],
			Repo:   m[3],
			Number: n,
		}, nil
	}

	if m := gitLabMergeURL.FindStringSubmatch(u); m != nil {
		n, err := parseNumber(m[3])
		if err != nil {
			return ChangeRef{}, fmt.Errorf("%w: merge request iid in %q", domain.ErrInvalidRequest, raw)
		}
		return ChangeRef{
			Kind:        ChangeKindGitLabMergeRequest,
			URL:         u,
			Host:        m[1],
			ProjectPath: m[2],
			Number:      n,
		}, nil
	}

	return ChangeRef{}, fmt.Errorf("%w: unrecognized change url %q", domain.ErrInvalidRequest, raw)
}

func parseNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}
