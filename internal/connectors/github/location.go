package github

import (
	"fmt"
	"net/url"
	"strings"
)

const githubHost = "github.com"

// ParseLocation extracts the owner and repository from a github.com location.
// Accepted forms:
//
//	https://github.com/owner/repo[.git][/tree/...]
//	github.com/owner/repo
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo.git
func ParseLocation(location string) (owner, repo string, err error) {
	rest, ok := trimHost(strings.TrimSpace(location))
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrNotGitHubLocation, location)
	}

	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s has no owner/repo", ErrNotGitHubLocation, location)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// IsGitHubLocation reports whether location names a github.com repository.
func IsGitHubLocation(location string) bool {
	_, _, err := ParseLocation(location)
	return err == nil
}

// trimHost returns the path after the github.com host.
func trimHost(location string) (string, bool) {
	if after, ok := strings.CutPrefix(location, "git@"+githubHost+":"); ok {
		return after, true
	}

	if !strings.Contains(location, "://") {
		location = "https://" + location
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != githubHost {
		return "", false
	}
	return u.Path, true
}
