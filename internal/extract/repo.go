package extract

import (
	"net/url"
	"strings"
)

const sshPrefix = "git@github.com:"

// NormalizeURL rewrites SSH references to their web form and strips a
// trailing slash. SSH references also lose their ".git" suffix.
//
//	git@github.com:acme/app.git → https://github.com/acme/app
//	https://github.com/acme/app/ → https://github.com/acme/app
func NormalizeURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, sshPrefix) {
		u := "https://github.com/" + strings.TrimPrefix(ref, sshPrefix)
		return strings.TrimSuffix(u, ".git")
	}
	return strings.TrimRight(ref, "/")
}

// RepoName returns the last path segment of a normalized reference with any
// ".git" suffix removed.
func RepoName(normalized string) string {
	trimmed := strings.TrimRight(normalized, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimSuffix(trimmed, ".git")
}

// hasRepoShape checks scheme, host, and that the path names owner and repo.
func hasRepoShape(normalized string, hosts []string) bool {
	u, err := url.Parse(normalized)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !hostAllowed(u.Host, hosts) {
		return false
	}
	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return len(parts) >= 2
}

func hostAllowed(host string, hosts []string) bool {
	host = strings.ToLower(host)
	for _, h := range hosts {
		if host == strings.ToLower(h) {
			return true
		}
	}
	return false
}
