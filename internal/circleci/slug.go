package circleci

import (
	"net/url"
	"regexp"
	"strings"
)

const webBaseURL = "https://app.circleci.com/pipelines/"

var prPathSuffix = regexp.MustCompile(`/pull/.+$`)

// SlugFromRemote turns a GitHub remote URL into a CircleCI project slug.
//
//	git@github.com:my-org/my-repo.git   -> gh/my-org/my-repo
//	https://github.com/my-org/my-repo   -> gh/my-org/my-repo
func SlugFromRemote(remote string) string {
	s := strings.TrimSpace(remote)
	s = strings.TrimPrefix(s, "git@github.com:")
	s = strings.TrimPrefix(s, "ssh://git@github.com/")
	s = strings.TrimPrefix(s, "https://github.com/")
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	return "gh/" + s
}

// SlugFromPRURL derives the project slug from a pull request URL.
func SlugFromPRURL(prURL string) string {
	s := strings.TrimPrefix(prURL, "https://github.com/")
	s = prPathSuffix.ReplaceAllString(s, "")
	return "gh/" + s
}

// WebURL is the pipelines page of a project in the CircleCI web UI.
func WebURL(projectSlug string) string {
	if rest, ok := strings.CutPrefix(projectSlug, "gh/"); ok {
		projectSlug = "github/" + rest
	}
	return webBaseURL + projectSlug
}

// BranchURL is the pipelines page of a project filtered to one branch.
func BranchURL(projectSlug, branch string) string {
	return WebURL(projectSlug) + "?" + url.Values{"branch": {branch}}.Encode()
}
