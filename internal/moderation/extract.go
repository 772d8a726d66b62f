package moderation

import "regexp"

// The reddit comment page is scanned with independent probes, one per field.
// Each returns its value and whether it was found; a missing field never
// affects the other extractions.

var (
	postURLPattern = regexp.MustCompile(`reddit\.com/r/([^/]+)/comments/[^/]+`)

	thingIDPattern   = regexp.MustCompile(`name="thing_id" value="([^"]+)"`)
	submitterPattern = regexp.MustCompile(`<span>by&#32;<a href="http://www\.reddit\.com/user/([^"]+)`)
	modhashPattern   = regexp.MustCompile(`modhash: '([^']+)'`)
	votesPattern     = regexp.MustCompile(`(?i)<span class="upvotes">.*?([\d,]+)<.*?class='number'>([\d,]+)`)

	approvedByPattern = regexp.MustCompile(`title="approved by (\w+)"`)
	removedPattern    = regexp.MustCompile(`(?i)<b>\[ removed \]`)
	removedByPattern  = regexp.MustCompile(`(?i)<b>\[ removed by (\w+) \]`)
)

// IsPostURL reports whether raw looks like a reddit comment-page URL. The
// front-end uses it to decide whether a Referer is worth pre-filling.
func IsPostURL(raw string) bool {
	return postURLPattern.MatchString(raw)
}

// extractSubreddit pulls the subreddit name out of a comment-page URL.
func extractSubreddit(rawURL string) (string, bool) {
	m := postURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractPostID finds the thing_id form value identifying the post.
func extractPostID(body string) (string, bool) {
	m := thingIDPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractSubmitter finds the username of the post's author.
func extractSubmitter(body string) (string, bool) {
	m := submitterPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractModhash finds the moderator's modhash, required for the approve call.
func extractModhash(body string) (string, bool) {
	m := modhashPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractVotes finds the up/down vote counts as displayed on the page.
func extractVotes(body string) (up, down string, ok bool) {
	m := votesPattern.FindStringSubmatch(body)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// extractApprovedBy finds the name of the moderator who approved the post.
func extractApprovedBy(body string) (string, bool) {
	m := approvedByPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// wasRemoved reports whether the spam filter removed the post.
func wasRemoved(body string) bool {
	return removedPattern.MatchString(body)
}

// extractRemovedBy finds the moderator named in a manual-removal marker.
func extractRemovedBy(body string) (string, bool) {
	m := removedByPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}
