package twitter

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrNotStatusURL = errors.New("not a tweet status url")
	ErrMalformedURL = errors.New("malformed tweet url")
)

// reStatusURL matches status URLs on the supported domains. Profile,
// search and home URLs do not match.
var reStatusURL = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter\.com|x\.com)/([A-Za-z0-9_]{1,15})/status(?:es)?/(\d+)`)

// ParseStatusURL extracts the author handle and tweet id from a status
// URL.
func ParseStatusURL(raw string) (username string, tweetID string, err error) {
	if _, err := url.ParseRequestURI(raw); err != nil {
		return "", "", ErrMalformedURL
	}

	m := reStatusURL.FindStringSubmatch(raw)
	if m == nil {
		return "", "", ErrNotStatusURL
	}

	return m[1], m[2], nil
}

// UsernameFromAuthorURL recovers the handle from an embed author_url.
// Display names are neither unique nor stable, the URL is.
func UsernameFromAuthorURL(authorURL string) string {
	u, err := url.Parse(authorURL)
	if err != nil {
		return ""
	}

	return strings.Trim(u.Path, "/")
}

// SameUsername compares handles the way the platform does.
func SameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, "@"), strings.TrimPrefix(b, "@"))
}

// ContainsKeyword reports whether the text mentions at least one of the
// required tokens, case-insensitively.
func ContainsKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}

	return false
}
