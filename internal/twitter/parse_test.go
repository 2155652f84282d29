package twitter

import (
	"errors"
	"testing"
)

func TestParseStatusURL(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		username string
		tweetID  string
	}{
		{"x.com", "https://x.com/layeredge/status/1790000000000000001", "layeredge", "1790000000000000001"},
		{"twitter.com", "https://twitter.com/layeredge/status/1790000000000000001", "layeredge", "1790000000000000001"},
		{"www prefix", "https://www.x.com/alice_1/status/42", "alice_1", "42"},
		{"mobile prefix", "https://mobile.twitter.com/alice/status/42", "alice", "42"},
		{"legacy statuses path", "https://twitter.com/alice/statuses/42", "alice", "42"},
		{"query string", "https://x.com/alice/status/42?s=20&t=abc", "alice", "42"},
		{"http scheme", "http://x.com/alice/status/42", "alice", "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			username, tweetID, err := ParseStatusURL(tc.raw)
			if err != nil {
				t.Fatalf("ParseStatusURL(%q): %v", tc.raw, err)
			}
			if username != tc.username || tweetID != tc.tweetID {
				t.Fatalf("got (%q, %q), want (%q, %q)", username, tweetID, tc.username, tc.tweetID)
			}
		})
	}
}

func TestParseStatusURLRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"profile url", "https://x.com/layeredge", ErrNotStatusURL},
		{"search url", "https://x.com/search?q=layeredge", ErrNotStatusURL},
		{"wrong domain", "https://example.com/alice/status/42", ErrNotStatusURL},
		{"non-numeric id", "https://x.com/alice/status/abc", ErrNotStatusURL},
		{"not a url", "::::", ErrMalformedURL},
		{"empty", "", ErrMalformedURL},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseStatusURL(tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ParseStatusURL(%q) = %v, want %v", tc.raw, err, tc.want)
			}
		})
	}
}

func TestUsernameFromAuthorURL(t *testing.T) {
	if got := UsernameFromAuthorURL("https://twitter.com/layeredge"); got != "layeredge" {
		t.Fatalf("got %q", got)
	}
	if got := UsernameFromAuthorURL("https://twitter.com/layeredge/"); got != "layeredge" {
		t.Fatalf("trailing slash: got %q", got)
	}
	if got := UsernameFromAuthorURL("://bad"); got != "" {
		t.Fatalf("expected empty for invalid url, got %q", got)
	}
}

func TestSameUsername(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"LayerEdge", "layeredge", true},
		{"@layeredge", "layeredge", true},
		{"@LayerEdge", "@layeredge", true},
		{"layeredge", "layeredge_io", false},
		{"", "", true},
	}

	for _, tc := range cases {
		if got := SameUsername(tc.a, tc.b); got != tc.want {
			t.Fatalf("SameUsername(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestContainsKeyword(t *testing.T) {
	keywords := []string{"@layeredge", "$EDGEN", "layeredge"}

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"mention", "gm @LayerEdge community", true},
		{"ticker", "just bought some $edgen", true},
		{"plain name", "LAYEREDGE is building", true},
		{"no keyword", "just another tweet", false},
		{"empty text", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContainsKeyword(tc.text, keywords); got != tc.want {
				t.Fatalf("ContainsKeyword(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
