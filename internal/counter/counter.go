// Package counter computes tweet lengths according to the platform's
// character counting rules: Unicode NFC normalization, a flat 23-character
// cost for every URL, and UTF-16 code-unit weighting for everything else.
package counter

import (
	"regexp"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxTweetLength is the maximum weighted character count the platform
	// accepts in a single tweet.
	MaxTweetLength = 280

	// URLLength is the fixed cost of a URL after t.co wrapping, regardless of
	// its actual length.
	URLLength = 23
)

// urlSentinel stands in for a matched URL during the code-unit walk.
const urlSentinel = '￼' // object replacement character

// urlPattern matches URL-shaped substrings: scheme-prefixed URLs, www hosts,
// and bare label(.label)+.tld(/path)? domains. It is a best-effort heuristic;
// the platform's published counting specification is the authority on exact
// boundary behavior.
var urlPattern = regexp.MustCompile(`(?i)\b(https?://\S+|www\.\S+|[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}(?:/\S*)?)`)

// Count returns the weighted character count of text. URLs cost URLLength
// each, characters outside the Basic Multilingual Plane (most emoji) cost 2,
// and everything else costs 1.
func Count(text string) int {
	if text == "" {
		return 0
	}

	// Normalization must precede the walk so composed and decomposed forms of
	// the same logical character produce identical counts.
	normalized := norm.NFC.String(text)

	// Left-to-right, non-overlapping, not recursive.
	replaced := urlPattern.ReplaceAllString(normalized, string(urlSentinel))

	count := 0
	for _, r := range replaced {
		switch {
		case r == urlSentinel:
			count += URLLength
		case utf16.RuneLen(r) == 2:
			count += 2
		default:
			count++
		}
	}
	return count
}

// Remaining returns how many weighted characters are left before text reaches
// MaxTweetLength. Negative when the text is over the limit.
func Remaining(text string) int {
	return MaxTweetLength - Count(text)
}

// Submittable reports whether text may be submitted: non-empty and within the
// length limit.
func Submittable(text string) bool {
	c := Count(text)
	return c > 0 && c <= MaxTweetLength
}
