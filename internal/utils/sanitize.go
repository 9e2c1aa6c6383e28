package utils

import (
	"regexp"
	"strings"
)

var (
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	unsafeCharPattern  = regexp.MustCompile(`[<>"'&]`)
)

// SanitizeTokenText strips script blocks, HTML tags and the characters
// < > " ' & from user-supplied token names and symbols, then trims
// surrounding whitespace. Sanitizing already-sanitized input is a no-op.
func SanitizeTokenText(s string) string {
	s = scriptBlockPattern.ReplaceAllString(s, "")
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = unsafeCharPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
