package gate

import "regexp"

// blockedPatterns is the ordered malicious-signature denylist applied to the
// full path+query of every request. First match wins. This is defense in
// depth over string input only; handlers still validate their own inputs and
// the stores never build queries from request text.
var blockedPatterns = []*regexp.Regexp{
	// Path traversal, raw and percent-encoded.
	regexp.MustCompile(`\.\.[/\\]`),
	regexp.MustCompile(`(?i)%2e%2e[/\\]`),
	regexp.MustCompile(`(?i)\.\.%2f`),
	// Null bytes.
	regexp.MustCompile(`\x00`),
	regexp.MustCompile(`(?i)%00`),
	// Script and protocol injection.
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)vbscript\s*:`),
	regexp.MustCompile(`(?i)data\s*:\s*text/html`),
	// Event-handler attribute injection.
	regexp.MustCompile(`(?i)\bon(load|error|click|mouseover|focus|submit)\s*=`),
	// SQL keyword sequences.
	regexp.MustCompile(`(?i)\bunion\s+select\b`),
	regexp.MustCompile(`(?i)\bselect\s+[\w*,\s]+\s+from\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\b`),
	regexp.MustCompile(`(?i)\bdrop\s+table\b`),
	regexp.MustCompile(`(?i)\bdelete\s+from\b`),
	regexp.MustCompile(`(?i)('|%27)\s*(or|and)\s+\d+\s*=\s*\d+`),
}

// matchesBlockedPattern reports whether target trips any denylist entry.
func matchesBlockedPattern(target string) bool {
	for _, re := range blockedPatterns {
		if re.MatchString(target) {
			return true
		}
	}
	return false
}
