package trace

import (
	"regexp"
	"strings"
)

// FirePrefix is the literal that introduces a firing line in a trace.
const FirePrefix = "*** Fire: "

// fireRe matches a whole firing line. The match is anchored to one line, so
// a prefix split across lines never matches.
var fireRe = regexp.MustCompile(`(?m)^\*\*\* Fire: (.*)$`)

// Firing is one rule firing extracted from a trace.
type Firing struct {
	Line  int    // 1-based line number in the scanned text
	Rule  string // raw rule name, trimmed
	Label string // normalized label, see Normalize
}

// Scan returns the firings in text in document order. Lines that do not
// match the firing pattern, and firing lines with no rule name, are skipped.
func Scan(text string) []Firing {
	matches := fireRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	firings := make([]Firing, 0, len(matches))
	line, pos := 1, 0
	for _, m := range matches {
		line += strings.Count(text[pos:m[0]], "\n")
		pos = m[0]

		rule := strings.TrimSpace(text[m[2]:m[3]])
		if rule == "" {
			continue
		}
		firings = append(firings, Firing{
			Line:  line,
			Rule:  rule,
			Label: Normalize(rule),
		})
	}
	return firings
}
