package insight

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`\W`)

// Fingerprint lowercases text and strips every non-word character.
func Fingerprint(text string) string {
	return nonWord.ReplaceAllString(strings.ToLower(text), "")
}

// Deduplicate returns the indexes of texts whose fingerprint was not seen earlier.
// Empty texts are always kept so every article still gets an insight.
func Deduplicate(texts []string) []int {
	seen := make(map[string]struct{}, len(texts))
	keep := make([]int, 0, len(texts))
	for i, t := range texts {
		fp := Fingerprint(t)
		if fp != "" {
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}
		}
		keep = append(keep, i)
	}
	return keep
}
