package retrieval

import "strings"

// SplitTopics turns a keyword blob into trimmed, non-empty topics.
// Commas and line breaks separate topics; leading list markers are dropped.
func SplitTopics(blob string) []string {
	fields := strings.FieldsFunc(blob, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	topics := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.TrimLeft(f, "-*•")
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		topics = append(topics, f)
	}
	return topics
}
