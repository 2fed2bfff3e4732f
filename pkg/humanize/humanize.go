// Package humanize formats values for user-facing error messages.
package humanize

import "strings"

// List joins items the way a person would write them out:
// "A", "A or B", "A, B, or C".
func List(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
}

// Quoted wraps every item in double quotes.
func Quoted(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = `"` + s + `"`
	}
	return out
}

// Article returns "an" when word starts with a vowel letter, otherwise "a".
// The choice is made on the first letter only.
func Article(word string) string {
	if word == "" {
		return "a"
	}
	switch strings.ToLower(word[:1]) {
	case "a", "e", "i", "o", "u":
		return "an"
	}
	return "a"
}

// WithArticle prefixes word with its indefinite article.
func WithArticle(word string) string {
	return Article(word) + " " + word
}

// TitleCase lowercases s and uppercases its first letter ("wOn" -> "Won").
func TitleCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
