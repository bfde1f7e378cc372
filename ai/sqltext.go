// sqltext.go post-processes assistant answers.
//
// The assistant is told to output only the query, but models still wrap
// it in markdown fences or add a sentence around it now and then. These
// helpers recover the statement for display without changing the raw
// answer the engine returns.
package ai

import (
	"strings"
	"unicode"
)

// ExtractSQL returns the SQL statement inside text: the body of the first
// ```sql (or bare ```) fence when present, otherwise text trimmed.
func ExtractSQL(text string) string {
	if body, ok := fenced(text, "```sql"); ok {
		return body
	}
	if body, ok := fenced(text, "```SQL"); ok {
		return body
	}
	if body, ok := fenced(text, "```"); ok {
		return body
	}
	return strings.TrimSpace(text)
}

func fenced(text, open string) (string, bool) {
	idx := strings.Index(text, open)
	if idx < 0 {
		return "", false
	}
	start := idx + len(open)
	end := strings.Index(text[start:], "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(text[start : start+end]), true
}

// IsReadOnly reports whether sql starts with a statement that only reads
// (SELECT, WITH, EXPLAIN, SHOW). Leading comments are skipped.
func IsReadOnly(sql string) bool {
	s := strings.TrimSpace(sql)
	for strings.HasPrefix(s, "--") {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 {
			return false
		}
		s = strings.TrimSpace(s[nl+1:])
	}
	word := strings.ToLower(s)
	if i := strings.IndexFunc(word, func(r rune) bool { return !unicode.IsLetter(r) }); i >= 0 {
		word = word[:i]
	}
	switch word {
	case "select", "with", "explain", "show":
		return true
	default:
		return false
	}
}
