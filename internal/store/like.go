package store

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere in a value, with
// wildcard characters in s taken literally. Escape character is backslash.
func containsPattern(s string) string {
	if s == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(s) + "%"
}

// fold is the case folding applied to both stored values and filters.
func fold(s string) string {
	return strings.ToLower(s)
}
