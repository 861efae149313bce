package utils

import (
	"unicode"
	"unicode/utf8"
)

// ExportedName upper-cases the first letter of member so that script-style
// names reach exported Go members. Example: "write" -> "Write".
func ExportedName(member string) string {
	if member == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(member)
	if r == utf8.RuneError && size <= 1 {
		return member
	}
	upper := unicode.ToUpper(r)
	if upper == r {
		return member
	}
	return string(upper) + member[size:]
}

// MemberCandidates lists the Go member names tried for a script name, exact
// match first.
func MemberCandidates(member string) []string {
	if exported := ExportedName(member); exported != member {
		return []string{member, exported}
	}
	return []string{member}
}
