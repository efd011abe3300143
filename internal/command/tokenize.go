// Package command tokenizes raw DM/public-channel text into a verb
// plus arguments, and dispatches the verb to a role-gated handler
// (§4.5, G). It recognizes both the compact single-letter UI codes
// and the legacy verbose verbs kept for backward compatibility.
package command

import "strings"

// Tokenize splits line on whitespace, upper-cases the first token as
// the verb, and preserves the rest as arguments exactly as typed
// (object/room/mail names are case-sensitive in places; only the verb
// itself is normalized).
func Tokenize(line string) (verb string, args []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToUpper(fields[0]), fields[1:]
}
