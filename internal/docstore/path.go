package docstore

import "strings"

// Quote makes key usable as one segment of an update path. Keys holding a
// dot, a backtick or a backslash are wrapped in backticks, as Firestore
// field paths do.
func Quote(key string) string {
	if !strings.ContainsAny(key, ".`\\") {
		return key
	}
	r := strings.NewReplacer(`\`, `\\`, "`", "\\`")
	return "`" + r.Replace(key) + "`"
}

// SplitPath breaks a dotted path into its segments, honoring the segments
// quoted by Quote.
func SplitPath(path string) []string {
	var (
		parts  []string
		cur    strings.Builder
		quoted bool
		escape bool
	)
	for _, c := range path {
		switch {
		case escape:
			cur.WriteRune(c)
			escape = false
		case quoted && c == '\\':
			escape = true
		case c == '`':
			quoted = !quoted
		case c == '.' && !quoted:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	return append(parts, cur.String())
}
