package warp

import "strings"

// SanitizeBranch maps a branch name to a filesystem-safe path segment.
// Characters outside [A-Za-z0-9._/-] become '-', runs of '-' collapse,
// and leading/trailing separators are stripped so the result is never
// absolute and never ends in a separator. Idempotent.
func SanitizeBranch(branch string) string {
	var b strings.Builder
	b.Grow(len(branch))

	lastDash := false
	for _, r := range branch {
		ok := r == '.' || r == '_' || r == '/' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if ok {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	s := b.String()
	s = strings.Trim(s, "-/")
	// A branch like "a//b" would otherwise produce an empty path segment.
	for strings.Contains(s, "//") {
		s = strings.ReplaceAll(s, "//", "/")
	}
	return s
}
