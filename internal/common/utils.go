package common

import "strings"

// Slug normalizes a display string into a stable identifier fragment.
func Slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}
