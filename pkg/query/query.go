package query

import (
	"strings"

	"github.com/taibuivan/libria/pkg/slice"
)

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings. Empty entries are dropped.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	parts := slice.Map(strings.Split(val, ","), strings.TrimSpace)
	return slice.Filter(parts, func(s string) bool { return s != "" })
}
