package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Clean strips all markup from s and trims surrounding whitespace.
// Every user-supplied string goes through here before validation or storage.
func Clean(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
