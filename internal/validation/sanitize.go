package validation

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Free-text fields accept rich text from the UI editor; everything else that
// could carry markup is stripped down to user-generated-content rules before
// it reaches the store.
var htmlPolicy = bluemonday.UGCPolicy()

// trim trims the pointed-to string in place and returns whether the trimmed
// value is non-empty.
func trim(p *string) bool {
	if p == nil {
		return false
	}
	*p = strings.TrimSpace(*p)
	return *p != ""
}

// sanitize trims and HTML-sanitizes the pointed-to string in place.
func sanitize(p *string) {
	if p == nil {
		return
	}
	*p = htmlPolicy.Sanitize(strings.TrimSpace(*p))
}

// isBlank reports whether the pointer is nil or points at a
// whitespace-only string.
func isBlank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}
