package locate

import "regexp"

// NewImageMatcher returns a predicate reporting whether a repo tag names the
// image. "spam" matches "spam", "spam:42" and "hub.example.com/spam:42" but
// not "spamsuffix" or "prefixspam".
func NewImageMatcher(name string) func(tag string) bool {
	re := regexp.MustCompile(`(^|/)` + regexp.QuoteMeta(name) + `(:|$)`)
	return re.MatchString
}
