package bot

import (
	"regexp"
	"strings"
)

var commandRe = regexp.MustCompile(`^(-->|harpoon)(.+)$`)

// MatchCommand reports whether a chat line asks the bot for a lookup.
// "harpoon 4f2c9a1b" and "--> shop" both match; arg keeps the text after
// the trigger verbatim, leading space included. A bare trigger does not
// match.
func MatchCommand(body string) (trigger, arg string, ok bool) {
	m := commandRe.FindStringSubmatch(body)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// commandTarget extracts the lookup target from a chat line.
func commandTarget(body string) (string, bool) {
	_, arg, ok := MatchCommand(body)
	if !ok {
		return "", false
	}
	target := strings.TrimSpace(arg)
	return target, target != ""
}
