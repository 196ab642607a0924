package inventory

import (
	"fmt"
	"strconv"
	"strings"
)

// expandHostPattern expands Ansible host ranges such as "web[01:03].lan"
// or "db-[a:c]". Patterns without a range are returned as is. A range may
// carry a stride: "node[0:10:5]".
func expandHostPattern(pattern string) ([]string, error) {
	open := strings.IndexByte(pattern, '[')
	if open < 0 {
		return []string{pattern}, nil
	}
	closeIdx := strings.IndexByte(pattern[open:], ']')
	if closeIdx < 0 {
		return nil, fmt.Errorf("unterminated range in %q", pattern)
	}
	closeIdx += open

	head, body, tail := pattern[:open], pattern[open+1:closeIdx], pattern[closeIdx+1:]
	parts := strings.Split(body, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid range %q in %q", body, pattern)
	}
	stride := 1
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid stride in %q", pattern)
		}
		stride = n
	}

	items, err := rangeItems(parts[0], parts[1], stride)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pattern, err)
	}

	// The tail may hold further ranges.
	tails, err := expandHostPattern(tail)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, len(items)*len(tails))
	for _, item := range items {
		for _, t := range tails {
			result = append(result, head+item+t)
		}
	}
	return result, nil
}

func rangeItems(begin, end string, stride int) ([]string, error) {
	if isAlpha(begin) && isAlpha(end) && len(begin) == 1 && len(end) == 1 {
		if begin[0] > end[0] {
			return nil, fmt.Errorf("range start %q after end %q", begin, end)
		}
		var items []string
		for c := begin[0]; c <= end[0]; c += byte(stride) {
			items = append(items, string(c))
			if int(c)+stride > 255 {
				break
			}
		}
		return items, nil
	}

	if begin == "" {
		begin = "0"
	}
	lo, err := strconv.Atoi(begin)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q", begin)
	}
	hi, err := strconv.Atoi(end)
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q", end)
	}
	if lo > hi {
		return nil, fmt.Errorf("range start %d after end %d", lo, hi)
	}
	// Leading zeros fix the width, as in "web[01:10]".
	width := 0
	if len(begin) > 1 && begin[0] == '0' {
		width = len(begin)
	}
	items := make([]string, 0, (hi-lo)/stride+1)
	for i := lo; i <= hi; i += stride {
		items = append(items, fmt.Sprintf("%0*d", width, i))
	}
	return items, nil
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return s != ""
}
