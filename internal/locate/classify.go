// Package locate finds containers across a fleet of Docker hosts.
package locate

// Kind is how a lookup target is interpreted.
type Kind int

const (
	// KindImagePattern targets every container running a matching image.
	KindImagePattern Kind = iota
	// KindContainerID targets a single container by full or short ID.
	KindContainerID
)

func (k Kind) String() string {
	if k == KindContainerID {
		return "container"
	}
	return "image"
}

// Classify decides whether s is a container ID or an image pattern. A
// string of lowercase hex whose share of digits exceeds 0.3 is treated as a
// container ID; anything else, including the empty string, is an image
// pattern.
func Classify(s string) Kind {
	var digits, hexLetters int
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c >= 'a' && c <= 'f':
			hexLetters++
		default:
			return KindImagePattern
		}
	}
	total := digits + hexLetters
	if total == 0 {
		return KindImagePattern
	}
	if float64(digits)/float64(total) > 0.3 {
		return KindContainerID
	}
	return KindImagePattern
}
