package locate

import (
	"fmt"
	"strings"

	"github.com/cfilipov/harpoon/internal/docker"
)

const shortIDLen = 12

// Format renders one located container as a multi-line report.
func Format(host string, rec docker.ContainerRecord, repoTags []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found container %s on host %s\n", shortID(rec.ID), host)

	tags := "(none)"
	if len(repoTags) > 0 {
		tags = strings.Join(repoTags, ", ")
	}
	fmt.Fprintf(&b, "  tags: %s\n", tags)

	if len(rec.Ports) == 0 {
		b.WriteString("  ports: (none)")
		return b.String()
	}
	b.WriteString("  ports:")
	for _, p := range rec.Ports {
		fmt.Fprintf(&b, "\n    - %s:%s -> %d (%s)", p.HostIP, p.PublicPort, p.PrivatePort, p.Protocol)
	}
	return b.String()
}

// NotFound is the message shown when no host had a match.
func NotFound(target string, kind Kind, hosts []string) string {
	noun := "Image"
	if kind == KindContainerID {
		noun = "Container"
	}
	return fmt.Sprintf("%s %s not found (hosts tried: %s)", noun, target, strings.Join(hosts, ", "))
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
