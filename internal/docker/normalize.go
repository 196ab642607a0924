package docker

import (
	"sort"
	"strconv"

	"github.com/docker/go-connections/nat"
)

// FromListing builds a record from the container list API shape. Ports
// without a public binding are exposed-only and are dropped.
func FromListing(id, imageRef string, ports []ListedPort) ContainerRecord {
	bindings := make([]PortBinding, 0, len(ports))
	for _, p := range ports {
		if p.PublicPort == 0 {
			continue
		}
		bindings = append(bindings, PortBinding{
			PrivatePort: p.PrivatePort,
			PublicPort:  strconv.FormatUint(uint64(p.PublicPort), 10),
			HostIP:      p.IP,
			Protocol:    p.Type,
		})
	}
	return newRecord(id, imageRef, bindings)
}

// FromInspect builds a record from the container inspect API shape, where
// ports are keyed by "<port>/<proto>" and map to zero or more host bindings.
// Keys with no bindings are exposed but not published and are skipped; only
// the first binding of each key is kept.
func FromInspect(id, imageRef string, ports nat.PortMap) ContainerRecord {
	bindings := make([]PortBinding, 0, len(ports))
	for key, hostBindings := range ports {
		if len(hostBindings) == 0 {
			continue
		}
		private := key.Int()
		if private < 0 || private > 65535 {
			continue
		}
		first := hostBindings[0]
		bindings = append(bindings, PortBinding{
			PrivatePort: uint16(private),
			PublicPort:  first.HostPort,
			HostIP:      first.HostIP,
			Protocol:    key.Proto(),
		})
	}
	return newRecord(id, imageRef, bindings)
}

// newRecord is the single constructor both shapes converge on.
func newRecord(id, imageRef string, ports []PortBinding) ContainerRecord {
	sortPorts(ports)
	return ContainerRecord{
		ID:       id,
		ImageRef: imageRef,
		Ports:    ports,
	}
}

// sortPorts orders bindings so records render identically across calls.
func sortPorts(ports []PortBinding) {
	sort.SliceStable(ports, func(i, j int) bool {
		a, b := ports[i], ports[j]
		if a.PrivatePort != b.PrivatePort {
			return a.PrivatePort < b.PrivatePort
		}
		if a.Protocol != b.Protocol {
			return a.Protocol < b.Protocol
		}
		if a.HostIP != b.HostIP {
			return a.HostIP < b.HostIP
		}
		return a.PublicPort < b.PublicPort
	})
}
