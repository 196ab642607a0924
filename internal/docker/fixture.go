package docker

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"gopkg.in/yaml.v3"
)

// --- YAML unmarshaling types (exported fields required by yaml.v3) ---

// Fleet describes the containers and images of several hosts. It backs the
// fake daemon and the in-memory mock client.
//
//	hosts:
//	  web-1:
//	    images:
//	      - id: sha256:aaa...
//	        repo_tags: ["hub.example.com/shop:1.2"]
//	    containers:
//	      - id: 4f2c...
//	        image: hub.example.com/shop:1.2
//	        ports: ["0.0.0.0:8080:80/tcp", "443/tcp"]
type Fleet struct {
	Hosts map[string]*Fixture `yaml:"hosts"`
}

// Fixture is the state of a single fake host.
type Fixture struct {
	Images     []FixtureImage     `yaml:"images"`
	Containers []FixtureContainer `yaml:"containers"`
	// Delay is added before every response, to simulate slow hosts.
	Delay time.Duration `yaml:"delay"`
}

type FixtureImage struct {
	ID       string   `yaml:"id"`
	RepoTags []string `yaml:"repo_tags"`
}

type FixtureContainer struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Image string `yaml:"image"` // image ID or one of its repo tags
	// State defaults to "running". Only running containers are listed.
	State string `yaml:"state"`
	// Ports use compose syntax: "80/tcp" (exposed only), "8080:80",
	// "127.0.0.1:8080:80/udp", "[::1]:8080:80", "8000-8001:80-81".
	Ports []string `yaml:"ports"`
}

// LoadFleet reads a fleet description from a YAML file.
func LoadFleet(path string) (*Fleet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fleet: %w", err)
	}
	return ParseFleet(data)
}

// ParseFleet parses a fleet description and validates every port spec.
func ParseFleet(data []byte) (*Fleet, error) {
	var f Fleet
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fleet: %w", err)
	}
	if f.Hosts == nil {
		f.Hosts = make(map[string]*Fixture)
	}
	for host, fx := range f.Hosts {
		if fx == nil {
			f.Hosts[host] = &Fixture{}
			continue
		}
		for _, c := range fx.Containers {
			if c.ID == "" {
				return nil, fmt.Errorf("host %s: container without id", host)
			}
			if _, err := parsePortSpecs(c.Ports); err != nil {
				return nil, fmt.Errorf("host %s: container %s: %w", host, c.ID, err)
			}
		}
	}
	return &f, nil
}

// HostNames returns the fleet's hosts sorted by name.
func (f *Fleet) HostNames() []string {
	names := make([]string, 0, len(f.Hosts))
	for name := range f.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parsePortSpecs parses compose-style port specs into inspect shape.
// Published ports without a host IP bind 0.0.0.0, and a host port range
// binds its first port, as the daemon would allocate it.
func parsePortSpecs(specs []string) (nat.PortMap, error) {
	_, bindings, err := nat.ParsePortSpecs(specs)
	if err != nil {
		return nil, err
	}
	m := make(nat.PortMap, len(bindings))
	for port, list := range bindings {
		published := []nat.PortBinding{}
		for _, b := range list {
			if b.HostPort == "" {
				continue
			}
			start, _, err := nat.ParsePortRangeToInt(b.HostPort)
			if err != nil {
				return nil, fmt.Errorf("invalid host port %q: %w", b.HostPort, err)
			}
			b.HostPort = strconv.Itoa(start)
			if b.HostIP == "" {
				b.HostIP = "0.0.0.0"
			}
			published = append(published, b)
		}
		m[port] = published
	}
	return m, nil
}

// portMap renders the container's ports in inspect shape. Specs were
// validated by ParseFleet; a bad one yields no ports.
func (c FixtureContainer) portMap() nat.PortMap {
	m, err := parsePortSpecs(c.Ports)
	if err != nil {
		return nat.PortMap{}
	}
	return m
}

// listedPorts renders the container's ports in list shape, one entry per
// binding and one for each exposed-only port.
func (c FixtureContainer) listedPorts() []ListedPort {
	m := c.portMap()
	keys := make([]nat.Port, 0, len(m))
	for port := range m {
		keys = append(keys, port)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Int() != keys[j].Int() {
			return keys[i].Int() < keys[j].Int()
		}
		return keys[i].Proto() < keys[j].Proto()
	})

	var ports []ListedPort
	for _, port := range keys {
		private := uint16(port.Int())
		if len(m[port]) == 0 {
			ports = append(ports, ListedPort{PrivatePort: private, Type: port.Proto()})
			continue
		}
		for _, b := range m[port] {
			public, _ := strconv.ParseUint(b.HostPort, 10, 16)
			ports = append(ports, ListedPort{
				IP:          b.HostIP,
				PrivatePort: private,
				PublicPort:  uint16(public),
				Type:        port.Proto(),
			})
		}
	}
	return ports
}

// imageID resolves a container's image reference to the image ID, the way
// the daemon reports ImageID. Unknown references are returned unchanged.
func (fx *Fixture) imageID(ref string) string {
	for _, img := range fx.Images {
		if img.ID == ref {
			return img.ID
		}
		for _, tag := range img.RepoTags {
			if tag == ref {
				return img.ID
			}
		}
	}
	return ref
}

func (c FixtureContainer) running() bool {
	return c.State == "" || c.State == "running"
}

// findContainer resolves a full ID or unique ID prefix. ambiguous is true
// when the prefix matches more than one container.
func (fx *Fixture) findContainer(id string) (c FixtureContainer, ok, ambiguous bool) {
	if id == "" {
		return c, false, false
	}
	matches := 0
	for _, fc := range fx.Containers {
		if fc.ID == id || fc.Name == id {
			return fc, true, false
		}
		if strings.HasPrefix(fc.ID, id) {
			c = fc
			matches++
		}
	}
	if matches > 1 {
		return FixtureContainer{}, false, true
	}
	return c, matches == 1, false
}
