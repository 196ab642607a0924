package locate

import (
	"testing"

	"github.com/cfilipov/harpoon/internal/docker"
)

func TestFormat(t *testing.T) {
	t.Parallel()
	rec := docker.ContainerRecord{
		ID:       "4f2c9a1b7e3d58a06b1c2d3e4f50617283",
		ImageRef: "sha256:aaa",
		Ports: []docker.PortBinding{
			{PrivatePort: 80, PublicPort: "8080", HostIP: "0.0.0.0", Protocol: "tcp"},
			{PrivatePort: 53, PublicPort: "5353", HostIP: "127.0.0.1", Protocol: "udp"},
		},
	}
	got := Format("web-1", rec, []string{"shop:1.2", "shop:latest"})
	want := "Found container 4f2c9a1b7e3d on host web-1\n" +
		"  tags: shop:1.2, shop:latest\n" +
		"  ports:\n" +
		"    - 0.0.0.0:8080 -> 80 (tcp)\n" +
		"    - 127.0.0.1:5353 -> 53 (udp)"
	if got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}
}

func TestFormat_Empty(t *testing.T) {
	t.Parallel()
	got := Format("db-1", docker.ContainerRecord{ID: "abc"}, nil)
	want := "Found container abc on host db-1\n" +
		"  tags: (none)\n" +
		"  ports: (none)"
	if got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	hosts := []string{"a", "b"}
	if got := NotFound("d3adb33f", KindContainerID, hosts); got != "Container d3adb33f not found (hosts tried: a, b)" {
		t.Errorf("NotFound = %q", got)
	}
	if got := NotFound("shop", KindImagePattern, hosts); got != "Image shop not found (hosts tried: a, b)" {
		t.Errorf("NotFound = %q", got)
	}
}
