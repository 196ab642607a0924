package docker

import (
	"testing"

	"github.com/docker/go-connections/nat"
)

func TestFromInspect_SkipsUnpublished(t *testing.T) {
	t.Parallel()
	ports := nat.PortMap{
		"80/tcp":  {{HostIP: "0.0.0.0", HostPort: "8080"}},
		"443/tcp": {},
	}
	rec := FromInspect("abc", "sha256:img", ports)

	if len(rec.Ports) != 1 {
		t.Fatalf("expected 1 binding, got %d: %+v", len(rec.Ports), rec.Ports)
	}
	want := PortBinding{PrivatePort: 80, PublicPort: "8080", HostIP: "0.0.0.0", Protocol: "tcp"}
	if rec.Ports[0] != want {
		t.Errorf("binding = %+v, want %+v", rec.Ports[0], want)
	}
	if rec.ID != "abc" || rec.ImageRef != "sha256:img" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestFromInspect_FirstBindingWins(t *testing.T) {
	t.Parallel()
	ports := nat.PortMap{
		"53/udp": {
			{HostIP: "0.0.0.0", HostPort: "5353"},
			{HostIP: "::", HostPort: "5353"},
		},
	}
	rec := FromInspect("abc", "img", ports)
	if len(rec.Ports) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(rec.Ports))
	}
	if rec.Ports[0].HostIP != "0.0.0.0" || rec.Ports[0].Protocol != "udp" {
		t.Errorf("binding = %+v", rec.Ports[0])
	}
}

func TestFromInspect_NilMap(t *testing.T) {
	t.Parallel()
	rec := FromInspect("abc", "img", nil)
	if len(rec.Ports) != 0 {
		t.Errorf("expected no ports, got %+v", rec.Ports)
	}
}

func TestFromListing_DropsZeroPublicPort(t *testing.T) {
	t.Parallel()
	rec := FromListing("abc", "img", []ListedPort{
		{IP: "0.0.0.0", PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
		{PrivatePort: 443, Type: "tcp"},
	})
	if len(rec.Ports) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(rec.Ports))
	}
	if rec.Ports[0].PublicPort != "8080" {
		t.Errorf("PublicPort = %q, want 8080", rec.Ports[0].PublicPort)
	}
}

// Both API shapes describe the same container and must produce the same
// record.
func TestNormalize_ShapesAgree(t *testing.T) {
	t.Parallel()
	fromInspect := FromInspect("abc", "img", nat.PortMap{
		"443/tcp":  {{HostIP: "0.0.0.0", HostPort: "8443"}},
		"80/tcp":   {{HostIP: "0.0.0.0", HostPort: "8080"}},
		"9000/tcp": nil,
	})
	fromListing := FromListing("abc", "img", []ListedPort{
		{IP: "0.0.0.0", PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
		{PrivatePort: 9000, Type: "tcp"},
		{IP: "0.0.0.0", PrivatePort: 443, PublicPort: 8443, Type: "tcp"},
	})

	if len(fromInspect.Ports) != len(fromListing.Ports) {
		t.Fatalf("port counts differ: %+v vs %+v", fromInspect.Ports, fromListing.Ports)
	}
	for i := range fromInspect.Ports {
		if fromInspect.Ports[i] != fromListing.Ports[i] {
			t.Errorf("port %d: %+v vs %+v", i, fromInspect.Ports[i], fromListing.Ports[i])
		}
	}
	if fromInspect.Ports[0].PrivatePort != 80 {
		t.Errorf("ports not sorted: %+v", fromInspect.Ports)
	}
}

func TestTagsFor(t *testing.T) {
	t.Parallel()
	images := []ImageRecord{
		{ID: "sha256:a", RepoTags: []string{"a:1"}},
		{ID: "sha256:b", RepoTags: []string{"b:1", "b:latest"}},
	}
	if got := TagsFor(images, "sha256:b"); len(got) != 2 {
		t.Errorf("TagsFor(b) = %v", got)
	}
	if got := TagsFor(images, "sha256:c"); got != nil {
		t.Errorf("TagsFor(c) = %v, want nil", got)
	}
}
