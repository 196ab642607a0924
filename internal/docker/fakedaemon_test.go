package docker

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	webID    = "4f2c9a1b7e3d58a06b1c2d3e4f5061728394a5b6c7d8e9f00112233445566778"
	cacheID  = "9a8b7c6d5e4f30211203948576a6b5c4d3e2f1a0b9c8d7e6f5a4b3c2d1e0f9a8"
	shopImg  = "sha256:1111111111111111111111111111111111111111111111111111111111111111"
	redisImg = "sha256:2222222222222222222222222222222222222222222222222222222222222222"
)

func testFixture() *Fixture {
	return &Fixture{
		Images: []FixtureImage{
			{ID: shopImg, RepoTags: []string{"hub.example.com/shop:1.2", "hub.example.com/shop:latest"}},
			{ID: redisImg, RepoTags: []string{"redis:7"}},
			{ID: "sha256:3333333333333333333333333333333333333333333333333333333333333333"},
		},
		Containers: []FixtureContainer{
			{ID: webID, Name: "shop-web", Image: "hub.example.com/shop:1.2", Ports: []string{"0.0.0.0:8080:80/tcp", "443/tcp"}},
			{ID: cacheID, Name: "cache", Image: "redis:7", Ports: []string{"127.0.0.1:6379:6379"}},
			{ID: "0000aaaa", Image: "redis:7", State: "exited"},
		},
	}
}

// setupFakeDaemon starts a FakeDaemon over HTTP and returns an SDKClient
// connected to it plus a cleanup function.
func setupFakeDaemon(t *testing.T, fx *Fixture, timeout time.Duration) (*SDKClient, *FakeDaemon, func()) {
	t.Helper()

	fd := NewFakeDaemon(fx)
	srv := httptest.NewServer(fd)

	client, err := NewSDKClientWithHost("tcp://"+srv.Listener.Addr().String(), DialOptions{
		APIVersion: DefaultAPIVersion,
		Timeout:    timeout,
	})
	if err != nil {
		srv.Close()
		t.Fatalf("new sdk client: %v", err)
	}

	return client, fd, func() {
		client.Close()
		srv.Close()
	}
}

func TestFakeDaemon_ContainerInspect(t *testing.T) {
	t.Parallel()
	client, _, cleanup := setupFakeDaemon(t, testFixture(), 5*time.Second)
	defer cleanup()

	rec, err := client.ContainerInspect(context.Background(), webID[:12])
	if err != nil {
		t.Fatalf("ContainerInspect: %v", err)
	}
	if rec.ID != webID {
		t.Errorf("ID = %q, want %q", rec.ID, webID)
	}
	if rec.ImageRef != shopImg {
		t.Errorf("ImageRef = %q, want %q", rec.ImageRef, shopImg)
	}
	if len(rec.Ports) != 1 {
		t.Fatalf("expected 1 published port, got %d: %+v", len(rec.Ports), rec.Ports)
	}
	want := PortBinding{PrivatePort: 80, PublicPort: "8080", HostIP: "0.0.0.0", Protocol: "tcp"}
	if rec.Ports[0] != want {
		t.Errorf("port = %+v, want %+v", rec.Ports[0], want)
	}
}

func TestFakeDaemon_ContainerInspectNotFound(t *testing.T) {
	t.Parallel()
	client, _, cleanup := setupFakeDaemon(t, testFixture(), 5*time.Second)
	defer cleanup()

	_, err := client.ContainerInspect(context.Background(), "123456789abc")
	if err == nil {
		t.Fatal("expected error for missing container")
	}
	if kind := Classify(err); kind != FailureNotFound {
		t.Errorf("Classify = %v, want not-found (err: %v)", kind, err)
	}
}

func TestFakeDaemon_ContainerInspectAmbiguous(t *testing.T) {
	t.Parallel()
	fx := testFixture()
	fx.Containers = append(fx.Containers, FixtureContainer{ID: webID[:20] + "ffff", Image: "redis:7"})
	client, _, cleanup := setupFakeDaemon(t, fx, 5*time.Second)
	defer cleanup()

	_, err := client.ContainerInspect(context.Background(), webID[:12])
	if err == nil {
		t.Fatal("expected error for ambiguous prefix")
	}
	if kind := Classify(err); kind != FailureRemote {
		t.Errorf("Classify = %v, want remote", kind)
	}
}

func TestFakeDaemon_ContainerList(t *testing.T) {
	t.Parallel()
	client, _, cleanup := setupFakeDaemon(t, testFixture(), 5*time.Second)
	defer cleanup()

	recs, err := client.ContainerList(context.Background())
	if err != nil {
		t.Fatalf("ContainerList: %v", err)
	}
	// The exited container is not listed.
	if len(recs) != 2 {
		t.Fatalf("expected 2 running containers, got %d", len(recs))
	}
	if recs[0].ID != webID || recs[1].ID != cacheID {
		t.Errorf("unexpected order: %s, %s", recs[0].ID, recs[1].ID)
	}
	if recs[1].ImageRef != redisImg {
		t.Errorf("ImageRef = %q, want %q", recs[1].ImageRef, redisImg)
	}
	if len(recs[0].Ports) != 1 || recs[0].Ports[0].PublicPort != "8080" {
		t.Errorf("web ports = %+v", recs[0].Ports)
	}
	if len(recs[1].Ports) != 1 || recs[1].Ports[0].HostIP != "127.0.0.1" {
		t.Errorf("cache ports = %+v", recs[1].Ports)
	}
}

func TestFakeDaemon_ImageList(t *testing.T) {
	t.Parallel()
	client, _, cleanup := setupFakeDaemon(t, testFixture(), 5*time.Second)
	defer cleanup()

	imgs, err := client.ImageList(context.Background())
	if err != nil {
		t.Fatalf("ImageList: %v", err)
	}
	if len(imgs) != 3 {
		t.Fatalf("expected 3 images, got %d", len(imgs))
	}
	tags := TagsFor(imgs, shopImg)
	if len(tags) != 2 || tags[0] != "hub.example.com/shop:1.2" {
		t.Errorf("shop tags = %v", tags)
	}
	// The dangling placeholder tag is filtered out.
	if tags := TagsFor(imgs, imgs[2].ID); len(tags) != 0 {
		t.Errorf("dangling image tags = %v, want none", tags)
	}
}

func TestFakeDaemon_Timeout(t *testing.T) {
	t.Parallel()
	fx := testFixture()
	fx.Delay = 2 * time.Second
	client, _, cleanup := setupFakeDaemon(t, fx, 100*time.Millisecond)
	defer cleanup()

	start := time.Now()
	_, err := client.ContainerInspect(context.Background(), webID)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("request took %v, timeout not applied", elapsed)
	}
	if kind := Classify(err); kind != FailureNetwork {
		t.Errorf("Classify = %v, want network (err: %v)", kind, err)
	}
}

func TestFakeDaemon_ConnectionRefused(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(NewFakeDaemon(nil))
	addr := srv.Listener.Addr().String()
	srv.Close()

	client, err := NewSDKClientWithHost("tcp://"+addr, DialOptions{APIVersion: DefaultAPIVersion, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new sdk client: %v", err)
	}
	defer client.Close()

	_, err = client.ContainerList(context.Background())
	if err == nil {
		t.Fatal("expected connection error")
	}
	if kind := Classify(err); kind != FailureNetwork {
		t.Errorf("Classify = %v, want network (err: %v)", kind, err)
	}
}

func TestFakeDaemon_SetFixture(t *testing.T) {
	t.Parallel()
	client, fd, cleanup := setupFakeDaemon(t, &Fixture{}, 5*time.Second)
	defer cleanup()

	ctx := context.Background()
	recs, err := client.ContainerList(ctx)
	if err != nil {
		t.Fatalf("ContainerList: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty host, got %d", len(recs))
	}

	fd.SetFixture(testFixture())
	recs, err = client.ContainerList(ctx)
	if err != nil {
		t.Fatalf("ContainerList: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 containers after swap, got %d", len(recs))
	}
	if got := fd.Requests(); got != 2 {
		t.Errorf("Requests = %d, want 2", got)
	}
}

func TestStartFakeDaemon(t *testing.T) {
	t.Parallel()
	addr, cleanup, err := StartFakeDaemon(testFixture(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("StartFakeDaemon: %v", err)
	}
	defer cleanup()

	client, err := NewSDKClientWithHost("tcp://"+addr, DefaultDialOptions())
	if err != nil {
		t.Fatalf("new sdk client: %v", err)
	}
	defer client.Close()

	if _, err := client.ContainerInspect(context.Background(), cacheID); err != nil {
		t.Fatalf("ContainerInspect: %v", err)
	}
}
