package docker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// FakeDaemon is an http.Handler that implements the slice of the Docker
// Engine API the locator uses, backed by a Fixture. The real SDKClient can
// talk to it exactly as it would to a real daemon.
type FakeDaemon struct {
	mu      sync.RWMutex
	fx      *Fixture
	handler http.Handler

	requests atomic.Int64
}

// NewFakeDaemon returns a fake daemon serving fx.
func NewFakeDaemon(fx *Fixture) *FakeDaemon {
	if fx == nil {
		fx = &Fixture{}
	}
	fd := &FakeDaemon{fx: fx}
	mux := http.NewServeMux()
	fd.registerRoutes(mux)
	fd.handler = fd.stripVersionPrefix(mux)
	return fd
}

// StartFakeDaemon serves fx on a TCP address such as "127.0.0.1:2375".
// It returns the bound address and a cleanup function.
func StartFakeDaemon(fx *Fixture, addr string) (boundAddr string, cleanup func(), err error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen tcp: %w", err)
	}

	server := &http.Server{
		Handler:           NewFakeDaemon(fx),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("fake daemon serve", "err", err)
		}
	}()

	cleanupFn := func() {
		server.Close()
		listener.Close()
	}
	return listener.Addr().String(), cleanupFn, nil
}

// SetFixture swaps the served state.
func (fd *FakeDaemon) SetFixture(fx *Fixture) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.fx = fx
}

// Requests returns the number of API requests served, pings excluded.
func (fd *FakeDaemon) Requests() int64 {
	return fd.requests.Load()
}

func (fd *FakeDaemon) fixture() *Fixture {
	fd.mu.RLock()
	defer fd.mu.RUnlock()
	return fd.fx
}

func (fd *FakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fd.handler.ServeHTTP(w, r)
}

// stripVersionPrefix returns middleware that strips /v{version}/ prefix from requests.
// Docker SDK sends requests like /v1.41/containers/json.
func (fd *FakeDaemon) stripVersionPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if len(path) > 2 && path[0] == '/' && path[1] == 'v' {
			if idx := strings.IndexByte(path[2:], '/'); idx >= 0 {
				r.URL.Path = path[2+idx:]
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (fd *FakeDaemon) registerRoutes(mux *http.ServeMux) {
	// Ping
	mux.HandleFunc("HEAD /_ping", fd.handlePing)
	mux.HandleFunc("GET /_ping", fd.handlePing)

	// Containers
	mux.HandleFunc("GET /containers/json", fd.delayed(fd.handleContainerList))
	mux.HandleFunc("GET /containers/{id}/json", fd.delayed(fd.handleContainerInspect))

	// Images
	mux.HandleFunc("GET /images/json", fd.delayed(fd.handleImageList))
}

// delayed counts the request and applies the fixture delay. A client that
// gives up first sees its own timeout.
func (fd *FakeDaemon) delayed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fd.requests.Add(1)
		if d := fd.fixture().Delay; d > 0 {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-r.Context().Done():
				return
			case <-t.C:
			}
		}
		h(w, r)
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorJSON is the daemon's error body; the SDK surfaces Message verbatim.
type errorJSON struct {
	Message string `json:"message"`
}

// --- Ping ---

func (fd *FakeDaemon) handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Api-Version", DefaultAPIVersion)
	w.Header().Set("Docker-Experimental", "false")
	w.Header().Set("Ostype", "linux")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// --- Containers ---

// containerJSON matches the Docker SDK container.Summary type fields.
type containerJSON struct {
	ID      string     `json:"Id"`
	Names   []string   `json:"Names"`
	Image   string     `json:"Image"`
	ImageID string     `json:"ImageID"`
	Command string     `json:"Command"`
	Created int64      `json:"Created"`
	State   string     `json:"State"`
	Status  string     `json:"Status"`
	Ports   []portJSON `json:"Ports"`
}

type portJSON struct {
	IP          string `json:"IP,omitempty"`
	PrivatePort uint16 `json:"PrivatePort"`
	PublicPort  uint16 `json:"PublicPort,omitempty"`
	Type        string `json:"Type"`
}

func (fd *FakeDaemon) handleContainerList(w http.ResponseWriter, r *http.Request) {
	allParam := r.URL.Query().Get("all")
	all := allParam == "1" || allParam == "true"

	fx := fd.fixture()
	result := make([]containerJSON, 0, len(fx.Containers))
	for _, c := range fx.Containers {
		if !all && !c.running() {
			continue
		}
		state := c.State
		if state == "" {
			state = "running"
		}
		ports := make([]portJSON, 0, len(c.Ports))
		for _, p := range c.listedPorts() {
			ports = append(ports, portJSON{
				IP:          p.IP,
				PrivatePort: p.PrivatePort,
				PublicPort:  p.PublicPort,
				Type:        p.Type,
			})
		}
		result = append(result, containerJSON{
			ID:      c.ID,
			Names:   []string{"/" + containerName(c)},
			Image:   c.Image,
			ImageID: fx.imageID(c.Image),
			Command: "/entrypoint.sh",
			State:   state,
			Status:  buildStatusString(state),
			Ports:   ports,
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func buildStatusString(state string) string {
	switch state {
	case "running":
		return "Up 2 hours"
	case "paused":
		return "Up 2 hours (Paused)"
	case "exited":
		return "Exited (0) 5 minutes ago"
	default:
		return state
	}
}

func containerName(c FixtureContainer) string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}

// inspectJSON matches the Docker SDK container.InspectResponse fields the
// locator reads.
type inspectJSON struct {
	ID              string                     `json:"Id"`
	Name            string                     `json:"Name"`
	Image           string                     `json:"Image"`
	State           inspectStateJSON           `json:"State"`
	Config          inspectConfigJSON          `json:"Config"`
	NetworkSettings inspectNetworkSettingsJSON `json:"NetworkSettings"`
}

type inspectStateJSON struct {
	Status  string `json:"Status"`
	Running bool   `json:"Running"`
}

type inspectConfigJSON struct {
	Image string `json:"Image"`
}

type portBindingJSON struct {
	HostIp   string `json:"HostIp"`
	HostPort string `json:"HostPort"`
}

type inspectNetworkSettingsJSON struct {
	Ports map[string][]portBindingJSON `json:"Ports"`
}

func (fd *FakeDaemon) handleContainerInspect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	fx := fd.fixture()
	c, ok, ambiguous := fx.findContainer(id)
	if ambiguous {
		writeJSON(w, http.StatusBadRequest, errorJSON{
			Message: "Multiple IDs found with provided prefix: " + id,
		})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorJSON{Message: noSuchContainer + ": " + id})
		return
	}

	ports := make(map[string][]portBindingJSON)
	for key, bindings := range c.portMap() {
		// Exposed-only ports are null on the wire.
		if len(bindings) == 0 {
			ports[string(key)] = nil
			continue
		}
		list := make([]portBindingJSON, 0, len(bindings))
		for _, b := range bindings {
			list = append(list, portBindingJSON{HostIp: b.HostIP, HostPort: b.HostPort})
		}
		ports[string(key)] = list
	}

	state := c.State
	if state == "" {
		state = "running"
	}
	writeJSON(w, http.StatusOK, inspectJSON{
		ID:              c.ID,
		Name:            "/" + containerName(c),
		Image:           fx.imageID(c.Image),
		State:           inspectStateJSON{Status: state, Running: state == "running"},
		Config:          inspectConfigJSON{Image: c.Image},
		NetworkSettings: inspectNetworkSettingsJSON{Ports: ports},
	})
}

// --- Images ---

// imageJSON matches the Docker SDK image.Summary type fields.
type imageJSON struct {
	ID          string            `json:"Id"`
	ParentID    string            `json:"ParentId"`
	RepoTags    []string          `json:"RepoTags"`
	RepoDigests []string          `json:"RepoDigests"`
	Created     int64             `json:"Created"`
	Size        int64             `json:"Size"`
	SharedSize  int64             `json:"SharedSize"`
	Labels      map[string]string `json:"Labels"`
	Containers  int64             `json:"Containers"`
}

func (fd *FakeDaemon) handleImageList(w http.ResponseWriter, r *http.Request) {
	fx := fd.fixture()

	countByImageID := make(map[string]int64)
	for _, c := range fx.Containers {
		countByImageID[fx.imageID(c.Image)]++
	}

	created := time.Date(2025, 11, 15, 4, 0, 0, 0, time.UTC).Unix()
	result := make([]imageJSON, 0, len(fx.Images))
	for _, img := range fx.Images {
		tags := img.RepoTags
		if len(tags) == 0 {
			// Dangling images carry the placeholder tag on the wire.
			tags = []string{"<none>:<none>"}
		}
		result = append(result, imageJSON{
			ID:          img.ID,
			RepoTags:    tags,
			RepoDigests: []string{},
			Created:     created,
			Size:        mockSize(img.ID),
			SharedSize:  -1,
			Containers:  countByImageID[img.ID],
		})
	}
	writeJSON(w, http.StatusOK, result)
}

// mockSize derives a stable fake size from an image ID.
func mockSize(id string) int64 {
	var h int64 = 7
	for _, r := range id {
		h = h*31 + int64(r)
	}
	if h < 0 {
		h = -h
	}
	return 10_000_000 + h%500_000_000
}
