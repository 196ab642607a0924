package docker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient implements Client as a pure in-memory mock backed by a
// Fixture. It produces records through the same normalizer as SDKClient:
// inspect goes through FromInspect and listings through FromListing.
type MockClient struct {
	host string
	fx   *Fixture

	// Err, when set, is returned from every call.
	Err error

	onClose func()
}

// NewMockClient returns a MockClient serving fx.
func NewMockClient(host string, fx *Fixture) *MockClient {
	if fx == nil {
		fx = &Fixture{}
	}
	return &MockClient{host: host, fx: fx}
}

// wait applies the fixture delay, honoring ctx.
func (m *MockClient) wait(ctx context.Context) error {
	if m.fx.Delay > 0 {
		t := time.NewTimer(m.fx.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return m.Err
}

func (m *MockClient) ContainerInspect(ctx context.Context, id string) (ContainerRecord, error) {
	if err := m.wait(ctx); err != nil {
		return ContainerRecord{}, fmt.Errorf("container inspect: %w", err)
	}
	c, ok, ambiguous := m.fx.findContainer(id)
	if ambiguous {
		return ContainerRecord{}, fmt.Errorf("container inspect: multiple IDs found with provided prefix: %s", id)
	}
	if !ok {
		return ContainerRecord{}, fmt.Errorf("container inspect: %w", &NotFoundError{ID: id})
	}
	return FromInspect(c.ID, m.fx.imageID(c.Image), c.portMap()), nil
}

func (m *MockClient) ContainerList(ctx context.Context) ([]ContainerRecord, error) {
	if err := m.wait(ctx); err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}
	result := make([]ContainerRecord, 0, len(m.fx.Containers))
	for _, c := range m.fx.Containers {
		if !c.running() {
			continue
		}
		result = append(result, FromListing(c.ID, m.fx.imageID(c.Image), c.listedPorts()))
	}
	return result, nil
}

func (m *MockClient) ImageList(ctx context.Context) ([]ImageRecord, error) {
	if err := m.wait(ctx); err != nil {
		return nil, fmt.Errorf("image list: %w", err)
	}
	result := make([]ImageRecord, 0, len(m.fx.Images))
	for _, img := range m.fx.Images {
		tags := append([]string(nil), img.RepoTags...)
		result = append(result, ImageRecord{ID: img.ID, RepoTags: tags})
	}
	return result, nil
}

func (m *MockClient) Close() error {
	if m.onClose != nil {
		m.onClose()
	}
	return nil
}

var _ Client = (*MockClient)(nil)

// MockFleet hands out MockClients per host and counts dials and closes, so
// tests can check that every client is released.
type MockFleet struct {
	fleet *Fleet

	mu         sync.Mutex
	hostErrs   map[string]error
	dialErrs   map[string]error
	dials      map[string]int
	openCount  int
	closeCount int
}

// NewMockFleet returns a MockFleet over fleet. Hosts missing from the fleet
// dial successfully but hold no containers or images.
func NewMockFleet(fleet *Fleet) *MockFleet {
	if fleet == nil {
		fleet = &Fleet{Hosts: map[string]*Fixture{}}
	}
	return &MockFleet{
		fleet:    fleet,
		hostErrs: make(map[string]error),
		dialErrs: make(map[string]error),
		dials:    make(map[string]int),
	}
}

// FailHost makes every call against host return err.
func (f *MockFleet) FailHost(host string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hostErrs[host] = err
}

// FailDial makes dialing host return err.
func (f *MockFleet) FailDial(host string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialErrs[host] = err
}

// Dial satisfies Dialer.
func (f *MockFleet) Dial(host string) (Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials[host]++
	if err := f.dialErrs[host]; err != nil {
		return nil, err
	}
	c := NewMockClient(host, f.fleet.Hosts[host])
	c.Err = f.hostErrs[host]
	c.onClose = func() {
		f.mu.Lock()
		f.closeCount++
		f.mu.Unlock()
	}
	f.openCount++
	return c, nil
}

// Dials returns how many times host was dialed.
func (f *MockFleet) Dials(host string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials[host]
}

// Open returns the number of clients dialed but not yet closed.
func (f *MockFleet) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCount - f.closeCount
}
