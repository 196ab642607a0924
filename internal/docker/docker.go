package docker

import (
	"context"
	"time"
)

const (
	// DefaultPort is the plain-TCP Docker daemon port every fleet host listens on.
	DefaultPort = 2375
	// DefaultAPIVersion pins the Engine API version sent with every request.
	DefaultAPIVersion = "1.41"
	// DefaultTimeout bounds each request to a single host.
	DefaultTimeout = 15 * time.Second
)

// Client abstracts the read-only Docker daemon queries needed to find
// containers on one host. Implementations normalize the wire shapes into
// ContainerRecord so callers never see SDK types.
type Client interface {
	// ContainerInspect looks up a single container by full or short ID.
	// A missing container is reported as an error that Classify maps to
	// FailureNotFound.
	ContainerInspect(ctx context.Context, id string) (ContainerRecord, error)

	// ContainerList returns the running containers on the host.
	ContainerList(ctx context.Context) ([]ContainerRecord, error)

	// ImageList returns the images on the host with their repo tags.
	ImageList(ctx context.Context) ([]ImageRecord, error)

	// Close releases any resources held by the client.
	Close() error
}

// Dialer builds a Client for one host. Each call returns a fresh client
// owned by the caller.
type Dialer func(host string) (Client, error)

// DialOptions configure the production Dialer.
type DialOptions struct {
	Port       int
	APIVersion string
	Timeout    time.Duration
}

// DefaultDialOptions returns the options used when nothing is configured.
func DefaultDialOptions() DialOptions {
	return DialOptions{
		Port:       DefaultPort,
		APIVersion: DefaultAPIVersion,
		Timeout:    DefaultTimeout,
	}
}

// NewDialer returns a Dialer that connects to tcp://<host>:<port> using the
// Docker Engine SDK.
func NewDialer(opts DialOptions) Dialer {
	return func(host string) (Client, error) {
		return NewSDKClientForHost(host, opts)
	}
}
