package docker

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// SDKClient implements Client using the Docker Engine SDK.
type SDKClient struct {
	cli *client.Client
}

// NewSDKClientForHost creates an SDKClient for a fleet host. The host is a
// bare name or address; the daemon is reached over plain TCP on opts.Port
// with a pinned API version, so no version negotiation round-trip is made.
func NewSDKClientForHost(host string, opts DialOptions) (*SDKClient, error) {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return NewSDKClientWithHost(HostURL(host, opts.Port), opts)
}

// NewSDKClientWithHost creates an SDKClient connected to a full daemon URI
// like "tcp://10.0.0.5:2375".
func NewSDKClientWithHost(hostURL string, opts DialOptions) (*SDKClient, error) {
	clientOpts := []client.Opt{client.WithHost(hostURL)}
	if opts.APIVersion != "" {
		clientOpts = append(clientOpts, client.WithVersion(opts.APIVersion))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(opts.Timeout))
	}
	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("docker sdk with host %s: %w", hostURL, err)
	}
	return &SDKClient{cli: cli}, nil
}

// HostURL returns the daemon URI for a fleet host.
func HostURL(host string, port int) string {
	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func (s *SDKClient) ContainerInspect(ctx context.Context, id string) (ContainerRecord, error) {
	raw, err := s.cli.ContainerInspect(ctx, id)
	if err != nil {
		return ContainerRecord{}, fmt.Errorf("container inspect: %w", err)
	}

	var containerID, imageRef string
	if raw.ContainerJSONBase != nil {
		containerID = raw.ID
		imageRef = raw.Image
	}
	var ports nat.PortMap
	if raw.NetworkSettings != nil {
		ports = raw.NetworkSettings.Ports
	}
	return FromInspect(containerID, imageRef, ports), nil
}

func (s *SDKClient) ContainerList(ctx context.Context) ([]ContainerRecord, error) {
	raw, err := s.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}

	result := make([]ContainerRecord, 0, len(raw))
	for _, c := range raw {
		ports := make([]ListedPort, 0, len(c.Ports))
		for _, p := range c.Ports {
			ports = append(ports, ListedPort{
				IP:          p.IP,
				PrivatePort: p.PrivatePort,
				PublicPort:  p.PublicPort,
				Type:        p.Type,
			})
		}
		result = append(result, FromListing(c.ID, c.ImageID, ports))
	}
	return result, nil
}

func (s *SDKClient) ImageList(ctx context.Context) ([]ImageRecord, error) {
	imgs, err := s.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("image list: %w", err)
	}

	result := make([]ImageRecord, 0, len(imgs))
	for _, img := range imgs {
		tags := make([]string, 0, len(img.RepoTags))
		for _, t := range img.RepoTags {
			if t != "<none>:<none>" {
				tags = append(tags, t)
			}
		}
		result = append(result, ImageRecord{ID: img.ID, RepoTags: tags})
	}
	return result, nil
}

func (s *SDKClient) Close() error {
	return s.cli.Close()
}

// Ensure SDKClient implements Client at compile time.
var _ Client = (*SDKClient)(nil)
