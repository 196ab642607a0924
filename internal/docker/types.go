package docker

// ContainerRecord is the canonical view of a container, whichever API call
// produced it. Records are built by the normalizer and never modified.
type ContainerRecord struct {
	ID       string
	ImageRef string // image ID the container runs, not a human tag
	Ports    []PortBinding
}

// PortBinding is one published port. Unpublished ports never appear here.
type PortBinding struct {
	PrivatePort uint16
	PublicPort  string // inspect reports host ports as text, list as numbers
	HostIP      string
	Protocol    string // "tcp", "udp", "sctp"
}

// ImageRecord is used to resolve a container's ImageRef to repo tags.
type ImageRecord struct {
	ID       string
	RepoTags []string
}

// ListedPort mirrors one entry of the container list API's Ports array.
type ListedPort struct {
	IP          string
	PrivatePort uint16
	PublicPort  uint16
	Type        string
}

// TagsFor returns the repo tags of the image with the given ID, or nil.
func TagsFor(images []ImageRecord, imageID string) []string {
	for _, img := range images {
		if img.ID == imageID {
			return img.RepoTags
		}
	}
	return nil
}
