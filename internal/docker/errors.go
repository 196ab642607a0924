package docker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/docker/docker/client"
)

// FailureKind tells the dispatcher how visible a per-host failure should be.
type FailureKind int

const (
	// FailureRemote is any HTTP-level error other than a missing container.
	FailureRemote FailureKind = iota
	// FailureNotFound means the daemon confirmed there is no such container.
	FailureNotFound
	// FailureNetwork covers unreachable hosts, resets and timeouts.
	FailureNetwork
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not-found"
	case FailureNetwork:
		return "network"
	default:
		return "remote"
	}
}

// noSuchContainer is the message prefix the daemon sends with a 404 from
// the inspect endpoint.
const noSuchContainer = "No such container"

// NotFoundError is returned by clients when a container does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return noSuchContainer + ": " + e.ID
}

// HostError records one failed call against one host, classified once.
type HostError struct {
	Host string
	Op   string
	Kind FailureKind
	Err  error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Host, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// NewHostError wraps err with the host and operation and classifies it.
func NewHostError(host, op string, err error) *HostError {
	return &HostError{Host: host, Op: op, Kind: Classify(err), Err: err}
}

// Classify maps an error from a Client call to a FailureKind.
func Classify(err error) FailureKind {
	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return hostErr.Kind
	}

	var nf *NotFoundError
	if errors.As(err, &nf) {
		return FailureNotFound
	}
	if client.IsErrNotFound(err) && strings.Contains(err.Error(), noSuchContainer) {
		return FailureNotFound
	}

	if client.IsErrConnectionFailed(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return FailureNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureNetwork
	}

	return FailureRemote
}
