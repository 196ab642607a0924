package locate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cfilipov/harpoon/internal/docker"
)

// DefaultParallelism is the number of hosts queried at once.
const DefaultParallelism = 5

// Locator fans a lookup out over a list of hosts. The zero value is not
// usable; Dial must be set.
type Locator struct {
	Dial docker.Dialer
	// Log receives per-host warnings. Defaults to slog.Default().
	Log *slog.Logger
	// Parallelism bounds concurrent host tasks. Defaults to DefaultParallelism.
	Parallelism int
	// Timeout bounds every request to a host. Defaults to docker.DefaultTimeout.
	Timeout time.Duration
}

func (l *Locator) logger() *slog.Logger {
	if l.Log != nil {
		return l.Log
	}
	return slog.Default()
}

func (l *Locator) parallelism() int {
	if l.Parallelism > 0 {
		return l.Parallelism
	}
	return DefaultParallelism
}

func (l *Locator) timeout() time.Duration {
	if l.Timeout > 0 {
		return l.Timeout
	}
	return docker.DefaultTimeout
}

// Locate classifies target and returns one report per match. An empty
// result means nothing was found; per-host failures are logged, never
// returned.
func (l *Locator) Locate(ctx context.Context, hosts []string, target string) []string {
	if Classify(target) == KindContainerID {
		return l.LocateContainer(ctx, hosts, target)
	}
	return l.LocateImage(ctx, hosts, target)
}

// LocateContainer queries every host for the container and reports the
// first host, in list order, that has it. All hosts are queried even after
// a match.
func (l *Locator) LocateContainer(ctx context.Context, hosts []string, id string) []string {
	results := l.fanOut(ctx, hosts, func(ctx context.Context, host string, c docker.Client) []string {
		return l.findContainer(ctx, host, c, id)
	})
	for _, reports := range results {
		if len(reports) > 0 {
			return reports
		}
	}
	return nil
}

// LocateImage reports every running container whose image has a tag
// matching pattern, across all hosts, in host list order.
func (l *Locator) LocateImage(ctx context.Context, hosts []string, pattern string) []string {
	match := NewImageMatcher(pattern)
	results := l.fanOut(ctx, hosts, func(ctx context.Context, host string, c docker.Client) []string {
		return l.findImage(ctx, host, c, match)
	})
	var all []string
	for _, reports := range results {
		all = append(all, reports...)
	}
	return all
}

type hostTask func(ctx context.Context, host string, c docker.Client) []string

// fanOut runs task once per host on a bounded pool. results[i] belongs to
// hosts[i] regardless of completion order.
func (l *Locator) fanOut(ctx context.Context, hosts []string, task hostTask) [][]string {
	results := make([][]string, len(hosts))

	var g errgroup.Group
	g.SetLimit(l.parallelism())
	for i, host := range hosts {
		g.Go(func() error {
			results[i] = l.runTask(ctx, host, task)
			return nil
		})
	}
	g.Wait()

	return results
}

// runTask owns the host's client for the duration of one task and turns
// panics into a logged "no result".
func (l *Locator) runTask(ctx context.Context, host string, task hostTask) (reports []string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger().Warn("host task panicked", "host", host, "panic", fmt.Sprint(r))
			reports = nil
		}
	}()

	c, err := l.Dial(host)
	if err != nil {
		l.warn(&docker.HostError{Host: host, Op: "dial", Kind: docker.FailureNetwork, Err: err})
		return nil
	}
	defer func() {
		if err := c.Close(); err != nil {
			l.logger().Debug("close client", "host", host, "err", err)
		}
	}()

	return task(ctx, host, c)
}

// request bounds a single daemon call; a host task makes several.
func (l *Locator) request(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, l.timeout())
}

func (l *Locator) findContainer(ctx context.Context, host string, c docker.Client, id string) []string {
	reqCtx, cancel := l.request(ctx)
	rec, err := c.ContainerInspect(reqCtx, id)
	cancel()
	if err != nil {
		hostErr := docker.NewHostError(host, "container inspect", err)
		if hostErr.Kind != docker.FailureNotFound {
			l.warn(hostErr)
		}
		return nil
	}

	reqCtx, cancel = l.request(ctx)
	images, err := c.ImageList(reqCtx)
	cancel()
	if err != nil {
		// The container was found; report it without tags.
		l.warn(docker.NewHostError(host, "image list", err))
	}
	return []string{Format(host, rec, docker.TagsFor(images, rec.ImageRef))}
}

func (l *Locator) findImage(ctx context.Context, host string, c docker.Client, match func(string) bool) []string {
	reqCtx, cancel := l.request(ctx)
	images, err := c.ImageList(reqCtx)
	cancel()
	if err != nil {
		l.warn(docker.NewHostError(host, "image list", err))
		return nil
	}

	tagsByID := make(map[string][]string)
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if match(tag) {
				tagsByID[img.ID] = img.RepoTags
				break
			}
		}
	}
	if len(tagsByID) == 0 {
		return nil
	}

	reqCtx, cancel = l.request(ctx)
	containers, err := c.ContainerList(reqCtx)
	cancel()
	if err != nil {
		l.warn(docker.NewHostError(host, "container list", err))
		return nil
	}

	var reports []string
	for _, rec := range containers {
		if tags, ok := tagsByID[rec.ImageRef]; ok {
			reports = append(reports, Format(host, rec, tags))
		}
	}
	return reports
}

func (l *Locator) warn(err *docker.HostError) {
	l.logger().Warn("host lookup failed",
		"host", err.Host,
		"op", err.Op,
		"kind", err.Kind.String(),
		"err", err.Err,
	)
}
