package inventory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Provider yields the ordered, de-duplicated host list for a lookup.
type Provider interface {
	Hosts(ctx context.Context) ([]string, error)
}

// Static is a fixed host list.
type Static []string

// Hosts returns the list with empty entries and repeats removed, keeping
// the first occurrence of each host.
func (s Static) Hosts(context.Context) ([]string, error) {
	seen := make(map[string]bool, len(s))
	hosts := make([]string, 0, len(s))
	for _, h := range s {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// Ansible selects hosts from an Ansible inventory file.
type Ansible struct {
	Path string
	// VaultPassword decrypts the file if it is vault-encrypted.
	VaultPassword string
	// Limit is an Ansible host pattern; empty means "all".
	Limit string
}

func (a *Ansible) Hosts(_ context.Context) ([]string, error) {
	inv, err := a.Load()
	if err != nil {
		return nil, err
	}
	hosts, err := inv.Select(a.Limit)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", a.Path, err)
	}
	return hosts, nil
}

// Load reads, decrypts if needed, and parses the inventory file.
func (a *Ansible) Load() (*Inventory, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	if IsVault(data) {
		if a.VaultPassword == "" {
			return nil, fmt.Errorf("inventory %s is vault-encrypted and no vault password was given", a.Path)
		}
		data, err = DecryptVault(data, a.VaultPassword)
		if err != nil {
			return nil, fmt.Errorf("inventory %s: %w", a.Path, err)
		}
	}

	inv, err := Parse(a.Path, data)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", a.Path, err)
	}
	return inv, nil
}

// Parse parses inventory data, choosing YAML or INI from the file extension
// or, failing that, from the content.
func Parse(name string, data []byte) (*Inventory, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		return parseYAML(data)
	case ".ini", ".cfg":
		return parseINI(data)
	}
	if looksLikeYAML(data) {
		return parseYAML(data)
	}
	return parseINI(data)
}

// looksLikeYAML checks whether the first meaningful line is a YAML
// document start or a top-level "group:" mapping key.
func looksLikeYAML(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if line == "---" {
			return true
		}
		return strings.HasSuffix(line, ":") && !strings.HasPrefix(line, "[")
	}
	return false
}

// ReadPasswordFile reads a vault password file, dropping the trailing
// newline the way ansible-vault does.
func ReadPasswordFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read vault password file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// Cached keeps the last host list from another provider until Reload.
// A failed reload keeps the previous list.
type Cached struct {
	src Provider

	mu    sync.RWMutex
	hosts []string
}

// NewCached loads src once and returns the cache.
func NewCached(ctx context.Context, src Provider) (*Cached, error) {
	c := &Cached{src: src}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the host list from the source provider.
func (c *Cached) Reload(ctx context.Context) error {
	hosts, err := c.src.Hosts(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.hosts = hosts
	c.mu.Unlock()
	return nil
}

func (c *Cached) Hosts(context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.hosts...), nil
}

var (
	_ Provider = Static(nil)
	_ Provider = (*Cached)(nil)
	_ Provider = (*Ansible)(nil)
)
