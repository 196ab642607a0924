package bot

import (
	"context"
	"log/slog"

	"github.com/cfilipov/harpoon/internal/inventory"
)

// WatchInventory reloads hosts whenever the inventory file at path changes.
// A reload that fails keeps the previous host list.
func WatchInventory(ctx context.Context, path string, hosts *inventory.Cached, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	return inventory.Watch(ctx, path, func() {
		if err := hosts.Reload(ctx); err != nil {
			log.Warn("inventory reload failed, keeping previous hosts", "file", path, "err", err)
			return
		}
		list, _ := hosts.Hosts(ctx)
		log.Info("inventory reloaded", "file", path, "hosts", len(list))
	})
}
