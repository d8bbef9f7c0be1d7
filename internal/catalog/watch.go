package catalog

import (
	"context"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the catalog file for changes and calls onChange with the
// newly parsed Catalog each time the file is written. It runs until ctx is
// cancelled.
//
// A reload that fails to parse, or that yields no parameter rows, is logged
// and the previous catalog remains active — Watch does not call onChange.
func Watch(ctx context.Context, path string, onChange func(*Catalog)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("catalog: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write via
			// rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			c, err := reload(path)
			if err != nil {
				slog.Error("catalog: reload failed — keeping previous catalog",
					"path", path, "err", err)
				continue
			}

			slog.Info("catalog: reloaded", "path", path, "parameters", c.Len())
			onChange(c)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("catalog: watcher error", "err", err)
		}
	}
}

// reload parses the file strictly: unlike Load it does not fall back to the
// embedded defaults, so a truncated save never silently shrinks the catalog.
func reload(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
