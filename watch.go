package haystack_solr

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

const watchDebounce = 300 * time.Millisecond

// watch runs an update, then updates again whenever the build file or one of the
// parts' solr-config files changes, until the command's context is cancelled.
func (c *cli) watch(cmd *cobra.Command, names []string) error {
	logger := withSubsystem(c.logger, "cli.watch")
	b, err := c.loadBuildout()
	if err != nil {
		return err
	}
	files := []string{b.Path}
	parts, err := c.selectParts(b, names)
	if err != nil {
		return err
	}
	for _, name := range parts {
		if cfg := b.Get(name, "solr-config"); cfg != "" {
			files = append(files, cfg)
		}
	}
	if err := c.runParts(cmd, names, true); err != nil {
		return err
	}
	cmd.Println(c.translator.Format("msg_watching", StringMap{"config": b.Path}))
	return watchFiles(cmd.Context(), files, logger, func() {
		if err := c.runParts(cmd, names, true); err != nil {
			logger.Error("update failed", "error", err)
		}
	})
}

// watchFiles calls onChange after writes to any of files settle. The files' parent
// directories are watched, so editors that replace files on save are covered.
func watchFiles(ctx context.Context, files []string, logger pslog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-timer.C:
			onChange()
		}
	}
}
