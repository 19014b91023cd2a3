package main

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const rebuildDebounce = 500 * time.Millisecond

func newBuildCmd(c *cli) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Prerender every route into the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := c.build(ctx); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return c.watch(ctx)
		},
	}
	cmd.Flags().String("out", "", "output directory (default dist)")
	cmd.Flags().BoolVar(&watch, "watch", false, "rebuild when posts, static files or the config change")
	_ = c.v.BindPFlag("output_dir", cmd.Flags().Lookup("out"))
	return cmd
}

// build loads the configuration afresh and prerenders the site.
func (c *cli) build(ctx context.Context) error {
	start := time.Now()
	app, cfg, err := c.newApp()
	if err != nil {
		return err
	}
	n, err := app.Prerender(ctx, cfg.OutputDir)
	if err != nil {
		return err
	}
	c.logger.Infof("built %d routes in %s", n, time.Since(start).Round(time.Millisecond))
	return nil
}

// watch rebuilds after changes under the content and static directories
// or to the config file, until ctx is cancelled.
func (c *cli) watch(ctx context.Context) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range []string{cfg.ContentDir, cfg.StaticDir} {
		if err := addTree(watcher, root); err != nil {
			c.logger.Warnf("not watching %s: %v", root, err)
		}
	}
	if used := c.v.ConfigFileUsed(); used != "" {
		if err := watcher.Add(used); err != nil {
			c.logger.Warnf("not watching %s: %v", used, err)
		}
	}
	c.logger.Infof("watching for changes, press Ctrl+C to stop")

	rebuild := make(chan struct{}, 1)
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			c.logger.Debugf("change detected: %s (%s)", event.Name, event.Op)
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					c.logger.Warnf("not watching %s: %v", event.Name, err)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rebuildDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})
		case <-rebuild:
			if err := c.build(ctx); err != nil {
				c.logger.Errorf("rebuild failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warnf("watcher error: %v", err)
		}
	}
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
