package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/stub"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

type stubFlags struct {
	port  int
	delay time.Duration
	watch bool
}

func newStubCmd(a *app) *cobra.Command {
	f := &stubFlags{}

	cmd := &cobra.Command{
		Use:   "stub <routes.yaml>...",
		Short: "Serve canned responses from YAML route files",
		Long: `Start an HTTP server that answers from the routes in one or more YAML
files.

  routes:
    - method: GET
      path: /users/{{id}}
      status: 200
      headers: {Content-Type: application/json}
      body: '{"id": "{{id}}"}'
    - method: GET
      path: /slow
      delay: 2s
    - method: GET
      path: /broken
      drop: true

Examples:
  hitreq stub routes.yaml
  hitreq stub routes.yaml --port 8080 --delay 100ms
  hitreq stub routes.yaml --watch`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStub(cmd, args, f)
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&f.port, "port", "p", 3000, "Port to listen on")
	fs.DurationVar(&f.delay, "delay", 0, "Delay added to every response")
	fs.BoolVarP(&f.watch, "watch", "w", false, "Reload routes when the files change")
	return cmd
}

func (a *app) runStub(cmd *cobra.Command, files []string, f *stubFlags) error {
	server := stub.NewServer(
		stub.WithPort(f.port),
		stub.WithDelay(f.delay),
		stub.WithVerbose(a.cfg.GetVerbose()),
		stub.WithLogger(a.logger),
	)

	if err := server.Reload(files...); err != nil {
		return withExit(ExitConfigError, err)
	}
	if len(server.Routes()) == 0 {
		return withExit(ExitConfigError, fmt.Errorf("no routes found in the provided files"))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d routes from %d files\n", len(server.Routes()), len(files))
	fmt.Fprintf(cmd.OutOrStdout(), "Stub server listening on http://localhost:%d\n", f.port)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if f.watch {
		watcher, err := watchRoutes(a, server, files)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	return server.Start(ctx)
}

// watchRoutes reloads the route table whenever one of files is written.
// The watcher's directories are watched so editors that replace files on
// save are seen too.
func watchRoutes(a *app, server *stub.Server, files []string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	wanted := make(map[string]bool, len(files))
	watchedDirs := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			abs = file
		}
		wanted[abs] = true

		dir := filepath.Dir(abs)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				_ = watcher.Close()
				return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	go func() {
		var debounceTimer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name, err := filepath.Abs(event.Name)
				if err != nil || !wanted[name] {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					if err := server.Reload(files...); err != nil {
						a.logger.Error("reload failed, keeping previous routes", "error", err)
						return
					}
					a.logger.Info("routes reloaded", "file", event.Name, "routes", len(server.Routes()))
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				a.logger.Warn("watch error", "error", err)
			}
		}
	}()

	return watcher, nil
}
