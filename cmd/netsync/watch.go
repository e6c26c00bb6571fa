package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"netsync/internal/handler"
	"netsync/internal/hub"
	"netsync/internal/metrics"
	"netsync/internal/service"
	"netsync/internal/source"
	"netsync/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		listen   string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Load the controller dump now and again whenever it changes",
		Long: `Runs a load, then watches the controller dump and reloads it on every change.
With --listen it also serves the run history, Prometheus metrics and a
Server-Sent Events stream of run events over HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Source.Path == "" {
				return errors.New("a controller dump must be provided with --source or source.path")
			}

			client, err := source.OpenFileClient(a.cfg.Source.Path)
			if err != nil {
				return fmt.Errorf("failed to open source: %w", err)
			}

			repo, err := a.openRepository()
			if err != nil {
				return err
			}
			if repo != nil {
				defer repo.Close()
			}

			ctx := cmd.Context()
			reg := metrics.DefaultRegistry()
			bus := service.NewEventBus()
			svc := service.NewSyncService(client, a.cfg, repo, reg, bus, a.logger)
			out := cmd.OutOrStdout()

			run := func() {
				report, err := svc.Run(ctx)
				if report != nil {
					printReport(out, report)
				}
				if err != nil && ctx.Err() == nil {
					a.logger.Error("Load failed", zap.Error(err))
				}
			}

			if listen != "" {
				sseHub := hub.New(a.logger)
				go sseHub.Run(ctx)

				// Connect event bus to SSE hub
				events := make(chan service.Event, 100)
				bus.Subscribe(events)
				go func() {
					for {
						select {
						case event := <-events:
							sseHub.Broadcast(event)
						case <-ctx.Done():
							return
						}
					}
				}()

				runs := handler.NewRunHandler(repo, a.logger)
				runs.SetLoadTrigger(svc)

				mux := http.NewServeMux()
				runs.Register(mux)
				mux.Handle("GET /metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
				mux.Handle("GET /events", sseHub)

				stop, err := serve(ctx, listen, handler.Chain(mux,
					handler.Recover(a.logger),
					handler.Logger(a.logger),
				), a.logger)
				if err != nil {
					return err
				}
				defer stop()
			}

			run()

			w := watcher.New(a.cfg.Source.Path, func() {
				if err := client.Reload(); err != nil {
					a.logger.Warn("Unable to reload controller dump, keeping the previous one", zap.Error(err))
					return
				}
				run()
			}, a.logger).WithDebounce(debounce)

			if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("watch %s: %w", a.cfg.Source.Path, err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("source", "", "controller dump to load and watch (YAML or JSON)")
	flags.String("export", "", "write the snapshot and quarantine to this file after every run")
	flags.String("format", "", "export format: json, yaml")
	flags.Bool("compress", false, "snappy-compress the export")
	flags.String("metrics-textfile", "", "write run metrics in Prometheus text format to this file")
	flags.StringVar(&listen, "listen", "", "serve the HTTP API on this address, e.g. :9108")
	flags.DurationVar(&debounce, "debounce", 500*time.Millisecond, "wait this long after the last change before reloading")
	bindFlags(a.v, flags, map[string]string{
		"source.path":           "source",
		"export.path":           "export",
		"export.format":         "format",
		"export.compress":       "compress",
		"metrics.textfile_path": "metrics-textfile",
	})

	return cmd
}

// serve starts an HTTP server on addr. The returned func shuts it down.
func serve(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:     h,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Server shutdown error", zap.Error(err))
		}
	}, nil
}
