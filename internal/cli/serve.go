package cli

import (
	"fmt"
	"log/slog"

	httprouter "cobaltctl/internal/infrastructure/delivery/http"
	"cobaltctl/internal/observability"
	httpserver "cobaltctl/pkg/http/server"

	"github.com/spf13/cobra"
)

const serveCmdName = "serve"

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   serveCmdName,
		Short: "Run the HTTP gateway in front of the instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			metrics := observability.New()

			client, proxies, err := a.client(ctx, metrics)
			if err != nil {
				return err
			}

			if proxies != nil {
				proxies.StartHealthChecker(ctx)
			}

			router := httprouter.New(a.log, a.cfg, client, a.presets, metrics)

			httpSrv := httpserver.New(router, httpserver.Options{
				Addr:            a.cfg.HTTP.Port,
				WriteTimeout:    a.cfg.HTTP.HandlerTimeout + a.cfg.HTTP.ShutdownTimeout,
				ShutdownTimeout: a.cfg.HTTP.ShutdownTimeout,
			})

			a.log.InfoContext(ctx, "cobaltctl gateway started",
				slog.String("port", a.cfg.HTTP.Port),
				slog.String("instance", client.InstanceURI()),
				slog.Int("presets", len(a.presets.Names())))

			// Waiting for shutdown signal
			select {
			case <-ctx.Done():
			case err := <-httpSrv.Notify():
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
			}

			if err := httpSrv.Shutdown(); err != nil {
				a.log.Error("http server shutdown", slog.Any("error", err))
			}

			a.log.InfoContext(ctx, "cobaltctl gateway shut down gracefully")

			return nil
		},
	}
}
