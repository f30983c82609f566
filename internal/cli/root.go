// Package cli implements the cobaltctl commands using Cobra.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"cobaltctl/internal/config"
	"cobaltctl/internal/observability"
	"cobaltctl/internal/preset"
	"cobaltctl/internal/proxymgr"
	"cobaltctl/internal/transport"
	"cobaltctl/pkg/cobalt"
	"cobaltctl/pkg/logger"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	presets *preset.Store

	// flags
	instance   string
	apiKey     string
	presetFile string
	jsonOut    bool
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		return 1
	}

	return 0
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cobaltctl",
		Short: "Resolve and download media through a cobalt instance",
		Long: `cobaltctl talks to a cobalt media extraction instance.

The instance and credential come from COBALT_INSTANCE_URI and COBALT_API_KEY
or the --instance and --api-key flags.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.instance, "instance", "", "Instance URI (overrides COBALT_INSTANCE_URI)")
	root.PersistentFlags().StringVar(&a.apiKey, "api-key", "", "API key (overrides COBALT_API_KEY)")
	root.PersistentFlags().StringVar(&a.presetFile, "presets", "", "Presets TOML file (overrides COBALT_APP_PRESETS_FILE)")
	root.PersistentFlags().BoolVarP(&a.jsonOut, "json", "j", false, "Print results as JSON")

	root.AddCommand(
		newStatusCmd(a),
		newServicesCmd(a),
		newGetCmd(a),
		newDownloadCmd(a),
		newPresetsCmd(a),
		newServeCmd(a),
	)

	return root
}

// load reads configuration, then sets up logging and presets: flags < env < defaults.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	overrides := map[string]string{}
	if a.instance != "" {
		overrides["COBALT_INSTANCE_URI"] = a.instance
	}
	if a.apiKey != "" {
		overrides["COBALT_API_KEY"] = a.apiKey
	}
	if a.presetFile != "" {
		overrides["COBALT_APP_PRESETS_FILE"] = a.presetFile
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	// the server logs JSON to stdout; interactive commands keep stdout for results
	opts := &logger.Options{Level: cfg.App.LogLevel, Format: logger.FormatText, Writer: cmd.ErrOrStderr()}
	if cmd.Name() == serveCmdName {
		opts = &logger.Options{AddSource: true, Level: cfg.App.LogLevel, Writer: cmd.OutOrStdout()}
	}

	a.log, err = logger.New(opts)
	if err != nil {
		a.log.Warn("logger level invalid; defaulting to info", slog.Any("error", err))
	}

	a.presets, err = preset.Load(cfg.App.PresetsFile)
	if err != nil {
		return fmt.Errorf("loading presets: %w", err)
	}

	return nil
}

// client builds the instance client on the shared transport. metrics may be nil.
func (a *app) client(ctx context.Context, metrics *observability.Metrics) (*cobalt.Client, *proxymgr.Manager, error) {
	var proxies *proxymgr.Manager

	if len(a.cfg.Proxy.Proxies) > 0 {
		var err error

		proxies, err = proxymgr.New(a.log, a.cfg, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("proxy manager: %w", err)
		}

		a.log.DebugContext(ctx, "proxy manager initialized", slog.Int("proxy_count", proxies.ProxyCount()))
	}

	opts := []cobalt.Option{
		cobalt.WithHTTPClient(transport.New(a.cfg.Transport, proxies)),
		cobalt.WithUserAgent(a.cfg.Cobalt.UserAgent),
		cobalt.WithDefaultFilenameStyle(a.cfg.Cobalt.FilenameStyle),
	}
	if metrics != nil {
		opts = append(opts, cobalt.WithObserver(metrics))
	}

	c, err := cobalt.New(a.cfg.Cobalt.APIKey, a.cfg.Cobalt.InstanceURI, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("cobalt client: %w", err)
	}

	return c, proxies, nil
}

func (a *app) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.Transport.RequestTimeout)
}
