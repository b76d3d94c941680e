package cli

import (
	"context"
	"encoding/json"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/telekom/infoasst-navshell/pkg/access"
	"github.com/telekom/infoasst-navshell/pkg/api"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"github.com/telekom/infoasst-navshell/pkg/features"
	"github.com/telekom/infoasst-navshell/pkg/navigation"
	"github.com/telekom/infoasst-navshell/pkg/version"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Options are the global flags shared by all subcommands.
type Options struct {
	ConfigPath string
	Debug      bool
}

// DefaultOptions reads flag defaults from the environment.
func DefaultOptions() Options {
	return Options{
		ConfigPath: getEnvString(config.ConfigPathEnv, ""),
		Debug:      getEnvBool("NAVSHELL_DEBUG", false),
	}
}

func NewRootCommand(opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "navshell",
		Short:         "Navigation shell service for the information assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath,
		"Path to the navshell configuration file (default ./config.yaml)")
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", opts.Debug, "Enable debug level logging and CORS for local frontends")

	root.AddCommand(newServeCommand(&opts), newVersionCommand())
	return root
}

func newServeCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			zl := SetupLogger(opts.Debug)
			defer func() { _ = zl.Sync() }()
			log := zl.Sugar()

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				log.Errorw("Error loading navshell config", "error", err)
				return err
			}
			if opts.Debug {
				Print(log, cfg)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, zl, cfg, opts.Debug)
		},
	}
}

func newVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()
			writer := cmd.OutOrStdout()

			switch outputFormat {
			case "json":
				encoder := json.NewEncoder(writer)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			case "yaml":
				data, err := yaml.Marshal(info)
				if err != nil {
					return fmt.Errorf("failed to marshal to YAML: %w", err)
				}
				_, err = fmt.Fprint(writer, string(data))
				return err
			case "":
				_, err := fmt.Fprintln(writer, info.String())
				return err
			default:
				return fmt.Errorf("unsupported output format %q (use json or yaml)", outputFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, yaml")

	return cmd
}

// Serve wires the collaborators from cfg and runs the HTTP server until ctx is done.
func Serve(ctx context.Context, zl *zap.Logger, cfg config.Config, debug bool) error {
	log := zl.Sugar()

	resolver, err := access.New(ctx, log, cfg.Access)
	if err != nil {
		return fmt.Errorf("creating access resolver: %w", err)
	}
	if closer, ok := resolver.(interface{ Close() }); ok {
		defer closer.Close()
	}
	source := features.NewSource(log, cfg)
	shell := navigation.NewShell(log, source, resolver, navigation.WithLoadingPlaceholder(cfg.Frontend.LoadingPlaceholder))

	server := api.NewServer(zl, cfg, debug)
	defer server.Close()
	if err := server.RegisterAll([]api.APIController{
		api.NewNavigationController(log, shell, cfg, server.RateLimit()),
	}); err != nil {
		return fmt.Errorf("registering controllers: %w", err)
	}

	log.Infow("Starting navshell",
		"version", version.Version,
		"resolver", access.Name(resolver),
		"featureSource", featureSourceName(source),
		"address", cfg.Server.ListenAddress)
	return server.Listen(ctx)
}

func featureSourceName(s features.Source) string {
	if _, ok := s.(*features.HTTPSource); ok {
		return "backend"
	}
	return "static"
}

// Print logs the effective configuration without secrets.
func Print(log *zap.SugaredLogger, cfg config.Config) {
	log.Infow("Navshell configuration",
		"listen_address", cfg.Server.ListenAddress,
		"tls", cfg.Server.TLSCertFile != "",
		"mount_timeout", cfg.Server.MountTimeout,
		"title", cfg.Frontend.Title,
		"static_dir", cfg.Frontend.StaticDir,
		"loading_placeholder", cfg.Frontend.LoadingPlaceholder,
		"oidc_authority", cfg.Frontend.OIDCAuthority,
		"backend_url", cfg.Backend.URL,
		"backend_auth", cfg.Backend.Auth != nil,
		"resolver", cfg.Access.Resolver,
		"content_manager_roles", cfg.Access.ContentManagerRoles,
		"rate_limit", cfg.RateLimit.Rate,
		"rate_burst", cfg.RateLimit.Burst,
	)
}

// SetupLogger builds the process logger: production config unless debug is set.
func SetupLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	// Disable automatic stacktraces for non-fatal levels to avoid noisy traces in WARN/INFO logs
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		stdlog.Fatalf("failed to set up logger: %v", err)
	}
	return logger
}

// getEnvString returns the value of an environment variable, or the provided default if not set.
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvBool returns the value of an environment variable as a bool, or the provided default if not set.
// Valid true values are "true", "1", "yes" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
