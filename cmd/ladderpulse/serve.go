package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/vango-dev/ladderpulse/internal/config"
	"github.com/vango-dev/ladderpulse/internal/errors"
	"github.com/vango-dev/ladderpulse/pkg/nav"
	"github.com/vango-dev/ladderpulse/pkg/sectionstore"
	"github.com/vango-dev/ladderpulse/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		dir     string
		port    int
		host    string
		apiBase string
		tracing bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve navigation sessions over WebSocket",
		Long: `Serve navigation sessions over WebSocket.

Settings come from ladderpulse.json in --dir (or the nearest parent);
flags override them.

Examples:
  ladderpulse serve
  ladderpulse serve --port=9000 --api=https://ladder.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(dir)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if apiBase != "" {
				cfg.API.BaseURL = apiBase
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") {
				setupLogging(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			}

			if tracing {
				setupTracing()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, tracing)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory holding ladderpulse.json")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from ladderpulse.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from ladderpulse.json)")
	cmd.Flags().StringVar(&apiBase, "api", "", "Data API base URL (default from ladderpulse.json)")
	cmd.Flags().BoolVar(&tracing, "trace", false, "Trace restorations and propagate trace context to the data API")

	return cmd
}

// loadConfig reads ladderpulse.json from dir or its parents, falling back
// to defaults when there is none.
func loadConfig(dir string) (*config.Config, error) {
	root, err := config.FindProjectRoot(dir)
	if err != nil {
		if errors.CodeOf(err) == "N141" {
			return config.New(), nil
		}
		return nil, err
	}
	return config.Load(root)
}

// setupTracing installs the W3C trace-context and baggage propagators used
// on data API requests. Spans go to the global tracer provider, which an
// embedding program registers with otel.SetTracerProvider; without one they
// are dropped.
func setupTracing() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func runServe(ctx context.Context, cfg *config.Config, tracing bool) error {
	layout, err := os.ReadFile(cfg.LayoutPath())
	if err != nil && !os.IsNotExist(err) {
		return errors.New("N140").Wrap(err)
	}

	sc := &server.ServerConfig{
		Address:            cfg.Address(),
		Layout:             layout,
		APIBaseURL:         cfg.API.BaseURL,
		APITimeout:         cfg.APITimeout(),
		SettleTimeout:      cfg.SettleTimeout(),
		DefaultTitle:       cfg.Navigation.DefaultTitle,
		DefaultDescription: cfg.Navigation.DefaultDescription,
		EnableMetrics:      cfg.Metrics.Enabled,
		MetricsNamespace:   cfg.Metrics.Namespace,
		EnableTracing:      tracing,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
	}

	if cfg.Sections.Store == config.StoreRedis {
		r := cfg.Sections.Redis
		opts := []sectionstore.Option{sectionstore.WithTTL(cfg.RedisTTL())}
		if r.Prefix != "" {
			opts = append(opts, sectionstore.WithPrefix(r.Prefix))
		}
		store := sectionstore.New(r.Addr, r.Password, r.DB, opts...)
		defer store.Close()
		if err := store.Ping(ctx); err != nil {
			return errors.New("N030").Wrap(err)
		}
		sc.SectionStore = func(sessionID string) nav.SectionStore {
			return store.Scoped(sessionID)
		}
	}

	return server.New(sc).Run(ctx)
}
