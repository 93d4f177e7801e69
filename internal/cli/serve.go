package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixeljudge/pixeljudge/internal/api"
	"github.com/pixeljudge/pixeljudge/pkg/cache"
	"github.com/pixeljudge/pixeljudge/pkg/pipeline"
)

// serveCommand creates the HTTP API server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		redisAddr   string
		redisDB     int
		cacheScope  string
		profiles    string
		visionModel string
		visionURL   string
		rendererURL string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve runs the analysis pipeline as an HTTP API.

Endpoints:
  POST /v1/analyze   analyze a base64-encoded screenshot
  POST /v1/validate  validate a reproduction against the original
  GET  /healthz      liveness and version

With --redis the result cache is shared across instances; otherwise the
local file cache is used.`,
		Example: `  # Local file cache
  pixeljudge serve --addr :8080

  # Shared redis cache and a screenshot service for source rendering
  pixeljudge serve --redis localhost:6379 --renderer-url http://renderer:3000/render`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newServeRunner(cmd.Context(), serveOptions{
				redisAddr:  redisAddr,
				redisDB:    redisDB,
				cacheScope: cacheScope,
				runner: runnerOptions{
					noCache:     noCache,
					profiles:    profiles,
					visionModel: visionModel,
					visionURL:   visionURL,
					rendererURL: rendererURL,
				},
			})
			if err != nil {
				return err
			}
			defer runner.Close()

			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(runner, c.Logger).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("api listening", "addr", addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				c.Logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for a shared result cache (e.g. localhost:6379)")
	cmd.Flags().IntVar(&redisDB, "redis-db", 0, "redis database number")
	cmd.Flags().StringVar(&cacheScope, "cache-scope", "api", "key namespace for the shared redis cache")
	cmd.Flags().StringVar(&profiles, "profiles", "", "TOML file with additional brand profiles")
	cmd.Flags().StringVar(&visionModel, "vision-model", "", "vision model for layout description")
	cmd.Flags().StringVar(&visionURL, "vision-url", "", "vision API base URL override")
	cmd.Flags().StringVar(&rendererURL, "renderer-url", "", "screenshot service endpoint for source rendering")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")

	return cmd
}

// serveOptions extends runnerOptions with the serve-only cache backend.
type serveOptions struct {
	redisAddr  string
	redisDB    int
	cacheScope string
	runner     runnerOptions
}

// newServeRunner builds the API runner, preferring the redis cache when one
// is configured.
func (c *CLI) newServeRunner(ctx context.Context, opts serveOptions) (*pipeline.Runner, error) {
	if opts.redisAddr == "" {
		return c.newRunner(opts.runner)
	}

	backend, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr: opts.redisAddr,
		DB:   opts.redisDB,
	})
	if err != nil {
		return nil, err
	}

	// Build collaborators through the shared factory, then swap the cache in.
	base := opts.runner
	base.noCache = true
	runner, err := c.newRunner(base)
	if err != nil {
		backend.Close()
		return nil, err
	}
	runner.Cache = backend
	if opts.cacheScope != "" {
		// Scoped keys keep deployments sharing one redis database apart.
		runner.Keyer = cache.NewScopedKeyer(runner.Keyer, opts.cacheScope+":")
	}
	return runner, nil
}
