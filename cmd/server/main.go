package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Skufu/chronicrisk/internal/config"
	"github.com/Skufu/chronicrisk/internal/disease"
	"github.com/Skufu/chronicrisk/internal/logging"
	"github.com/Skufu/chronicrisk/internal/metrics"
	"github.com/Skufu/chronicrisk/internal/model"
	"github.com/Skufu/chronicrisk/internal/page"
	"github.com/Skufu/chronicrisk/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "chronicrisk",
		Short:        "Chronic disease risk screening server",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(modelsCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect model artifacts",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load every model artifact and report its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.AppName); err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.ModelDir
			}
			return checkModels(cmd.OutOrStdout(), dir)
		},
	}
	checkCmd.Flags().String("dir", "", "Model directory (defaults to MODEL_DIR)")
	cmd.AddCommand(checkCmd)

	return cmd
}

// checkModels loads each catalog artifact from dir and prints one line per
// disease.
func checkModels(w io.Writer, dir string) error {
	catalog, err := disease.Load()
	if err != nil {
		return err
	}
	loader := model.NewLoader(dir, catalog.Artifacts())

	fmt.Fprintf(w, "%-16s %-8s %s\n", "DISEASE", "STATUS", "DETAIL")
	failed := 0
	for _, name := range loader.Diseases() {
		clf, err := loader.Load(name)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%-16s %-8s %v\n", name, "failed", err)
			continue
		}
		detail := ""
		if p, ok := clf.(interface{ FeatureNames() []string }); ok {
			detail = fmt.Sprintf("%d features", len(p.FeatureNames()))
		}
		fmt.Fprintf(w, "%-16s %-8s %s\n", name, "ok", detail)
	}
	if failed > 0 {
		return fmt.Errorf("%d model artifact(s) failed to load from %s", failed, dir)
	}
	return nil
}

// buildServer assembles the catalog, loader, pages and router.
func buildServer(cfg *config.Config, reg *prometheus.Registry) (*gin.Engine, *model.Loader, error) {
	catalog, err := disease.Load()
	if err != nil {
		return nil, nil, err
	}

	m := metrics.New(reg)
	loader := model.NewLoader(cfg.ModelDir, catalog.Artifacts(), model.WithObserver(m.ObserveModelLoad))

	app, err := page.NewApp(catalog, loader, cfg.RiskThreshold)
	if err != nil {
		return nil, nil, err
	}

	router, err := web.NewRouter(web.Options{
		App:          app,
		Catalog:      catalog,
		Health:       loader,
		Metrics:      m,
		Gatherer:     reg,
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
		APIRateLimit: cfg.APIRateLimit,
		APIRateBurst: cfg.APIRateBurst,
	})
	if err != nil {
		return nil, nil, err
	}
	return router, loader, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.AppName); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, loader, err := buildServer(cfg, reg)
	if err != nil {
		return err
	}

	if cfg.PreloadModels {
		if err := loader.LoadAll(); err != nil {
			return fmt.Errorf("load models from %s: %w", cfg.ModelDir, err)
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("models", cfg.ModelDir).Msg("server listening")
	waitForShutdown(server)
	return nil
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
