package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"thesisgen/internal/config"
	"thesisgen/internal/http/server"
	"thesisgen/internal/infra/chrome"
	"thesisgen/internal/infra/logging"
	"thesisgen/internal/placeholder"
	"thesisgen/internal/render"
	"thesisgen/internal/thesis"
)

type rootOptions struct {
	configPath string
	output     string
	figuresDir string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Generate missing figures and write the thesis document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts.load())
		},
	}

	rootCmd := &cobra.Command{
		Use:   "thesisgen",
		Short: "Assemble the undergraduate thesis document",
		Long: `thesisgen writes the thesis to a .docx, .html or .pdf file.

Figures that are missing from the figures directory are replaced by
placeholder images with their caption centred on a blank canvas.
Without a subcommand it behaves like "thesisgen build".`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         buildCmd.RunE,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (overrides CONFIG_PATH)")
	pf.StringVarP(&opts.output, "output", "o", "", "output file; the extension selects docx, html or pdf")
	pf.StringVar(&opts.figuresDir, "figures-dir", "", "directory holding the figure images")

	rootCmd.AddCommand(
		buildCmd,
		&cobra.Command{
			Use:   "placeholders",
			Short: "Only generate the missing placeholder figures",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := ensurePlaceholders(cmd, opts.load())
				return err
			},
		},
		&cobra.Command{
			Use:   "serve",
			Short: "Run the preview server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(opts.load())
			},
		},
	)
	return rootCmd
}

// load reads the configuration, applies flag overrides and initialises
// logging.
func (o *rootOptions) load() config.Config {
	var cfg config.Config
	if o.configPath != "" {
		cfg = config.LoadFrom(o.configPath)
	} else {
		cfg = config.Load()
	}
	if o.output != "" {
		cfg.Output.Path = o.output
	}
	if o.figuresDir != "" {
		cfg.Figures.Dir = o.figuresDir
	}
	// Allow common container env var to override chrome_path.
	if cfg.PDF.ChromePath == "" {
		if v := os.Getenv("CHROME_BIN"); v != "" {
			cfg.PDF.ChromePath = v
		}
	}

	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	return cfg
}

func ensurePlaceholders(cmd *cobra.Command, cfg config.Config) (int, error) {
	gen := placeholder.New(placeholder.Options{
		FontPath: cfg.Placeholder.FontPath,
		FontSize: cfg.Placeholder.FontSize,
	})
	n, err := gen.EnsureAll(thesis.PlaceholderRequests(cfg.Figures.Dir))
	if err != nil {
		logging.Error("Placeholder generation failed", "error", err)
		return n, err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d placeholder image(s) created in %s\n", n, cfg.Figures.Dir)
	return n, nil
}

func runBuild(cmd *cobra.Command, cfg config.Config) error {
	if _, err := ensurePlaceholders(cmd, cfg); err != nil {
		return err
	}

	b, err := thesis.Compose(cfg)
	if err != nil {
		logging.Error("Document assembly failed", "error", err)
		return err
	}

	if format, _ := render.FormatFromPath(cfg.Output.Path); format == render.FormatPDF {
		pdf := chrome.NewRenderer(cfg)
		defer pdf.Close()
		b.WithPDF(pdf)
	}

	if err := b.Save(cmd.Context(), cfg.Output.Path); err != nil {
		logging.Error("Saving document failed", "path", cfg.Output.Path, "error", err)
		return err
	}

	logging.Info("Document created", "path", cfg.Output.Path, "blocks", len(b.Document().Blocks))
	fmt.Fprintf(cmd.OutOrStdout(), "File '%s' created\n", cfg.Output.Path)
	return nil
}

func runServe(cfg config.Config) error {
	var rdb *redis.Client
	if cfg.Cache.DocumentCacheEnabled {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.DocumentCacheDB,
		})
		defer rdb.Close()
	}

	pdf := chrome.NewRenderer(cfg)
	defer pdf.Close()

	app := server.New(server.Deps{Config: cfg, Redis: rdb, PDF: pdf})

	idleConnsClosed := make(chan struct{})
	err := startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
	return err
}

// startServer starts the Fiber app and blocks until SIGINT or SIGTERM, or
// until the listener fails, in which case the listen error is returned.
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) error {
	addr := cfg.Server.Host + cfg.Server.Port
	listenErr := make(chan error, 1)
	go func() {
		logging.Info("Preview server listening", "addr", addr)
		listenErr <- app.Listen(addr)
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)

	select {
	case err := <-listenErr:
		close(idleConnsClosed)
		if err != nil {
			logging.Error("Server error", "addr", addr, "error", err)
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-sigint:
	}

	logging.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
	return nil
}
