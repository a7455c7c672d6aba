package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jparise/gh-since/internal/config"
	"github.com/jparise/gh-since/internal/server"
	"github.com/jparise/gh-since/internal/timeparse"
	"github.com/spf13/cobra"
)

var (
	serveFlags serviceFlags
	serveAddr  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the repository catalog over HTTP",
	Long: `Serve exposes the catalog built by "gh since index":

  GET /repos     repositories filtered by since, until, activeAfter,
                 activeBefore, owner, and limit query parameters
  GET /healthz   liveness
  GET /metrics   Prometheus metrics`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	f := serveCmd.Flags()
	serveFlags.register(f)
	f.StringVar(&serveAddr, "addr", "",
		"listen address (default from config, 127.0.0.1:8080)")
}

func serveConfig(cmd *cobra.Command) (*config.Config, error) {
	fs := cmd.Flags()
	cfg, err := serveFlags.load(fs)
	if err != nil {
		return nil, err
	}
	if fs.Changed("addr") {
		cfg.Server.Address = serveAddr
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := serveConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	log := newLogger(cfg, cmd.ErrOrStderr(), "serve")
	srv := server.New(store, timeparse.NewResolver(), log, server.Options{
		Addr:         cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		DefaultLimit: cfg.Server.DefaultLimit,
		MaxLimit:     cfg.Server.MaxLimit,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})
	return srv.Run(ctx)
}
