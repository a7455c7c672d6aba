package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jparise/gh-since/internal/catalog"
	"github.com/jparise/gh-since/internal/config"
	"github.com/jparise/gh-since/internal/finder"
	"github.com/jparise/gh-since/internal/github"
	"github.com/jparise/gh-since/internal/timeparse"
	"github.com/spf13/cobra"
)

var (
	indexFlags     serviceFlags
	indexRepoTypes repoTypesFlag
	indexRateLimit float64
	indexNoCache   bool
)

var indexCmd = &cobra.Command{
	Use:   "index <owner>...",
	Short: "Record owners' repositories in the local catalog",
	Long: `Index lists every repository of each owner and saves it to the catalog,
stamped with the time it was indexed. Re-indexing an owner refreshes its
entries. Query the catalog with "gh since serve".`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runIndex,
}

func init() {
	f := indexCmd.Flags()
	indexFlags.register(f)
	f.Var(&indexRepoTypes, "repo-types",
		"repo types to include: sources,forks,archives,mirrors,all (default from config)")
	f.Float64Var(&indexRateLimit, "rate-limit", 0,
		"maximum API requests per second (0 = unlimited)")
	f.BoolVar(&indexNoCache, "no-cache", false,
		"bypass cache, always fetch fresh data")
}

// indexConfig applies the index-only flags over cfg.
func indexConfig(cmd *cobra.Command) (*config.Config, error) {
	fs := cmd.Flags()
	cfg, err := indexFlags.load(fs)
	if err != nil {
		return nil, err
	}

	if fs.Changed("repo-types") {
		cfg.GitHub.RepoTypes = strings.Split(indexRepoTypes.String(), ",")
	}
	if fs.Changed("rate-limit") {
		cfg.GitHub.RateLimit = indexRateLimit
	}
	if fs.Changed("no-cache") {
		cfg.GitHub.DisableCache = indexNoCache
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runIndex(cmd *cobra.Command, owners []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := indexConfig(cmd)
	if err != nil {
		return err
	}

	var types repoTypesFlag
	if err := types.Set(strings.Join(cfg.GitHub.RepoTypes, ",")); err != nil {
		return err
	}

	client, err := github.NewClient(github.ClientOptions{
		CacheTTL:     cfg.GitHub.CacheTTL.Std(),
		DisableCache: cfg.GitHub.DisableCache,
		RateLimit:    cfg.GitHub.RateLimit,
	})
	if err != nil {
		return err
	}

	store, err := openCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	log := newLogger(cfg, cmd.ErrOrStderr(), "index")
	ix := catalog.NewIndexer(client, store, timeparse.SystemClock, github.RepoTypes(types), log)

	n, indexErr := ix.Index(ctx, owners...)

	out := finder.NewOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), false, false)
	out.Infof("Indexed %d repositories into %s", n, cfg.Catalog.Path)

	return indexErr
}
