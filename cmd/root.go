// Package cmd implements the gh-since command line.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/jparise/gh-since/internal/finder"
	"github.com/jparise/gh-since/internal/github"
	"github.com/jparise/gh-since/internal/timeparse"
	"github.com/jparise/gh-since/internal/timerange"
	"github.com/spf13/cobra"
)

var activeFlagFields = timerange.Fields{Start: "active-after", End: "active-before"}

var (
	version = "dev"

	// Flags.
	color         = colorAuto
	repoTypes     repoTypesFlag
	fileTypes     fileTypesFlag
	ignoreCase    bool
	fullPath      bool
	extensions    []string
	excludes      []string
	minSize       string
	maxSize       string
	changedAfter  string
	changedBefore string
	activeAfter   string
	activeBefore  string
	reposOnly     bool
	noCache       bool
	cacheDir      string
	cacheTTL      time.Duration
	rateLimit     float64
	jobs          int
)

var rootCmd = &cobra.Command{
	Use:   "gh-since [<pattern>] <repository>...",
	Short: "Find GitHub repositories and files by when they changed",
	Long: `gh-since finds files across GitHub repositories, like find(1), filtered by
when they last changed.

<pattern> is a glob pattern to match files ("*.go", "**/*.js", "*.{go,md}").
When searching a single repository, pattern defaults to "*".

<repository> can be:
  <owner>            Search all repositories for a user or organization
  <owner>/<repo>     Search a specific repository
  <owner>/<repo>@ref Search a specific branch, tag, or commit

Time expressions accept dates (2024-01-31), timestamps (RFC3339), and
relative phrases: now, today, yesterday, "last week", "30 days ago", 2w.

Examples:
  gh since --changed-after "30 days ago" "*.go" cli/cli
  gh since --changed-after 2024-01-01 --changed-before 2024-07-01 cli
  gh since --active-after "last month" --repos-only cli
  gh since --repo-types sources,forks --active-before 2023-01-01 "*.md" torvalds
  gh since --type x "*.sh" cli/cli

Subcommands maintain and serve a local catalog of repositories:
  gh since index cli github
  gh since serve --addr :8080`,
	Version:      version,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if jobs < 1 || jobs > 100 {
			return fmt.Errorf("--jobs must be between 1 and 100, got %d", jobs)
		}
		if rateLimit < 0 {
			return fmt.Errorf("--rate-limit cannot be negative")
		}
		return nil
	},
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.Var(&repoTypes, "repo-types",
		"repo types to include: sources,forks,archives,mirrors,all (default sources)")
	f.VarP(&fileTypes, "type", "t",
		"file types to include: f (file), x (executable), l (symlink), d (directory), s (submodule)")
	f.Var(&color, "color",
		"colorize output: auto, always, never")
	f.BoolVarP(&ignoreCase, "ignore-case", "i", false,
		"case-insensitive pattern matching")
	f.BoolVarP(&fullPath, "full-path", "p", false,
		"match pattern against full path (default: basename only)")
	f.StringSliceVarP(&extensions, "extension", "e", []string{},
		"filter by file extension (can be specified multiple times)")
	f.StringSliceVarP(&excludes, "exclude", "E", []string{},
		"exclude patterns (can be specified multiple times)")
	f.StringVar(&minSize, "min-size", "",
		"minimum file size (e.g., 1M, 500k, 1GB)")
	f.StringVar(&maxSize, "max-size", "",
		"maximum file size (e.g., 5M, 1GB)")
	f.StringVar(&changedAfter, "changed-after", "",
		"only files last committed at or after this time")
	f.StringVar(&changedBefore, "changed-before", "",
		"only files last committed at or before this time")
	f.StringVar(&activeAfter, "active-after", "",
		"only repositories pushed at or after this time")
	f.StringVar(&activeBefore, "active-before", "",
		"only repositories pushed at or before this time")
	f.BoolVar(&reposOnly, "repos-only", false,
		"list matching repositories instead of searching files")
	f.BoolVar(&noCache, "no-cache", false,
		"bypass cache, always fetch fresh data")
	f.StringVar(&cacheDir, "cache-dir", "",
		"override cache directory location")
	f.DurationVar(&cacheTTL, "cache-ttl", 24*time.Hour,
		"cache time-to-live (e.g., 1h, 30m, 24h)")
	f.Float64Var(&rateLimit, "rate-limit", 0,
		"maximum API requests per second (0 = unlimited)")
	f.IntVarP(&jobs, "jobs", "j", 10,
		"maximum concurrent API requests")

	rootCmd.AddCommand(indexCmd, serveCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// parseArgs parses command-line arguments into a pattern and repository specs.
func parseArgs(args []string) (pattern string, repoSpecs []string, err error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("at least one repository is required")
	}

	// A single argument is a repository; otherwise the first is the pattern.
	if len(args) == 1 {
		return "*", args, nil
	}

	pattern = args[0]
	if pattern == "" {
		pattern = "*"
	}
	return pattern, args[1:], nil
}

// parseSizes validates --min-size and --max-size.
func parseSizes(minRaw, maxRaw string) (minBytes, maxBytes int64, err error) {
	parse := func(flag, raw string) (int64, error) {
		if raw == "" {
			return 0, nil
		}
		size, err := parseByteSize(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid --%s %q: %w", flag, raw, err)
		}
		if size == 0 {
			return 0, fmt.Errorf("--%s must be greater than 0", flag)
		}
		return size, nil
	}

	if minBytes, err = parse("min-size", minRaw); err != nil {
		return 0, 0, err
	}
	if maxBytes, err = parse("max-size", maxRaw); err != nil {
		return 0, 0, err
	}
	if minBytes > 0 && maxBytes > 0 && minBytes > maxBytes {
		return 0, 0, fmt.Errorf("--min-size cannot be greater than --max-size")
	}
	return minBytes, maxBytes, nil
}

// buildOptions turns the parsed flags and arguments into search options.
// Every flag is validated here, before any API request is made.
func buildOptions(res *timeparse.Resolver, args []string) (*finder.Options, error) {
	pattern, specArgs, err := parseArgs(args)
	if err != nil {
		return nil, err
	}

	specs := make([]finder.RepoSpec, len(specArgs))
	for i, arg := range specArgs {
		if specs[i], err = finder.ParseRepoSpec(arg); err != nil {
			return nil, err
		}
	}

	minSizeBytes, maxSizeBytes, err := parseSizes(minSize, maxSize)
	if err != nil {
		return nil, err
	}

	changed, err := timerange.ParseFields(res, timerange.Changed, changedAfter, changedBefore)
	if err != nil {
		return nil, err
	}
	active, err := timerange.ParseFields(res, activeFlagFields, activeAfter, activeBefore)
	if err != nil {
		return nil, err
	}

	types := github.RepoTypes(repoTypes)
	if types == (github.RepoTypes{}) {
		types.Sources = true
	}

	return &finder.Options{
		Pattern:    pattern,
		RepoSpecs:  specs,
		RepoTypes:  types,
		FileTypes:  fileTypes,
		IgnoreCase: ignoreCase,
		FullPath:   fullPath,
		Extensions: extensions,
		Excludes:   excludes,
		MinSize:    minSizeBytes,
		MaxSize:    maxSizeBytes,
		Changed:    changed,
		Active:     active,
		ReposOnly:  reposOnly,
		ClientOpts: github.ClientOptions{
			DisableCache: noCache,
			CacheDir:     cacheDir,
			CacheTTL:     cacheTTL,
			RateLimit:    rateLimit,
		},
		Jobs: jobs,
	}, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := buildOptions(timeparse.NewResolver(), args)
	if err != nil {
		return err
	}

	var colorize, hyperlinks bool
	switch color {
	case colorAlways:
		colorize = true
	case colorAuto:
		terminal := term.FromEnv()
		colorize = terminal.IsColorEnabled()
		hyperlinks = terminal.IsTerminalOutput()
	}

	f := finder.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), colorize, hyperlinks)
	return f.Find(ctx, opts)
}
