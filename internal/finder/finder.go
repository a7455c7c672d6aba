// Package finder orchestrates file search across GitHub repositories.
package finder

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jparise/gh-since/internal/github"
	"github.com/jparise/gh-since/internal/timerange"
	"golang.org/x/sync/semaphore"
)

// Finder orchestrates the file finding process.
type Finder struct {
	output *Output
	client *github.Client
}

// New creates a new Finder.
func New(stdout, stderr io.Writer, colorize, hyperlinks bool) *Finder {
	return &Finder{
		output: NewOutput(stdout, stderr, colorize, hyperlinks),
	}
}

// Find executes the search based on the provided options.
func (f *Finder) Find(ctx context.Context, opts *Options) error {
	client, err := github.NewClient(opts.ClientOpts)
	if err != nil {
		return err
	}
	f.client = client

	repos, err := f.collectRepos(ctx, opts)
	if err != nil {
		return err
	}

	if !opts.Active.IsZero() {
		repos = timerange.Filter(repos, opts.Active, pushedAt)
	}

	if len(repos) == 0 {
		f.output.Warningf("No repositories match the filter")
		return nil
	}

	if opts.ReposOnly {
		for _, repo := range repos {
			f.output.Repository(repo)
		}
		return nil
	}

	// Process repositories concurrently with bounded parallelism
	var wg sync.WaitGroup
	var errorCount atomic.Int32
	sem := semaphore.NewWeighted(int64(max(opts.Jobs, 1)))

	for _, repo := range repos {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return err
		}

		wg.Add(1)
		go func(repo github.Repository) {
			defer wg.Done()
			defer sem.Release(1)

			if err := f.searchRepo(ctx, repo, opts); err != nil {
				errorCount.Add(1)
				f.output.Warningf("%s: %v", repo.FullName, err)
			}
		}(repo)
	}

	wg.Wait()

	if int(errorCount.Load()) == len(repos) {
		return fmt.Errorf("failed to search all %d repositories", len(repos))
	}

	return nil
}

// collectRepos expands the repo specs into a deduplicated list of
// repositories, preserving input order.
func (f *Finder) collectRepos(ctx context.Context, opts *Options) ([]github.Repository, error) {
	var allRepos []github.Repository

	for _, spec := range opts.RepoSpecs {
		// Fetch either the single named repo or all of an owner's repos.
		if spec.Repo != "" {
			r, err := f.client.GetRepo(ctx, spec.Owner, spec.Repo)
			if err != nil {
				f.output.Warningf("%s/%s: %v", spec.Owner, spec.Repo, err)
				continue
			}
			r.Ref = spec.Ref
			allRepos = append(allRepos, r)
			continue
		}

		specRepos, err := f.client.ListRepos(ctx, spec.Owner, opts.RepoTypes)
		if err != nil {
			return nil, err
		}
		allRepos = append(allRepos, specRepos...)
	}

	// The full list of repos could contain duplicates (e.g. the user provided
	// an explicit owner/repo name that was also expanded from owner/*).
	seen := make(map[string]bool)
	repos := make([]github.Repository, 0, len(allRepos))
	for _, repo := range allRepos {
		key := repo.FullName + "@" + repo.Branch()
		if !seen[key] {
			seen[key] = true
			repos = append(repos, repo)
		}
	}

	return repos, nil
}

func pushedAt(repo github.Repository) *time.Time {
	return repo.PushedAt
}

func matchPattern(pattern, name string, ignoreCase bool) (bool, error) {
	if ignoreCase {
		pattern = strings.ToLower(pattern)
		name = strings.ToLower(name)
	}
	return doublestar.Match(pattern, name)
}

func matchesFileType(entry *github.TreeEntry, types []github.FileType) bool {
	return slices.Contains(types, github.ParseFileType(entry.Mode))
}

// hasExtension reports whether p ends in one of extensions. Extensions may
// be given with or without their leading dot.
func hasExtension(p string, extensions []string) bool {
	ext := filepath.Ext(p)
	if ext == "" {
		return false
	}
	for _, want := range extensions {
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}

func filterByType(entries []github.TreeEntry, types []github.FileType) []github.TreeEntry {
	if len(types) == 0 {
		return entries
	}

	var filtered []github.TreeEntry
	for i := range entries {
		if matchesFileType(&entries[i], types) {
			filtered = append(filtered, entries[i])
		}
	}
	return filtered
}

func filterByExtension(entries []github.TreeEntry, extensions []string, ignoreCase bool) []github.TreeEntry {
	if len(extensions) == 0 {
		return entries
	}

	if ignoreCase {
		normalized := make([]string, len(extensions))
		for i, ext := range extensions {
			normalized[i] = strings.ToLower(ext)
		}
		extensions = normalized
	}

	var filtered []github.TreeEntry
	for _, entry := range entries {
		matchPath := entry.Path
		if ignoreCase {
			matchPath = strings.ToLower(matchPath)
		}
		if hasExtension(matchPath, extensions) {
			filtered = append(filtered, entry)
		}
	}

	return filtered
}

func filterBySize(entries []github.TreeEntry, minSize, maxSize int64) []github.TreeEntry {
	if minSize == 0 && maxSize == 0 {
		return entries
	}

	filtered := make([]github.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		if minSize > 0 && entry.Size < minSize {
			continue
		}
		if maxSize > 0 && entry.Size > maxSize {
			continue
		}
		filtered = append(filtered, entry)
	}

	return filtered
}

func matchTarget(entry github.TreeEntry, fullPath bool) string {
	if fullPath {
		return entry.Path
	}
	return path.Base(entry.Path)
}

func filterByPattern(entries []github.TreeEntry, pattern string, fullPath, ignoreCase bool) ([]github.TreeEntry, error) {
	var filtered []github.TreeEntry
	for _, entry := range entries {
		matched, err := matchPattern(pattern, matchTarget(entry, fullPath), ignoreCase)
		if err != nil {
			return nil, fmt.Errorf("pattern %q failed to match path %q: %w", pattern, entry.Path, err)
		}

		if matched {
			filtered = append(filtered, entry)
		}
	}

	return filtered, nil
}

func filterByExcludes(entries []github.TreeEntry, excludes []string, fullPath, ignoreCase bool) ([]github.TreeEntry, error) {
	if len(excludes) == 0 {
		return entries, nil
	}

	var filtered []github.TreeEntry
	for _, entry := range entries {
		excluded := false
		for _, excludePattern := range excludes {
			isExcluded, err := matchPattern(excludePattern, matchTarget(entry, fullPath), ignoreCase)
			if err != nil {
				return nil, fmt.Errorf("exclude pattern %q failed to match path %q: %w",
					excludePattern, entry.Path, err)
			}
			if isExcluded {
				excluded = true
				break
			}
		}

		if !excluded {
			filtered = append(filtered, entry)
		}
	}

	return filtered, nil
}

// filterByCommitDate keeps the entries whose last commit date falls within
// r. Entries without any commit history are dropped.
func filterByCommitDate(entries []github.TreeEntry, commits []github.FileCommitInfo, r timerange.Range) []github.TreeEntry {
	dates := make(map[string]time.Time, len(commits))
	for _, c := range commits {
		dates[c.Path] = c.CommittedDate
	}

	return timerange.Filter(entries, r, func(entry github.TreeEntry) *time.Time {
		if t, ok := dates[entry.Path]; ok {
			return &t
		}
		return nil
	})
}

func (f *Finder) searchRepo(ctx context.Context, repo github.Repository, opts *Options) error {
	tree, err := f.client.GetTree(ctx, repo)
	if err != nil {
		return err
	}

	if tree.Truncated {
		f.output.Warningf("%s: exceeds GitHub's API limit (100k files or 7MB) - results are incomplete", repo.FullName)
	}

	entries := tree.Tree
	entries = filterByType(entries, opts.FileTypes)
	entries = filterByExtension(entries, opts.Extensions, opts.IgnoreCase)
	entries = filterBySize(entries, opts.MinSize, opts.MaxSize)

	entries, err = filterByPattern(entries, opts.Pattern, opts.FullPath, opts.IgnoreCase)
	if err != nil {
		return err
	}

	entries, err = filterByExcludes(entries, opts.Excludes, opts.FullPath, opts.IgnoreCase)
	if err != nil {
		return err
	}

	// Commit dates cost a GraphQL round trip per batch, so only look them up
	// for entries that survived every other filter.
	if !opts.Changed.IsZero() && len(entries) > 0 {
		paths := make([]string, len(entries))
		for i, entry := range entries {
			paths[i] = entry.Path
		}

		commits, err := f.client.GetFileCommitDates(ctx, repo, paths)
		if err != nil {
			return err
		}
		entries = filterByCommitDate(entries, commits, opts.Changed)
	}

	for _, entry := range entries {
		f.output.Match(repo.Owner, repo.Name, repo.Branch(), entry.Path)
	}

	return nil
}

// ParseRepoSpec parses "owner", "owner/repo" or "owner/repo@ref".
func ParseRepoSpec(spec string) (RepoSpec, error) {
	var ref string
	if i := strings.LastIndex(spec, "@"); i >= 0 {
		spec, ref = spec[:i], spec[i+1:]
		if ref == "" {
			return RepoSpec{}, fmt.Errorf("invalid repo spec: %s@ (empty ref)", spec)
		}
	}

	parts := strings.Split(spec, "/")
	switch {
	case len(parts) > 2:
		return RepoSpec{}, fmt.Errorf("invalid repo spec: %s (expected owner or owner/repo)", spec)
	case parts[0] == "" || (len(parts) == 2 && parts[1] == ""):
		return RepoSpec{}, fmt.Errorf("invalid repo spec: %q (expected owner or owner/repo)", spec)
	case len(parts) == 1 && ref != "":
		return RepoSpec{}, fmt.Errorf("invalid repo spec: %s@%s (a ref requires owner/repo)", spec, ref)
	case len(parts) == 1:
		return RepoSpec{Owner: parts[0]}, nil
	default:
		return RepoSpec{Owner: parts[0], Repo: parts[1], Ref: ref}, nil
	}
}
