package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jparise/gh-since/internal/github"
	"github.com/jparise/gh-since/internal/timeparse"
	"github.com/rs/zerolog"
)

// Lister lists an owner's repositories. *github.Client satisfies it.
type Lister interface {
	ListRepos(ctx context.Context, owner string, types github.RepoTypes) ([]github.Repository, error)
}

// Indexer copies repository listings into a Store.
type Indexer struct {
	lister Lister
	store  *Store
	clock  timeparse.Clock
	types  github.RepoTypes
	log    zerolog.Logger
}

// NewIndexer creates an Indexer. A nil clock uses timeparse.SystemClock.
func NewIndexer(lister Lister, store *Store, clock timeparse.Clock, types github.RepoTypes, log zerolog.Logger) *Indexer {
	if clock == nil {
		clock = timeparse.SystemClock
	}
	return &Indexer{
		lister: lister,
		store:  store,
		clock:  clock,
		types:  types,
		log:    log,
	}
}

// Index lists and saves each owner's repositories, stamping them with the
// current time. Owners that fail are logged and skipped; the returned error
// joins every failure. The count is the number of repositories saved.
func (ix *Indexer) Index(ctx context.Context, owners ...string) (int, error) {
	var (
		total int
		errs  []error
	)

	log := ix.log.With().Str("run_id", uuid.NewString()).Logger()

	for _, owner := range owners {
		n, err := ix.indexOwner(ctx, log, owner)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			log.Error().Err(err).Str("owner", owner).Msg("index failed")
			errs = append(errs, err)
			continue
		}
		total += n
	}

	return total, errors.Join(errs...)
}

func (ix *Indexer) indexOwner(ctx context.Context, log zerolog.Logger, owner string) (int, error) {
	repos, err := ix.lister.ListRepos(ctx, owner, ix.types)
	if err != nil {
		return 0, err
	}

	now := ix.clock.Now().UTC()
	entries := make([]Entry, len(repos))
	for i, r := range repos {
		entries[i] = Entry{
			Owner:         r.Owner,
			Name:          r.Name,
			FullName:      r.FullName,
			DefaultBranch: r.DefaultBranch,
			Fork:          r.Fork,
			Archived:      r.Archived,
			PushedAt:      r.PushedAt,
			IndexedAt:     now,
		}
	}

	if err := ix.store.Save(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to save repositories for %s: %w", owner, err)
	}

	log.Info().Str("owner", owner).Int("repos", len(entries)).Time("indexed_at", now).Msg("indexed")
	return len(entries), nil
}
