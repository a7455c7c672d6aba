package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// historyBatchSize is the number of paths looked up per GraphQL request.
const historyBatchSize = 100

type historyNodes struct {
	Nodes []struct {
		CommittedDate time.Time `json:"committedDate"`
	} `json:"nodes"`
}

// GetFileCommitDates returns the date of the last commit touching each path
// at the repository's branch. Paths without history are omitted; the rest
// keep their input order.
func (c *Client) GetFileCommitDates(ctx context.Context, repo Repository, paths []string) ([]FileCommitInfo, error) {
	results := make([]FileCommitInfo, 0, len(paths))

	for start := 0; start < len(paths); start += historyBatchSize {
		batch := paths[start:min(start+historyBatchSize, len(paths))]

		dates, err := c.commitDateBatch(ctx, repo, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch commit dates for %s: %w", repo.FullName, err)
		}
		results = append(results, dates...)
	}

	return results, nil
}

func (c *Client) commitDateBatch(ctx context.Context, repo Repository, paths []string) ([]FileCommitInfo, error) {
	var response struct {
		Repository struct {
			Object map[string]historyNodes `json:"object"`
		} `json:"repository"`
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ref := repo.Branch()
	query := fileHistoryQuery(repo.Owner, repo.Name, ref, paths)
	if err := c.graphql.DoWithContext(ctx, query, nil, &response); err != nil {
		return nil, err
	}

	// object(expression:) is null when the ref does not resolve.
	if response.Repository.Object == nil {
		return nil, fmt.Errorf("ref %q not found", ref)
	}

	dates := make([]FileCommitInfo, 0, len(paths))
	for i, path := range paths {
		history := response.Repository.Object[historyAlias(i)]
		if len(history.Nodes) == 0 {
			continue
		}
		dates = append(dates, FileCommitInfo{
			Path:          path,
			CommittedDate: history.Nodes[0].CommittedDate,
		})
	}
	return dates, nil
}

func historyAlias(i int) string {
	return fmt.Sprintf("h%d", i)
}

// fileHistoryQuery asks for the newest commit of each path, one aliased
// history connection per path. The ref is resolved with object(expression:)
// so branches, lightweight tags and commit SHAs all work:
//
//	{repository(owner:"o",name:"r"){object(expression:"main"){...on Commit{
//	  h0:history(first:1,path:"a.go"){nodes{committedDate}}
//	  h1:history(first:1,path:"b.go"){nodes{committedDate}}
//	}}}}
func fileHistoryQuery(owner, repo, ref string, paths []string) string {
	var b strings.Builder
	b.Grow(128 + 64*len(paths))

	fmt.Fprintf(&b, "{repository(owner:%s,name:%s){object(expression:%s){...on Commit{",
		graphQLString(owner), graphQLString(repo), graphQLString(ref))
	for i, path := range paths {
		fmt.Fprintf(&b, "%s:history(first:1,path:%s){nodes{committedDate}}", historyAlias(i), graphQLString(path))
	}
	b.WriteString("}}}}")

	return b.String()
}

// graphQLString quotes s as a GraphQL string literal. JSON string syntax is
// a subset of GraphQL's.
func graphQLString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}
