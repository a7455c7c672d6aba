package catalog

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/jparise/gh-since/internal/timeparse"
	"github.com/jparise/gh-since/internal/timerange"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func at(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.FullName
	}
	return out
}

// seed stores three repositories indexed on 2024-01-15, 2024-06-01 and
// 2024-12-01, plus one that was never pushed.
func seed(t *testing.T, s *Store) {
	t.Helper()
	entries := []Entry{
		{Owner: "octocat", Name: "january", DefaultBranch: "main", PushedAt: ptr(at("2024-01-10")), IndexedAt: at("2024-01-15")},
		{Owner: "octocat", Name: "june", DefaultBranch: "main", PushedAt: ptr(at("2024-05-20")), IndexedAt: at("2024-06-01")},
		{Owner: "hubot", Name: "december", DefaultBranch: "trunk", Fork: true, PushedAt: ptr(at("2024-11-30")), IndexedAt: at("2024-12-01")},
		{Owner: "hubot", Name: "empty", DefaultBranch: "main", Archived: true, IndexedAt: at("2024-06-01")},
	}
	if err := s.Save(context.Background(), entries); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	s := openTestStore(t)

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='repositories'").Scan(&name)
	if err != nil {
		t.Fatalf("repositories table not created: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := t.TempDir() + "/catalog.db"

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	seed(t, s)
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	entries, err := s.List(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("List() after reopen returned %d entries, want 4", len(entries))
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	entries, err := s.List(context.Background(), Query{Owner: "hubot"})
	if err != nil {
		t.Fatal(err)
	}

	want := []Entry{
		{FullName: "hubot/december", Owner: "hubot", Name: "december", DefaultBranch: "trunk", Fork: true,
			PushedAt: ptr(at("2024-11-30")), IndexedAt: at("2024-12-01")},
		{FullName: "hubot/empty", Owner: "hubot", Name: "empty", DefaultBranch: "main", Archived: true,
			IndexedAt: at("2024-06-01")},
	}
	if len(entries) != len(want) {
		t.Fatalf("List() = %v, want %v", names(entries), names(want))
	}
	for i := range want {
		got := entries[i]
		if got.FullName != want[i].FullName || got.DefaultBranch != want[i].DefaultBranch ||
			got.Fork != want[i].Fork || got.Archived != want[i].Archived ||
			!got.IndexedAt.Equal(want[i].IndexedAt) {
			t.Errorf("entry %d = %+v, want %+v", i, got, want[i])
		}
		if (got.PushedAt == nil) != (want[i].PushedAt == nil) ||
			(got.PushedAt != nil && !got.PushedAt.Equal(*want[i].PushedAt)) {
			t.Errorf("entry %d PushedAt = %v, want %v", i, got.PushedAt, want[i].PushedAt)
		}
	}
}

func TestSaveUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seed(t, s)

	update := Entry{Owner: "octocat", Name: "january", DefaultBranch: "develop", IndexedAt: at("2025-01-01")}
	if err := s.Save(ctx, []Entry{update}); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List(ctx, Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("List() returned %d entries, want 4", len(entries))
	}
	first := entries[0]
	if first.FullName != "octocat/january" || first.DefaultBranch != "develop" || first.PushedAt != nil {
		t.Errorf("upserted entry = %+v", first)
	}
}

func TestListIndexedRange(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	res := timeparse.NewResolver(timeparse.WithClock(timeparse.FixedClock(at("2025-01-01"))))
	r, err := timerange.Parse(res, "2024-05-01", "2024-11-01")
	if err != nil {
		t.Fatal(err)
	}

	entries, err := s.List(context.Background(), Query{Indexed: r})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := names(entries), []string{"hubot/empty", "octocat/june"}; !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestListBoundsInclusive(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	entries, err := s.List(context.Background(), Query{
		Indexed: timerange.Range{Start: ptr(at("2024-01-15")), End: ptr(at("2024-06-01"))},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := names(entries), []string{"hubot/empty", "octocat/june", "octocat/january"}; !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestListActiveExcludesNeverPushed(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{
			name: "start only",
			q:    Query{Active: timerange.Range{Start: ptr(at("2024-05-01"))}},
			want: []string{"hubot/december", "octocat/june"},
		},
		{
			name: "end only",
			q:    Query{Active: timerange.Range{End: ptr(at("2024-06-01"))}},
			want: []string{"octocat/june", "octocat/january"},
		},
		{
			name: "unbounded includes never pushed",
			q:    Query{},
			want: []string{"hubot/december", "hubot/empty", "octocat/june", "octocat/january"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.List(context.Background(), tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if got := names(entries); !slices.Equal(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListDistantBounds(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	all := []string{"hubot/december", "hubot/empty", "octocat/june", "octocat/january"}
	pushed := []string{"hubot/december", "octocat/june", "octocat/january"}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{
			name: "active before far future",
			q:    Query{Active: timerange.Range{End: ptr(at("3000-01-01"))}},
			want: pushed,
		},
		{
			name: "active after far past",
			q:    Query{Active: timerange.Range{Start: ptr(at("1600-01-01"))}},
			want: pushed,
		},
		{
			name: "indexed across the whole calendar",
			q:    Query{Indexed: timerange.Range{Start: ptr(at("0001-01-01")), End: ptr(at("9999-12-31"))}},
			want: all,
		},
		{
			name: "indexed after far future",
			q:    Query{Indexed: timerange.Range{Start: ptr(at("2500-01-01"))}},
			want: nil,
		},
		{
			name: "active before far past",
			q:    Query{Active: timerange.Range{End: ptr(at("1500-01-01"))}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.List(context.Background(), tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if got := names(entries); !slices.Equal(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnixNanosSaturates(t *testing.T) {
	ordered := []time.Time{
		at("0001-01-01"),
		at("1600-01-01"),
		at("1970-01-01"),
		at("2024-06-01"),
		at("3000-01-01"),
		at("9999-12-31"),
	}
	for i := 1; i < len(ordered); i++ {
		if unixNanos(ordered[i-1]) > unixNanos(ordered[i]) {
			t.Errorf("unixNanos(%v) > unixNanos(%v)", ordered[i-1], ordered[i])
		}
	}
	if got := unixNanos(at("2024-06-01")); got != at("2024-06-01").UnixNano() {
		t.Errorf("unixNanos(2024-06-01) = %d, want %d", got, at("2024-06-01").UnixNano())
	}
}

func TestListOwnerAndLimit(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)

	entries, err := s.List(context.Background(), Query{Owner: "OctoCat", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := names(entries), []string{"octocat/june"}; !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestSaveEmpty(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(context.Background(), nil); err != nil {
		t.Errorf("Save(nil) error = %v", err)
	}
}

func TestListClosed(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := s.List(context.Background(), Query{}); err == nil {
		t.Error("List() on closed store expected error")
	}
}
