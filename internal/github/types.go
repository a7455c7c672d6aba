package github

import (
	"encoding/json"
	"time"
)

// Repository represents a GitHub repository.
type Repository struct {
	Owner         string
	Name          string
	FullName      string // owner/name
	DefaultBranch string
	Ref           string // branch, tag or SHA to search (empty means DefaultBranch)
	Size          int64  // KB; zero for repositories without commits
	Fork          bool
	Archived      bool
	MirrorURL     string
	PushedAt      *time.Time // nil when GitHub has never recorded a push
}

type repositoryJSON struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
	DefaultBranch string     `json:"default_branch"`
	Size          int64      `json:"size"`
	Fork          bool       `json:"fork"`
	Archived      bool       `json:"archived"`
	MirrorURL     string     `json:"mirror_url"`
	PushedAt      *time.Time `json:"pushed_at"`
}

// UnmarshalJSON decodes the REST API representation, flattening the
// nested owner object.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var raw repositoryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Repository{
		Owner:         raw.Owner.Login,
		Name:          raw.Name,
		FullName:      raw.FullName,
		DefaultBranch: raw.DefaultBranch,
		Size:          raw.Size,
		Fork:          raw.Fork,
		Archived:      raw.Archived,
		MirrorURL:     raw.MirrorURL,
		PushedAt:      raw.PushedAt,
	}
	return nil
}

// Branch returns the ref to search: Ref when set, otherwise DefaultBranch.
func (r Repository) Branch() string {
	if r.Ref != "" {
		return r.Ref
	}
	return r.DefaultBranch
}

// TreeEntry represents a file or directory in a Git tree.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"` // blob, tree, commit
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// TreeResponse represents the GitHub API tree response.
type TreeResponse struct {
	SHA       string      `json:"sha"`
	URL       string      `json:"url"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// FileCommitInfo holds the most recent commit date for a path.
type FileCommitInfo struct {
	Path          string
	CommittedDate time.Time
}

// RepoType represents a GitHub repository classification.
type RepoType string

const (
	RepoTypeSources  RepoType = "sources"
	RepoTypeForks    RepoType = "forks"
	RepoTypeArchives RepoType = "archives"
	RepoTypeMirrors  RepoType = "mirrors"
	RepoTypeAll      RepoType = "all"
)

// RepoTypes selects which repository classifications to include.
type RepoTypes struct {
	Sources  bool
	Forks    bool
	Archives bool
	Mirrors  bool
}

// All returns a RepoTypes with every classification selected.
func (RepoTypes) All() RepoTypes {
	return RepoTypes{Sources: true, Forks: true, Archives: true, Mirrors: true}
}

// Add selects the named classification. It reports false for unknown names.
func (t *RepoTypes) Add(rt RepoType) bool {
	switch rt {
	case RepoTypeSources:
		t.Sources = true
	case RepoTypeForks:
		t.Forks = true
	case RepoTypeArchives:
		t.Archives = true
	case RepoTypeMirrors:
		t.Mirrors = true
	case RepoTypeAll:
		*t = t.All()
	default:
		return false
	}
	return true
}

// FileType classifies a tree entry by its Git file mode.
type FileType string

const (
	FileTypeFile       FileType = "file"
	FileTypeExecutable FileType = "executable"
	FileTypeSymlink    FileType = "symlink"
	FileTypeDirectory  FileType = "directory"
	FileTypeSubmodule  FileType = "submodule"
)

// ParseFileType maps a Git file mode to a FileType. Unknown modes are
// treated as regular files.
func ParseFileType(mode string) FileType {
	switch mode {
	case "100755":
		return FileTypeExecutable
	case "120000":
		return FileTypeSymlink
	case "040000":
		return FileTypeDirectory
	case "160000":
		return FileTypeSubmodule
	default:
		return FileTypeFile
	}
}
