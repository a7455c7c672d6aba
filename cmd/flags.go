package cmd

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/jparise/gh-since/internal/github"
)

// colorMode represents when to use colored output.
type colorMode string

const (
	colorAuto   colorMode = "auto"
	colorAlways colorMode = "always"
	colorNever  colorMode = "never"
)

func (c *colorMode) String() string {
	return string(*c)
}

func (c *colorMode) Set(v string) error {
	switch colorMode(v) {
	case colorAuto, colorAlways, colorNever:
		*c = colorMode(v)
		return nil
	default:
		return fmt.Errorf("must be one of \"auto\", \"always\", or \"never\"")
	}
}

func (c *colorMode) Type() string {
	return "colorMode"
}

// repoTypesFlag accumulates repository classifications from one or more
// comma-separated values.
type repoTypesFlag github.RepoTypes

func (f *repoTypesFlag) String() string {
	t := github.RepoTypes(*f)
	if t == t.All() {
		return string(github.RepoTypeAll)
	}

	var names []string
	for _, sel := range []struct {
		on   bool
		name github.RepoType
	}{
		{t.Sources, github.RepoTypeSources},
		{t.Forks, github.RepoTypeForks},
		{t.Archives, github.RepoTypeArchives},
		{t.Mirrors, github.RepoTypeMirrors},
	} {
		if sel.on {
			names = append(names, string(sel.name))
		}
	}
	return strings.Join(names, ",")
}

func (f *repoTypesFlag) Set(v string) error {
	t := github.RepoTypes(*f)
	for _, name := range strings.Split(v, ",") {
		name = strings.TrimSpace(name)
		if !t.Add(github.RepoType(name)) {
			return fmt.Errorf("invalid repo type %q: must be one of sources, forks, archives, mirrors, or all", name)
		}
	}
	*f = repoTypesFlag(t)
	return nil
}

func (f *repoTypesFlag) Type() string {
	return "types"
}

// fileTypeNames maps flag values to file types. Single letters follow
// find(1)'s -type.
var fileTypeNames = map[string]github.FileType{
	"f":          github.FileTypeFile,
	"file":       github.FileTypeFile,
	"x":          github.FileTypeExecutable,
	"executable": github.FileTypeExecutable,
	"l":          github.FileTypeSymlink,
	"symlink":    github.FileTypeSymlink,
	"d":          github.FileTypeDirectory,
	"directory":  github.FileTypeDirectory,
	"s":          github.FileTypeSubmodule,
	"submodule":  github.FileTypeSubmodule,
}

type fileTypesFlag []github.FileType

func (f *fileTypesFlag) String() string {
	names := make([]string, len(*f))
	for i, t := range *f {
		names[i] = string(t)
	}
	return strings.Join(names, ",")
}

func (f *fileTypesFlag) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		t, ok := fileTypeNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return fmt.Errorf("invalid file type %q: must be one of f, x, l, d, s", name)
		}
		if !slices.Contains(*f, t) {
			*f = append(*f, t)
		}
	}
	return nil
}

func (f *fileTypesFlag) Type() string {
	return "types"
}

// parseByteSize parses a human-readable size string into bytes.
// Supports formats like "1M", "500k", "1.5G", "1024" (plain bytes).
// Units are case-insensitive and use binary (1024-based) multipliers.
func parseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	i := len(s) - 1
	for i >= 0 && !unicode.IsDigit(rune(s[i])) && s[i] != '.' {
		i--
	}

	numStr := s[:i+1]
	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", numStr, err)
	}
	if num < 0 {
		return 0, fmt.Errorf("size cannot be negative")
	}

	const unit = 1024
	multipliers := map[string]float64{
		"": 1, "b": 1,
		"k": unit, "kb": unit, "kib": unit,
		"m": unit * unit, "mb": unit * unit, "mib": unit * unit,
		"g": unit * unit * unit, "gb": unit * unit * unit, "gib": unit * unit * unit,
		"t": math.Pow(unit, 4), "tb": math.Pow(unit, 4), "tib": math.Pow(unit, 4),
		"p": math.Pow(unit, 5), "pb": math.Pow(unit, 5), "pib": math.Pow(unit, 5),
	}

	suffix := strings.ToLower(strings.TrimSpace(s[i+1:]))
	multiplier, ok := multipliers[suffix]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q (supported: b, k, m, g, t, p)", suffix)
	}

	result := num * multiplier
	if result > float64(math.MaxInt64) {
		return 0, fmt.Errorf("size too large (exceeds max int64)")
	}

	return int64(result), nil
}
