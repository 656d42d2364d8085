package project

import (
	"strings"

	"github.com/lain-code/lain/internal/parser"
)

// homePrefixes are stripped together with the username segment that follows
var homePrefixes = []string{"/home/", "/Users/"}

// DefaultPrefixes are the leading path segments stripped from a working
// directory after the home prefix, first match wins.
var DefaultPrefixes = []string{
	"/.claude/projects/",
	"/git/",
	"/src/",
	"/code/",
	"/repos/",
	"/Documents/",
	"/",
}

// FriendlyName derives a short display name from a recorded working directory.
// An empty cwd, or one that strips down to nothing, yields the folder name.
func FriendlyName(cwd, folder string, prefixes []string) string {
	if cwd == "" {
		return folder
	}

	path := cwd
	for _, hp := range homePrefixes {
		if strings.HasPrefix(path, hp) {
			rest := path[len(hp):]
			if slash := strings.Index(rest, "/"); slash >= 0 {
				path = rest[slash:]
			} else {
				path = ""
			}
			break
		}
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			path = path[len(prefix):]
			break
		}
	}

	if path == "" {
		return folder
	}
	return path
}

// Resolver maps project folders to display names
type Resolver struct {
	prefixes []string
}

// NewResolver creates a resolver that tries extra prefixes before the defaults
func NewResolver(extra ...string) *Resolver {
	prefixes := make([]string, 0, len(extra)+len(DefaultPrefixes))
	for _, p := range extra {
		if p != "" {
			prefixes = append(prefixes, p)
		}
	}
	prefixes = append(prefixes, DefaultPrefixes...)
	return &Resolver{prefixes: prefixes}
}

// Name returns the display name for a cwd found in the given folder
func (r *Resolver) Name(cwd, folder string) string {
	return FriendlyName(cwd, folder, r.prefixes)
}

// Resolve reads the first recorded cwd from files and derives the display name
func (r *Resolver) Resolve(folder string, files []string) string {
	return r.Name(parser.ReadCWD(files), folder)
}
