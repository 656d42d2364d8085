package aggregator

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lain-code/lain/internal/model"
	"github.com/lain-code/lain/internal/parser"
	"github.com/lain-code/lain/internal/pricing"
	"github.com/lain-code/lain/internal/project"
)

// DateLayout is the format of stats date bounds and session dates
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned for a date bound not in YYYY-MM-DD form
var ErrInvalidDate = errors.New("invalid date, use YYYY-MM-DD")

// StatsOptions filters the stats operation. Empty fields are unbounded.
type StatsOptions struct {
	Projects []string
	Start    string
	End      string
}

// ParseStatsOptions builds options from raw query values
func ParseStatsOptions(projects, start, end string) (StatsOptions, error) {
	opts := StatsOptions{
		Start: strings.TrimSpace(start),
		End:   strings.TrimSpace(end),
	}

	if projects != "" {
		parts := lo.Map(strings.Split(projects, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		})
		opts.Projects = lo.Uniq(lo.Compact(parts))
	}

	for _, d := range []string{opts.Start, opts.End} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, d); err != nil {
			return StatsOptions{}, fmt.Errorf("%w: %q", ErrInvalidDate, d)
		}
	}

	return opts, nil
}

// includesDate reports whether date falls inside the inclusive bounds.
// Sessions without a date are never filtered out.
func (o StatsOptions) includesDate(date string) bool {
	if date == "" {
		return true
	}
	if o.Start != "" && date < o.Start {
		return false
	}
	if o.End != "" && date > o.End {
		return false
	}
	return true
}

// Aggregator computes project listings and usage stats from a data directory.
// It holds no mutable state; every call rescans the filesystem.
type Aggregator struct {
	root     string
	resolver *project.Resolver
	logger   *slog.Logger
}

// New creates an aggregator over root
func New(root string, resolver *project.Resolver, logger *slog.Logger) *Aggregator {
	if resolver == nil {
		resolver = project.NewResolver()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{root: root, resolver: resolver, logger: logger}
}

// Root returns the data directory
func (a *Aggregator) Root() string {
	return a.root
}

type projectDir struct {
	folder string
	files  []string
}

// projectDirs returns the subdirectories of root holding at least one log
// file, sorted by folder name. A missing or unreadable root yields nothing.
func (a *Aggregator) projectDirs() []projectDir {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warn("cannot read data directory", "dir", a.root, "error", err)
		}
		return nil
	}

	var dirs []projectDir
	for _, entry := range entries {
		dir := filepath.Join(a.root, entry.Name())
		if entry.Type()&fs.ModeSymlink != 0 {
			// Follow links to directories
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
		} else if !entry.IsDir() {
			continue
		}
		files := parser.FindLogFiles(dir)
		if len(files) == 0 {
			continue
		}
		dirs = append(dirs, projectDir{folder: entry.Name(), files: files})
	}

	// os.ReadDir already sorts by name
	return dirs
}

// Projects lists project folders with their display names and file counts
func (a *Aggregator) Projects() []model.ProjectEntry {
	projects := []model.ProjectEntry{}
	for _, d := range a.projectDirs() {
		projects = append(projects, model.ProjectEntry{
			Folder:   d.folder,
			Name:     a.resolver.Resolve(d.folder, d.files),
			Sessions: len(d.files),
		})
	}
	return projects
}

// Stats aggregates every session under the selected folders and date range
func (a *Aggregator) Stats(opts StatsOptions) model.AggregateStats {
	stats := model.AggregateStats{
		Models:       make(map[string]int),
		SessionsList: []model.SessionSummary{},
	}

	selected := lo.SliceToMap(opts.Projects, func(p string) (string, struct{}) {
		return p, struct{}{}
	})

	var usage model.TokenUsage
	var rawCost float64

	for _, d := range a.projectDirs() {
		if len(selected) > 0 {
			if _, ok := selected[d.folder]; !ok {
				continue
			}
		}

		name := a.resolver.Resolve(d.folder, d.files)

		for _, path := range d.files {
			stats.FilesScanned++

			session, err := parser.ParseSession(path)
			if err != nil {
				a.logger.Debug("skipping unreadable log", "path", path, "error", err)
				continue
			}
			if session == nil || !opts.includesDate(session.Date) {
				continue
			}

			for m, c := range session.Models {
				stats.Models[m] += c
			}
			usage.Add(session.Usage())
			rawCost += session.RawCost

			session.Project = name
			session.ProjectFolder = d.folder
			stats.SessionsList = append(stats.SessionsList, *session)
		}
	}

	// Newest first; sessions without a timestamp compare as "" and sort last
	sort.SliceStable(stats.SessionsList, func(i, j int) bool {
		return stats.SessionsList[i].FirstTS > stats.SessionsList[j].FirstTS
	})

	stats.APICalls = lo.Sum(lo.Values(stats.Models))
	stats.Sessions = len(stats.SessionsList)
	stats.InputTokens = usage.InputTokens
	stats.OutputTokens = usage.OutputTokens
	stats.CacheReadTokens = usage.CacheReadInputTokens
	stats.CacheCreateTokens = usage.CacheCreationInputTokens
	stats.Cost = pricing.Round(rawCost, 2)

	return stats
}
