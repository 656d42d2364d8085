package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/samber/lo"
	"golang.org/x/term"

	"github.com/lain-code/lain/internal/model"
)

const (
	compactThreshold = 100 // Terminal width below which compact mode kicks in
	defaultWidth     = 120
)

var (
	datedModel   = regexp.MustCompile(`^claude-(\w+)-([\d-]+)-(\d{8})$`)
	undatedModel = regexp.MustCompile(`^claude-(\w+)-([\d-]+)$`)
)

// TableOptions controls table display behavior
type TableOptions struct {
	ForceCompact bool
}

// terminalWidth returns the current terminal width
func terminalWidth() int {
	// Check COLUMNS env var first
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if width, err := strconv.Atoi(cols); err == nil && width > 0 {
			return width
		}
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	return defaultWidth
}

// shouldUseCompact determines if compact mode should be used
func shouldUseCompact(opts TableOptions) bool {
	if opts.ForceCompact {
		return true
	}
	return terminalWidth() < compactThreshold
}

// FormatNumber formats a number with thousand separators
func FormatNumber(n int64) string {
	if n == 0 {
		return "0"
	}

	str := strconv.FormatInt(n, 10)
	negative := n < 0
	if negative {
		str = str[1:]
	}

	var b strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// FormatCost formats a cost value as currency
func FormatCost(cost float64) string {
	return fmt.Sprintf("$%.2f", cost)
}

// FormatSessionCost keeps the four places a session cost carries
func FormatSessionCost(cost float64) string {
	return fmt.Sprintf("$%.4f", cost)
}

// shortenModelName converts full model names to short form
// claude-sonnet-4-5-20250929 -> sonnet-4-5
// claude-opus-4-5 -> opus-4-5
func shortenModelName(name string) string {
	if m := datedModel.FindStringSubmatch(name); m != nil {
		return m[1] + "-" + m[2]
	}
	if m := undatedModel.FindStringSubmatch(name); m != nil {
		return m[1] + "-" + m[2]
	}
	return name
}

// shortenSessionID truncates session UUID to first 8 chars
func shortenSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newTable(w io.Writer, headers []string, leftCols int) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
		})))
	table.Header(headers)

	// Labels left, metrics right
	alignments := make([]tw.Align, len(headers))
	for i := range alignments {
		if i < leftCols {
			alignments[i] = tw.AlignLeft
		} else {
			alignments[i] = tw.AlignRight
		}
	}
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = alignments
		c.Footer.Alignment.PerColumn = alignments
	})
	return table
}

// PrintReport prints the daily model breakdown
func PrintReport(w io.Writer, rep model.DailyReport) error {
	fmt.Fprintf(w, "Report for %s (%s)\n", rep.Date, rep.Dir)
	fmt.Fprintf(w, "Files: %d  Sessions: %d  Lines: %s  API calls: %s\n\n",
		rep.FilesMatched, rep.Sessions, FormatNumber(int64(rep.Lines)), FormatNumber(int64(rep.APICalls)))

	if len(rep.Models) == 0 {
		fmt.Fprintln(w, "No model usage found.")
		return nil
	}

	table := newTable(w, []string{"Model", "Calls", "Share"}, 1)
	for _, m := range rep.Models {
		if err := table.Append([]string{
			m.Model,
			FormatNumber(int64(m.Count)),
			fmt.Sprintf("%.1f%%", m.Percent),
		}); err != nil {
			return err
		}
	}
	table.Footer([]string{"Total", FormatNumber(int64(rep.APICalls)), "100.0%"})
	return table.Render()
}

// PrintStats prints totals, the model split and the session list
func PrintStats(w io.Writer, stats model.AggregateStats, opts TableOptions) error {
	if stats.Sessions == 0 {
		fmt.Fprintf(w, "No sessions found (%d files scanned).\n", stats.FilesScanned)
		return nil
	}

	fmt.Fprintf(w, "Sessions: %d  API calls: %s  Files scanned: %d  Cost: %s\n",
		stats.Sessions, FormatNumber(int64(stats.APICalls)), stats.FilesScanned, FormatCost(stats.Cost))
	fmt.Fprintf(w, "Tokens: in %s  out %s  cache read %s  cache write %s\n\n",
		FormatNumber(stats.InputTokens), FormatNumber(stats.OutputTokens),
		FormatNumber(stats.CacheReadTokens), FormatNumber(stats.CacheCreateTokens))

	if err := printModels(w, stats.Models, stats.APICalls); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return printSessions(w, stats, shouldUseCompact(opts))
}

func printModels(w io.Writer, models map[string]int, total int) error {
	rows := lo.MapToSlice(models, func(name string, count int) model.ModelCount {
		return model.ModelCount{Model: name, Count: count}
	})
	sortModelCounts(rows)

	table := newTable(w, []string{"Model", "Calls", "Share"}, 1)
	for _, m := range rows {
		share := 0.0
		if total > 0 {
			share = float64(m.Count) / float64(total) * 100
		}
		if err := table.Append([]string{m.Model, FormatNumber(int64(m.Count)), fmt.Sprintf("%.1f%%", share)}); err != nil {
			return err
		}
	}
	return table.Render()
}

func printSessions(w io.Writer, stats model.AggregateStats, compact bool) error {
	var headers []string
	if compact {
		headers = []string{"Date", "Project", "Model", "Cost"}
	} else {
		headers = []string{"Date", "Project", "Session", "Model", "Calls", "Input", "Output", "Cache Read", "Cache Write", "Cost"}
	}
	table := newTable(w, headers, 4)

	for _, s := range stats.SessionsList {
		label := s.Title
		if label == "" {
			label = shortenSessionID(s.SessionID)
		}
		models := strings.Join(lo.Map(sortedModelNames(s.Models), func(m string, _ int) string {
			return shortenModelName(m)
		}), ", ")

		var row []string
		if compact {
			row = []string{s.Date, s.Project, models, FormatSessionCost(s.Cost)}
		} else {
			row = []string{
				s.Date,
				s.Project,
				label,
				models,
				FormatNumber(int64(s.APICalls)),
				FormatNumber(s.InputTokens),
				FormatNumber(s.OutputTokens),
				FormatNumber(s.CacheReadTokens),
				FormatNumber(s.CacheCreateTokens),
				FormatSessionCost(s.Cost),
			}
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}

	footer := make([]string, len(headers))
	footer[0] = "Total"
	footer[len(footer)-1] = FormatCost(stats.Cost)
	table.Footer(footer)
	return table.Render()
}

// PrintProjects prints the project listing
func PrintProjects(w io.Writer, projects []model.ProjectEntry) error {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return nil
	}

	table := newTable(w, []string{"Project", "Folder", "Sessions"}, 2)
	for _, p := range projects {
		if err := table.Append([]string{p.Name, p.Folder, strconv.Itoa(p.Sessions)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintJSON outputs v as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
