// Package report builds the daily model-usage report. Files are selected by
// filesystem modification date, not by the timestamps recorded inside them.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lain-code/lain/internal/model"
	"github.com/lain-code/lain/internal/parser"
)

const dateLayout = "2006-01-02"

// line is the subset of a log record the report reads
type line struct {
	SessionID parser.OptString `json:"sessionId"`
	Message   json.RawMessage  `json:"message"`
}

type messageModel struct {
	Model parser.OptString `json:"model"`
}

// NormalizeDate accepts YYYYMMDD or YYYY-MM-DD and returns YYYY-MM-DD
func NormalizeDate(raw string) (string, error) {
	compact := strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
	t, err := time.Parse("20060102", compact)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, use YYYYMMDD", raw)
	}
	return t.Format(dateLayout), nil
}

// Yesterday returns the calendar day before now in now's location
func Yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(dateLayout)
}

// Daily scans every log file under root whose modification date in loc equals
// date and reports line, session, and per-model call counts.
func Daily(root, date string, loc *time.Location, logger *slog.Logger) model.DailyReport {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	report := model.DailyReport{Date: date, Dir: root, Models: []model.ModelCount{}}
	sessions := make(map[string]struct{})
	models := make(map[string]int)

	for _, path := range parser.FindLogFiles(root) {
		info, err := os.Stat(path)
		if err != nil {
			logger.Debug("skipping log", "path", path, "error", err)
			continue
		}
		if info.ModTime().In(loc).Format(dateLayout) != date {
			continue
		}

		report.FilesMatched++
		err = parser.EachLine(path, func(raw []byte) bool {
			report.Lines++

			var l line
			if err := json.Unmarshal(raw, &l); err != nil {
				return true
			}
			if l.SessionID != "" {
				sessions[string(l.SessionID)] = struct{}{}
			}
			var msg messageModel
			if len(l.Message) > 0 && l.Message[0] == '{' && json.Unmarshal(l.Message, &msg) == nil && msg.Model != "" {
				models[string(msg.Model)]++
			}
			return true
		})
		if err != nil {
			logger.Debug("log read failed", "path", path, "error", err)
		}
	}

	report.Sessions = len(sessions)
	report.APICalls = lo.Sum(lo.Values(models))
	report.Models = breakdown(models, report.APICalls)
	return report
}

// breakdown sorts model counts by count descending, then name
func breakdown(models map[string]int, total int) []model.ModelCount {
	rows := lo.MapToSlice(models, func(m string, c int) model.ModelCount {
		row := model.ModelCount{Model: m, Count: c}
		if total > 0 {
			row.Percent = float64(c) / float64(total) * 100
		}
		return row
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Model < rows[j].Model
	})
	return rows
}
