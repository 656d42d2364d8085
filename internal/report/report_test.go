package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, root, rel string, mtime time.Time, lines ...string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestDaily(t *testing.T) {
	root := t.TempDir()
	day := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)

	writeLog(t, root, "p1/a.jsonl", day,
		`{"sessionId":"s1","type":"user","message":{"role":"user"}}`,
		`{"sessionId":"s1","type":"assistant","message":{"model":"claude-opus-4-1"}}`,
		`{"sessionId":"s1","type":"assistant","message":{"model":"claude-opus-4-1"}}`,
		"",
		"not json",
	)
	writeLog(t, root, "p2/nested/b.jsonl", day.Add(3*time.Hour),
		`{"sessionId":"s2","message":{"model":"claude-haiku-4-5"}}`,
		`{"sessionId":"s1","message":"plain string"}`,
	)
	// Content says July 4th, but the file was last touched the next day
	writeLog(t, root, "p1/c.jsonl", day.Add(24*time.Hour),
		`{"sessionId":"s3","timestamp":"2025-07-04T10:00:00Z","message":{"model":"claude-opus-4-1"}}`,
	)

	r := Daily(root, "2025-07-04", time.UTC, nil)

	assert.Equal(t, "2025-07-04", r.Date)
	assert.Equal(t, 2, r.FilesMatched)
	assert.Equal(t, 2, r.Sessions)
	assert.Equal(t, 6, r.Lines)
	assert.Equal(t, 3, r.APICalls)
	require.Len(t, r.Models, 2)
	assert.Equal(t, "claude-opus-4-1", r.Models[0].Model)
	assert.Equal(t, 2, r.Models[0].Count)
	assert.InDelta(t, 66.666, r.Models[0].Percent, 0.01)
	assert.Equal(t, "claude-haiku-4-5", r.Models[1].Model)
	assert.InDelta(t, 33.333, r.Models[1].Percent, 0.01)
}

func TestDaily_UsesLocation(t *testing.T) {
	root := t.TempDir()
	// 23:30 UTC is already the next day in Tokyo
	writeLog(t, root, "p/a.jsonl", time.Date(2025, 7, 4, 23, 30, 0, 0, time.UTC),
		`{"message":{"model":"claude-opus-4"}}`)

	tokyo := time.FixedZone("JST", 9*60*60)

	assert.Equal(t, 1, Daily(root, "2025-07-04", time.UTC, nil).FilesMatched)
	assert.Equal(t, 0, Daily(root, "2025-07-04", tokyo, nil).FilesMatched)
	assert.Equal(t, 1, Daily(root, "2025-07-05", tokyo, nil).FilesMatched)
}

func TestDaily_NoMatches(t *testing.T) {
	r := Daily(filepath.Join(t.TempDir(), "missing"), "2025-01-01", time.UTC, nil)

	assert.Equal(t, 0, r.FilesMatched)
	assert.Equal(t, 0, r.APICalls)
	assert.NotNil(t, r.Models)
	assert.Empty(t, r.Models)
}

func TestBreakdown_TieOrder(t *testing.T) {
	rows := breakdown(map[string]int{"b": 2, "a": 2, "c": 4}, 8)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{rows[0].Model, rows[1].Model, rows[2].Model})
	assert.Equal(t, 50.0, rows[0].Percent)
	assert.Equal(t, 25.0, rows[1].Percent)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"20250704", "2025-07-04", false},
		{"2025-07-04", "2025-07-04", false},
		{" 2025-07-04 ", "2025-07-04", false},
		{"2025-7-4", "", true},
		{"20251304", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeDate(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestYesterday(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-02-28", Yesterday(now))
}

func TestDaily_MistypedSessionIDStillCountsModel(t *testing.T) {
	root := t.TempDir()
	day := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	writeLog(t, root, "p/a.jsonl", day,
		`{"sessionId":7,"message":{"model":"claude-opus-4-1"}}`,
	)

	rep := Daily(root, "2025-07-04", time.UTC, nil)
	assert.Equal(t, 0, rep.Sessions)
	assert.Equal(t, 1, rep.APICalls)
	require.Len(t, rep.Models, 1)
	assert.Equal(t, "claude-opus-4-1", rep.Models[0].Model)
}
