package parser

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LogExt is the extension of session log files
const LogExt = ".jsonl"

// FindLogFiles returns all log files under dir, recursively, in lexical order.
// A symlinked dir is resolved first; links below it are not followed.
// Unreadable subdirectories are skipped.
func FindLogFiles(dir string) []string {
	if info, err := os.Lstat(dir); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			dir = resolved
		}
	}

	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == LogExt {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// EachLine calls fn with every non-blank, whitespace-trimmed line of the file
// at path until fn returns false. Lines have no length limit.
func EachLine(path string, fn func(line []byte) bool) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if !fn(trimmed) {
				return nil
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// ReadCWD returns the first non-empty cwd recorded in the given files, trying
// them in order. Malformed lines and unreadable files are skipped.
func ReadCWD(files []string) string {
	for _, path := range files {
		var cwd string
		err := EachLine(path, func(line []byte) bool {
			env, err := decodeLine(line)
			if err != nil {
				return true
			}
			cwd = string(env.CWD)
			return cwd == ""
		})
		if err != nil {
			continue
		}
		if cwd != "" {
			return cwd
		}
	}
	return ""
}
