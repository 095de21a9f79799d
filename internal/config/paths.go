package config

import (
	"os"
	"path/filepath"
	"strings"
)

// baseDir is the directory relative runtime paths are anchored to: the
// executable's directory, or the working directory when that is unknown.
func baseDir() string {
	if exe, err := os.Executable(); err == nil && exe != "" {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// resolvePath anchors a relative path under baseDir. An empty raw value uses
// fallback.
func resolvePath(raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = fallback
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(baseDir(), target)
}

// sqlitePath resolves a sqlite database file. In-memory and URI forms are
// passed through.
func sqlitePath(raw string) string {
	if raw == ":memory:" || strings.HasPrefix(raw, "file:") {
		return raw
	}
	return resolvePath(raw, defaultSQLitePath)
}
