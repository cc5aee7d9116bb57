package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// sqlitePath returns the file a sqlite DSN points at, or "" for in-memory
// databases.
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return ""
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	return path
}

// ensureSQLiteDir creates the directory holding a sqlite database file.
func ensureSQLiteDir(driver, dsn string) error {
	if driver != "sqlite" {
		return nil
	}
	path := sqlitePath(dsn)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}
