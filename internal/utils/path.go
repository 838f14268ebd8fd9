package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// IsPostgresConnString reports whether s names a PostgreSQL database rather
// than a SQLite file. Both URLs and key=value DSNs are recognized.
func IsPostgresConnString(s string) bool {
	if strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://") {
		return true
	}
	for _, field := range strings.Fields(s) {
		if strings.HasPrefix(field, "host=") || strings.HasPrefix(field, "dbname=") {
			return true
		}
	}
	return false
}
