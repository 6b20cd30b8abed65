package todo

import (
	"fmt"
	"path/filepath"
)

// NewStore creates a Store at baseDir using the configured driver: "file"
// (default) keeps one directory per todo, "sqlite" keeps a single database.
func NewStore(driver, baseDir string) (Store, error) {
	switch driver {
	case "", "file":
		return NewFileStore(filepath.Join(baseDir, "todos")), nil
	case "sqlite":
		return NewSQLiteStore(filepath.Join(baseDir, "todos.db"))
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", driver)
	}
}
