// Package migrate brings the bidline database schema up to date from SQL
// files embedded in the binary. The applied schema version is tracked in
// SQLite's user_version pragma, so the database carries no bookkeeping
// table of its own.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var schemaFS embed.FS

// step is one embedded schema change, named NNNN_description.sql.
type step struct {
	version int
	name    string
	ddl     string
}

func loadSteps() ([]step, error) {
	entries, err := schemaFS.ReadDir("sql")
	if err != nil {
		return nil, err
	}
	steps := make([]step, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("schema file %s: want NNNN_description.sql", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("schema file %s: bad version prefix %q", name, prefix)
		}
		ddl, err := schemaFS.ReadFile("sql/" + name)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step{version: version, name: name, ddl: string(ddl)})
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	for i := 1; i < len(steps); i++ {
		if steps[i].version == steps[i-1].version {
			return nil, fmt.Errorf("duplicate schema version %d (%s, %s)", steps[i].version, steps[i-1].name, steps[i].name)
		}
	}
	return steps, nil
}

// Version reports the schema version the database is currently at.
func Version(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow(`PRAGMA user_version`).Scan(&v)
	return v, err
}

// Migrate applies every pending schema step in order. Each step runs in its
// own transaction together with the user_version bump, so an interrupted
// migration leaves the database at the last completed step.
func Migrate(db *sql.DB) error {
	steps, err := loadSteps()
	if err != nil {
		return err
	}
	current, err := Version(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for _, s := range steps {
		if s.version <= current {
			continue
		}
		if err := apply(db, s); err != nil {
			return err
		}
		current = s.version
	}
	return nil
}

func apply(db *sql.DB, s step) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(s.ddl); err != nil {
		return fmt.Errorf("schema step %s: %w", s.name, err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, s.version)); err != nil {
		return fmt.Errorf("schema step %s: record version: %w", s.name, err)
	}
	return tx.Commit()
}
