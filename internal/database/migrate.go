package database

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"

	"github.com/cockroachdb/errors"
)

//go:embed schema.sql
var schema string

// Migrate applies the embedded schema.  Every statement is CREATE ... IF
// NOT EXISTS, so running it against an existing database is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "schema statement %d", i+1)
		}
	}
	return nil
}

// Statements splits the schema into executable statements, dropping
// comment-only lines.
func Statements() []string {
	var lines []string
	for _, l := range strings.Split(schema, "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		lines = append(lines, l)
	}
	var out []string
	for _, s := range strings.Split(strings.Join(lines, "\n"), ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
