package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-cardgateway/app/factory"
)

//go:embed *.sql
var embedded embed.FS

// Files returns the schema migrations shipped with the binary.
func Files() fs.FS {
	return embedded
}

// Runner applies "-- +migrate Up" / "-- +migrate Down" sections and tracks them in schema_migrations.
type Runner struct {
	db     *sql.DB
	files  fs.FS
	logger logrus.FieldLogger
}

func NewRunner(db *sql.DB, files fs.FS) *Runner {
	return &Runner{db: db, files: files, logger: factory.NewModuleLogger("migrations")}
}

func (r *Runner) Up(ctx context.Context) error {
	if err := r.ensureTable(ctx); err != nil {
		return err
	}
	versions, err := r.versions()
	if err != nil {
		return err
	}

	for _, version := range versions {
		var applied int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", version, err)
		}
		if applied > 0 {
			r.logger.WithField("version", version).Debug("Migration already applied")
			continue
		}

		content, err := fs.ReadFile(r.files, version)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", version, err)
		}
		if err := r.exec(ctx, extractSection(string(content), "Up")); err != nil {
			return fmt.Errorf("migration %s failed: %w", version, err)
		}
		if _, err := r.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", version, err)
		}
		r.logger.WithField("version", version).Info("Migration applied")
	}
	return nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down(ctx context.Context) error {
	if err := r.ensureTable(ctx); err != nil {
		return err
	}

	var version string
	err := r.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		r.logger.Info("No migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find last migration: %w", err)
	}

	content, err := fs.ReadFile(r.files, version)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", version, err)
	}
	if err := r.exec(ctx, extractSection(string(content), "Down")); err != nil {
		return fmt.Errorf("rollback %s failed: %w", version, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, version); err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", version, err)
	}
	r.logger.WithField("version", version).Info("Migration rolled back")
	return nil
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) NOT NULL PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}
	return nil
}

func (r *Runner) versions() ([]string, error) {
	versions, err := fs.Glob(r.files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(versions)
	return versions, nil
}

// exec runs each statement on its own; the MySQL driver rejects multi-statement strings by default.
func (r *Runner) exec(ctx context.Context, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func extractSection(content, section string) string {
	var part strings.Builder
	inPart := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "-- +migrate") {
			inPart = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-- +migrate")) == section
			continue
		}
		if inPart {
			part.WriteString(line)
			part.WriteString("\n")
		}
	}
	return part.String()
}

func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
