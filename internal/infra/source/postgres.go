package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
)

// PostgresSource exports a table or view as CSV with COPY, so the loader
// sees the same shape a file export would have. The location is a table
// name, optionally schema-qualified.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource constructs the adapter.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Fetch implements survey.Source.
func (s *PostgresSource) Fetch(ctx context.Context, ref survey.SourceRef) ([]byte, error) {
	stmt, err := copyStatement(ref.Location)
	if err != nil {
		return nil, err
	}
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire postgres connection: %w", err)
	}
	defer conn.Release()

	var buf bytes.Buffer
	if _, err := conn.Conn().PgConn().CopyTo(ctx, &buf, stmt); err != nil {
		return nil, fmt.Errorf("copy survey table: %w", err)
	}
	return buf.Bytes(), nil
}

func copyStatement(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", fmt.Errorf("postgres table cannot be empty")
	}
	parts := strings.Split(location, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("postgres table %q must be table or schema.table", location)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return "", fmt.Errorf("postgres table %q has an empty identifier", location)
		}
	}
	ident := pgx.Identifier(parts).Sanitize()
	return "COPY (SELECT * FROM " + ident + ") TO STDOUT WITH (FORMAT csv, HEADER true)", nil
}

var _ survey.Source = (*PostgresSource)(nil)
