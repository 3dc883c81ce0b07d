// Package catalog reads permissioned datasets and data-source metadata from
// the relational catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quarrydata/catalogscout/internal/domain"
)

// pageSize bounds each catalog page; listing loops until a short page.
const pageSize = 1000

// Repo implements the catalog store over a PostgreSQL pool.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a catalog repository and verifies connectivity.
func New(ctx context.Context, dsn string) (*Repo, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// ListPermissioned returns every dataset the user is authorized to see,
// paging internally. Datasets without a semantic document are still returned;
// the caller excludes them from candidacy.
func (r *Repo) ListPermissioned(ctx context.Context, userID uuid.UUID) ([]domain.Dataset, error) {
	const query = `
		SELECT d.id, d.name, d.yml_content, d.data_source_id
		FROM datasets d
		JOIN dataset_permissions p ON p.dataset_id = d.id
		WHERE p.user_id = $1 AND d.deleted_at IS NULL
		ORDER BY d.created_at, d.id
		LIMIT $2 OFFSET $3
	`

	var all []domain.Dataset
	for offset := 0; ; offset += pageSize {
		rows, err := r.pool.Query(ctx, query, userID, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("list permissioned datasets: %w", err)
		}

		page, err := scanDatasets(rows)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// LookupSourceDialect resolves the SQL dialect of a data source.
func (r *Repo) LookupSourceDialect(ctx context.Context, dataSourceID uuid.UUID) (string, error) {
	const query = `SELECT type FROM data_sources WHERE id = $1 AND deleted_at IS NULL`

	var dialect string
	err := r.pool.QueryRow(ctx, query, dataSourceID).Scan(&dialect)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("data source %s: %w", dataSourceID, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("lookup source dialect: %w", err)
	}
	return dialect, nil
}

func scanDatasets(rows pgx.Rows) ([]domain.Dataset, error) {
	defer rows.Close()

	var out []domain.Dataset
	for rows.Next() {
		var (
			d   domain.Dataset
			yml *string
		)
		if err := rows.Scan(&d.ID, &d.Name, &yml, &d.DataSourceID); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		if yml != nil {
			d.Document = *yml
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return out, nil
}
