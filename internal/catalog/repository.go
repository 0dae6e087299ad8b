package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goccy/date-detector/types"
)

// DriverName is the database/sql driver catalogs are stored with.
const DriverName = "sqlite3"

var schemata = []string{
	`
CREATE TABLE IF NOT EXISTS catalogs (
  id          TEXT NOT NULL PRIMARY KEY,
  description TEXT NOT NULL DEFAULT '',
  patterns    TEXT NOT NULL
)`,
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) (*Repository, error) {
	for _, ddl := range schemata {
		if _, err := db.Exec(ddl); err != nil {
			return nil, fmt.Errorf("failed to create catalog schema: %w", err)
		}
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Begin(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *Repository) query(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (*sql.Rows, error) {
	if tx == nil {
		return r.db.QueryContext(ctx, query, args...)
	}
	return tx.QueryContext(ctx, query, args...)
}

func (r *Repository) exec(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (sql.Result, error) {
	if tx == nil {
		return r.db.ExecContext(ctx, query, args...)
	}
	return tx.ExecContext(ctx, query, args...)
}

func scanCatalogs(rows *sql.Rows) ([]*types.Catalog, error) {
	catalogs := []*types.Catalog{}
	for rows.Next() {
		var (
			id          string
			description string
			patterns    string
		)
		if err := rows.Scan(&id, &description, &patterns); err != nil {
			return nil, err
		}
		var decoded []string
		if err := json.Unmarshal([]byte(patterns), &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode patterns of catalog %s: %w", id, err)
		}
		catalogs = append(catalogs, &types.Catalog{
			ID:          id,
			Description: description,
			Patterns:    decoded,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return catalogs, nil
}

// FindCatalog returns nil without error when id is unknown.
func (r *Repository) FindCatalog(ctx context.Context, tx *sql.Tx, id string) (*types.Catalog, error) {
	rows, err := r.query(ctx, tx, "SELECT id, description, patterns FROM catalogs WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	catalogs, err := scanCatalogs(rows)
	if err != nil {
		return nil, err
	}
	if len(catalogs) != 1 {
		return nil, nil
	}
	return catalogs[0], nil
}

func (r *Repository) FindAllCatalogs(ctx context.Context, tx *sql.Tx) ([]*types.Catalog, error) {
	rows, err := r.query(ctx, tx, "SELECT id, description, patterns FROM catalogs ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCatalogs(rows)
}

func encodePatterns(catalog *types.Catalog) (string, error) {
	patterns := catalog.Patterns
	if patterns == nil {
		patterns = []string{}
	}
	b, err := json.Marshal(patterns)
	if err != nil {
		return "", fmt.Errorf("failed to encode patterns of catalog %s: %w", catalog.ID, err)
	}
	return string(b), nil
}

func (r *Repository) AddCatalog(ctx context.Context, tx *sql.Tx, catalog *types.Catalog) error {
	patterns, err := encodePatterns(catalog)
	if err != nil {
		return err
	}
	if _, err := r.exec(
		ctx, tx,
		"INSERT INTO catalogs (id, description, patterns) VALUES (?, ?, ?)",
		catalog.ID, catalog.Description, patterns,
	); err != nil {
		return fmt.Errorf("failed to add catalog %s: %w", catalog.ID, err)
	}
	return nil
}

func (r *Repository) UpdateCatalog(ctx context.Context, tx *sql.Tx, catalog *types.Catalog) error {
	patterns, err := encodePatterns(catalog)
	if err != nil {
		return err
	}
	if _, err := r.exec(
		ctx, tx,
		"UPDATE catalogs SET description = ?, patterns = ? WHERE id = ?",
		catalog.Description, patterns, catalog.ID,
	); err != nil {
		return fmt.Errorf("failed to update catalog %s: %w", catalog.ID, err)
	}
	return nil
}

func (r *Repository) AddOrUpdateCatalog(ctx context.Context, tx *sql.Tx, catalog *types.Catalog) error {
	found, err := r.FindCatalog(ctx, tx, catalog.ID)
	if err != nil {
		return err
	}
	if found != nil {
		return r.UpdateCatalog(ctx, tx, catalog)
	}
	return r.AddCatalog(ctx, tx, catalog)
}

// DeleteCatalog reports whether a catalog was removed.
func (r *Repository) DeleteCatalog(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	result, err := r.exec(ctx, tx, "DELETE FROM catalogs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete catalog %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
