package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/pkg/postgres"
)

// Repository persists ingested records in Postgres so the service can warm
// its index on startup without replaying the Kafka topic. It provides no
// durability guarantees beyond what index recovery needs.
type Repository struct {
	client *postgres.Client
}

// NewRepository wraps a postgres client.
func NewRepository(client *postgres.Client) *Repository {
	return &Repository{client: client}
}

// Init creates the records table if it does not exist.
func (r *Repository) Init(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sheet_records (
    relative_path TEXT        NOT NULL,
    sheet_name    TEXT        NOT NULL,
    filename      TEXT        NOT NULL,
    content_text  TEXT        NOT NULL DEFAULT '',
    image_text    TEXT        NOT NULL DEFAULT '',
    gene_symbol   TEXT        NOT NULL DEFAULT '',
    ingested_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (relative_path, sheet_name)
)`
	if _, err := r.client.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating sheet_records table: %w", err)
	}
	return nil
}

// ReplacePath atomically replaces every persisted record for one relative
// path, mirroring the store's replace-on-reingest semantics.
func (r *Repository) ReplacePath(ctx context.Context, relativePath string, records []record.Record) error {
	return r.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM sheet_records WHERE relative_path = $1`, relativePath,
		); err != nil {
			return fmt.Errorf("deleting records for %s: %w", relativePath, err)
		}
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sheet_records
				     (relative_path, sheet_name, filename, content_text, image_text, gene_symbol)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				rec.RelativePath, rec.SheetName, rec.Filename,
				rec.ContentText, rec.ImageText, rec.GeneSymbol,
			); err != nil {
				return fmt.Errorf("inserting record %s/%s: %w", rec.RelativePath, rec.SheetName, err)
			}
		}
		return nil
	})
}

// ReplaceAll rewrites the whole persisted corpus in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, records []record.Record) error {
	return r.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_records`); err != nil {
			return fmt.Errorf("clearing sheet_records: %w", err)
		}
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sheet_records
				     (relative_path, sheet_name, filename, content_text, image_text, gene_symbol)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				rec.RelativePath, rec.SheetName, rec.Filename,
				rec.ContentText, rec.ImageText, rec.GeneSymbol,
			); err != nil {
				return fmt.Errorf("inserting record %s/%s: %w", rec.RelativePath, rec.SheetName, err)
			}
		}
		return nil
	})
}

// LoadAll returns every persisted record ordered by (relative_path,
// sheet_name), ready for an initial Reindex.
func (r *Repository) LoadAll(ctx context.Context) ([]record.Record, error) {
	rows, err := r.client.DB.QueryContext(ctx,
		`SELECT relative_path, sheet_name, filename, content_text, image_text, gene_symbol
		   FROM sheet_records
		  ORDER BY relative_path, sheet_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading sheet_records: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		var rec record.Record
		if err := rows.Scan(
			&rec.RelativePath, &rec.SheetName, &rec.Filename,
			&rec.ContentText, &rec.ImageText, &rec.GeneSymbol,
		); err != nil {
			return nil, fmt.Errorf("scanning sheet_record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sheet_records: %w", err)
	}
	return records, nil
}
