package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/pendergraft/contract-metadata/internal/registry"
)

// SQLiteIndex writes registry records into a queryable SQLite database.
type SQLiteIndex struct {
	db     *sql.DB
	logger *zap.Logger
}

// IndexedAsset is one row of the assets table.
type IndexedAsset struct {
	ID             string
	ChainID        string
	AssetNamespace string
	AssetReference string
	Name           string
	Symbol         string
	Decimals       sql.NullInt64
	Logo           string
	ERC20          sql.NullBool
	SPL            sql.NullBool
}

// NewSQLiteIndex opens or creates the index database at path.
func NewSQLiteIndex(path string, logger *zap.Logger) (*SQLiteIndex, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	return &SQLiteIndex{db: db, logger: logger.Named("sqlite")}, nil
}

// Close closes the database connection
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Migrate creates the index schema
func (s *SQLiteIndex) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		chain_id TEXT NOT NULL,
		chain_namespace TEXT NOT NULL,
		asset_namespace TEXT NOT NULL,
		asset_reference TEXT NOT NULL,
		name TEXT NOT NULL,
		symbol TEXT,
		decimals INTEGER,
		logo TEXT NOT NULL,
		erc20 INTEGER,
		spl INTEGER,
		exported_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_assets_chain ON assets(chain_id);
	CREATE INDEX IF NOT EXISTS idx_assets_namespace ON assets(chain_namespace);
	CREATE INDEX IF NOT EXISTS idx_assets_reference ON assets(asset_reference);
	CREATE INDEX IF NOT EXISTS idx_assets_symbol ON assets(symbol);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Debug("database migrations complete")
	return nil
}

// Replace rebuilds the assets table from records in a single transaction.
func (s *SQLiteIndex) Replace(ctx context.Context, records []registry.Record) (int, error) {
	if err := usable(records); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM assets"); err != nil {
		return 0, fmt.Errorf("clearing assets: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO assets (id, chain_id, chain_namespace, asset_namespace, asset_reference,
			name, symbol, decimals, logo, erc20, spl, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		id, m := rec.ID, rec.Metadata
		_, err := stmt.ExecContext(ctx,
			id.String(), id.ChainID().String(), id.ChainNamespace, id.AssetNamespace, id.AssetReference,
			m.Name, nullString(m.Symbol), nullInt(m.Decimals), m.Logo, nullBool(m.ERC20), nullBool(m.SPL),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	s.logger.Info("SQLite index written", zap.Int("assets", len(records)))
	return len(records), nil
}

// Count returns the number of indexed assets.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets").Scan(&n)
	return n, err
}

// Get retrieves one indexed asset by identifier.
func (s *SQLiteIndex) Get(ctx context.Context, id string) (*IndexedAsset, error) {
	query := `
		SELECT id, chain_id, asset_namespace, asset_reference, name, COALESCE(symbol, ''), decimals, logo, erc20, spl
		FROM assets
		WHERE id = ?
	`
	var a IndexedAsset
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ChainID, &a.AssetNamespace, &a.AssetReference, &a.Name, &a.Symbol, &a.Decimals, &a.Logo, &a.ERC20, &a.SPL,
	)
	if err == sql.ErrNoRows {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// WriteSQLite creates or refreshes the index at path.
func WriteSQLite(ctx context.Context, path string, records []registry.Record, logger *zap.Logger) (int, error) {
	index, err := NewSQLiteIndex(path, logger)
	if err != nil {
		return 0, err
	}
	defer index.Close()

	if err := index.Migrate(ctx); err != nil {
		return 0, err
	}
	return index.Replace(ctx, records)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
