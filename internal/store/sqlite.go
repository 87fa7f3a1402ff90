package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/marcjansen/mapproxy/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps meta-tiles in a single SQLite database. Writes are
// atomic by way of the transaction; readers never see partial rows.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

var _ TileStore = (*SQLiteStore)(nil)

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: l,
	}

	if err = s.runMigrations(); err != nil {
		return nil, err
	}

	l.Info("sqlite tile store initialized", "path", path)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("run store migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, k Key) ([]byte, bool, error) {
	s.logger.Debug("sqlite store get", "key", k.String())

	query := `SELECT data
	FROM metatiles
	WHERE cache_id = ? AND grid_id = ? AND z = ? AND x = ? AND y = ?`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, k.Cache, k.Grid, k.Metatile.Z, k.Metatile.X, k.Metatile.Y).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		s.logger.Error("sqlite store get failed", "key", k.String(), "error", err)
		return nil, false, err
	}

	return data, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, k Key, data []byte) error {
	s.logger.Debug("sqlite store put", "key", k.String(), "size", len(data))

	query := `INSERT INTO metatiles (cache_id, grid_id, z, x, y, data)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(cache_id, grid_id, z, x, y) DO UPDATE SET data = excluded.data`

	_, err := s.db.ExecContext(ctx, query, k.Cache, k.Grid, k.Metatile.Z, k.Metatile.X, k.Metatile.Y, data)
	if err != nil {
		s.logger.Error("sqlite store put failed", "key", k.String(), "error", err)
		return err
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
