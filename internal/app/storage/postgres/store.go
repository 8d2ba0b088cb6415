// Package postgres implements the storage.ListStore interface backed by
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/teamshop/teamshop/internal/app/domain/list"
	"github.com/teamshop/teamshop/internal/app/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements storage.ListStore backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.ListStore = (*Store)(nil)

// Open connects to the database at the given URL, configures the pool and
// runs any pending migrations.
func Open(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an existing database handle without running migrations. Used by
// tests with a mock connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) CreateList(ctx context.Context, l list.List) (list.List, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	l.Items = []list.Item{}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shopping_lists (code, id, created_at)
		VALUES ($1, $2, $3)
	`, l.Code, l.ID, l.CreatedAt)
	if err != nil {
		return list.List{}, err
	}
	return l, nil
}

func (s *Store) GetList(ctx context.Context, code string) (list.List, error) {
	var l list.List
	err := s.db.QueryRowContext(ctx, `
		SELECT code, id, created_at FROM shopping_lists WHERE code = $1
	`, code).Scan(&l.Code, &l.ID, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return list.List{}, list.ErrNotFound
	}
	if err != nil {
		return list.List{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, status, claimed_by, created_at, updated_at
		FROM items WHERE list_code = $1
		ORDER BY created_at, id
	`, code)
	if err != nil {
		return list.List{}, err
	}
	defer rows.Close()

	l.Items = []list.Item{}
	for rows.Next() {
		var it list.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Status, &it.ClaimedBy, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return list.List{}, err
		}
		l.Items = append(l.Items, it)
	}
	return l, rows.Err()
}

func (s *Store) CreateItem(ctx context.Context, code string, it list.Item) (list.Item, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, list_code, name, status, claimed_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, it.ID, code, it.Name, it.Status, it.ClaimedBy, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		if listExists, checkErr := s.listExists(ctx, code); checkErr == nil && !listExists {
			return list.Item{}, list.ErrNotFound
		}
		return list.Item{}, err
	}
	return it, nil
}

func (s *Store) GetItem(ctx context.Context, code, itemID string) (list.Item, error) {
	var it list.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, claimed_by, created_at, updated_at
		FROM items WHERE list_code = $1 AND id = $2
	`, code, itemID).Scan(&it.ID, &it.Name, &it.Status, &it.ClaimedBy, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return list.Item{}, list.ErrNotFound
	}
	if err != nil {
		return list.Item{}, err
	}
	return it, nil
}

func (s *Store) UpdateItem(ctx context.Context, code string, it list.Item) (list.Item, error) {
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET name = $3, status = $4, claimed_by = $5, updated_at = $6
		WHERE list_code = $1 AND id = $2
	`, code, it.ID, it.Name, it.Status, it.ClaimedBy, it.UpdatedAt)
	if err != nil {
		return list.Item{}, err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return list.Item{}, list.ErrNotFound
	}
	return s.GetItem(ctx, code, it.ID)
}

func (s *Store) DeleteItem(ctx context.Context, code, itemID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE list_code = $1 AND id = $2
	`, code, itemID)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return list.ErrNotFound
	}
	return nil
}

func (s *Store) RenameClaimant(ctx context.Context, code, old, new string) (int, error) {
	if old == "" {
		if exists, err := s.listExists(ctx, code); err != nil {
			return 0, err
		} else if !exists {
			return 0, list.ErrNotFound
		}
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET claimed_by = $3, updated_at = $4
		WHERE list_code = $1 AND claimed_by = $2
	`, code, old, new, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		if exists, checkErr := s.listExists(ctx, code); checkErr == nil && !exists {
			return 0, list.ErrNotFound
		}
	}
	return int(affected), nil
}

func (s *Store) ResetItems(ctx context.Context, code string) (list.List, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET status = 'pending', claimed_by = '', updated_at = $2
		WHERE list_code = $1
	`, code, time.Now().UTC())
	if err != nil {
		return list.List{}, err
	}
	return s.GetList(ctx, code)
}

func (s *Store) listExists(ctx context.Context, code string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM shopping_lists WHERE code = $1
	`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
