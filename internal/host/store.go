package host

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/mattn/go-sqlite3"

	"github.com/nerrad567/wiz-platform/internal/accessory"
)

// Store persists accessory shells.
type Store interface {
	// List returns the shells owned by a plugin/platform pair, oldest first.
	List(ctx context.Context, pluginID, platformName string) ([]*accessory.Shell, error)

	// Get returns a shell by UUID, or ErrAccessoryNotFound.
	Get(ctx context.Context, uuid string) (*accessory.Shell, error)

	// Insert stores shells atomically. Any UUID already present fails the
	// whole batch with ErrAlreadyRegistered.
	Insert(ctx context.Context, pluginID, platformName string, shells []*accessory.Shell) error

	// Delete removes shells atomically. Any unknown UUID fails the whole
	// batch with ErrAccessoryNotFound.
	Delete(ctx context.Context, uuids []string) error
}

// SQLiteStore implements Store on the accessories table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store on an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// timeLayout sorts lexicographically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectShell = `
	SELECT uuid, display_name, device_id, category, created_at
	FROM accessories`

// List returns the shells owned by a plugin/platform pair, oldest first.
func (s *SQLiteStore) List(ctx context.Context, pluginID, platformName string) ([]*accessory.Shell, error) {
	rows, err := s.db.QueryContext(ctx,
		selectShell+` WHERE plugin_id = ? AND platform_name = ? ORDER BY created_at, uuid`,
		pluginID, platformName,
	)
	if err != nil {
		return nil, fmt.Errorf("querying accessories: %w", err)
	}
	defer rows.Close()

	var shells []*accessory.Shell
	for rows.Next() {
		shell, err := scanShell(rows)
		if err != nil {
			return nil, err
		}
		shells = append(shells, shell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accessories: %w", err)
	}
	return shells, nil
}

// Get returns a shell by UUID.
func (s *SQLiteStore) Get(ctx context.Context, uuid string) (*accessory.Shell, error) {
	shell, err := scanShell(s.db.QueryRowContext(ctx, selectShell+` WHERE uuid = ?`, uuid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAccessoryNotFound, uuid)
	}
	return shell, err
}

// Insert stores shells in one transaction.
func (s *SQLiteStore) Insert(ctx context.Context, pluginID, platformName string, shells []*accessory.Shell) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, shell := range shells {
		createdAt := shell.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO accessories (uuid, display_name, device_id, category, plugin_id, platform_name, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			shell.UUID, shell.DisplayName, shell.DeviceID, int(shell.Category),
			pluginID, platformName, createdAt.UTC().Format(timeLayout),
		)
		if isPrimaryKeyViolation(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, shell.UUID)
		}
		if err != nil {
			return fmt.Errorf("inserting accessory %s: %w", shell.UUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing accessories: %w", err)
	}
	return nil
}

// Delete removes shells in one transaction.
func (s *SQLiteStore) Delete(ctx context.Context, uuids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, uuid := range uuids {
		res, err := tx.ExecContext(ctx, `DELETE FROM accessories WHERE uuid = ?`, uuid)
		if err != nil {
			return fmt.Errorf("deleting accessory %s: %w", uuid, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting accessory %s: %w", uuid, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrAccessoryNotFound, uuid)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing accessories: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShell(row scanner) (*accessory.Shell, error) {
	var (
		shell     accessory.Shell
		category  int
		createdAt string
	)
	if err := row.Scan(&shell.UUID, &shell.DisplayName, &shell.DeviceID, &category, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning accessory: %w", err)
	}
	shell.Category = hcaccessory.AccessoryType(category)

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at for %s: %w", shell.UUID, err)
	}
	shell.CreatedAt = t
	return &shell, nil
}

func isPrimaryKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
