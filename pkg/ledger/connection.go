package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var (
	// ErrStoreMissing reports an Open against a path with no ledger store.
	ErrStoreMissing = errors.New("ledger store missing")

	// ErrStoreLocked reports a store already held by another session.
	ErrStoreLocked = errors.New("ledger store locked")
)

// memoryPath opens an in-memory store, used by tests. In-memory stores skip
// the existence and lock checks.
const memoryPath = ":memory:"

// Store is an exclusively-held handle on a SQLite ledger store. Every
// mutation runs inside one transaction covering the whole run: Save commits,
// Close rolls back anything uncommitted. A dry run simply never calls Save.
type Store struct {
	db       *sql.DB
	tx       *sql.Tx
	path     string
	lockPath string
}

// Open opens an existing ledger store. It fails with ErrStoreMissing when
// the file does not exist and ErrStoreLocked when another session holds the
// lock; in both cases no processing has started.
func Open(path string) (*Store, error) {
	if path != memoryPath {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrStoreMissing, path)
		}
	}
	return open(path, false)
}

// Create initializes a new ledger store with the top-level account chart.
// The returned handle is open and locked; call Save then Close to keep it.
func Create(path string) (*Store, error) {
	if path != memoryPath {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("ledger store already exists: %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return open(path, true)
}

func open(path string, seed bool) (*Store, error) {
	lockPath := ""
	if path != memoryPath {
		lockPath = path + ".lock"
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			if os.IsExist(err) {
				return nil, fmt.Errorf("%w: %s exists, is another session running?", ErrStoreLocked, lockPath)
			}
			return nil, fmt.Errorf("failed to take store lock: %w", err)
		}
		f.Close()
	}

	fail := func(err error) (*Store, error) {
		if lockPath != "" {
			os.Remove(lockPath)
		}
		return nil, err
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return fail(fmt.Errorf("failed to open store: %w", err))
	}
	// One connection for the whole run: the store is exclusively held, and an
	// in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return fail(fmt.Errorf("failed to ping store: %w", err))
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fail(fmt.Errorf("failed to initialize schema: %w", err))
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return fail(fmt.Errorf("failed to begin run transaction: %w", err))
	}

	s := &Store{db: db, tx: tx, path: path, lockPath: lockPath}
	if seed {
		if err := s.seedChart(); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Save commits every mutation of the run so far and starts a fresh
// transaction for anything that follows.
func (s *Store) Save() error {
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction after save: %w", err)
	}
	s.tx = tx
	return nil
}

// Close rolls back uncommitted work, closes the database and releases the
// store lock.
func (s *Store) Close() error {
	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		s.tx = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
		s.db = nil
	}
	if s.lockPath != "" {
		if err := os.Remove(s.lockPath); err != nil {
			errs = append(errs, err)
		}
		s.lockPath = ""
	}
	return errors.Join(errs...)
}

// Path returns the store file path.
func (s *Store) Path() string { return s.path }

// seedChart inserts the top-level account chart of a fresh store.
func (s *Store) seedChart() error {
	top := []struct{ name, typ string }{
		{"Asset", "ASSET"},
		{"Equity", "EQUITY"},
		{"Expense", "EXPENSE"},
		{"Income", "INCOME"},
		{"Liability", "LIABILITY"},
	}
	for _, a := range top {
		if err := s.CreateAccount(a.name, a.typ, ""); err != nil {
			return fmt.Errorf("failed to seed account chart: %w", err)
		}
	}
	return nil
}
