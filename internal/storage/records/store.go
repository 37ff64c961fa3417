// Package records is a small partitioned key-value record store. Items live in
// named tables keyed by a partition key and a sort key, and each table keeps a
// secondary index on the sort key alone for point lookups.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	_ "modernc.org/sqlite"
)

var (
	// ErrTableNotFound is returned when a table has not been created.
	ErrTableNotFound = errors.New("record table not found")
	// ErrMissingKey is returned when an item lacks one of its key attributes.
	ErrMissingKey = errors.New("item is missing a key attribute")
)

// Item is a single record: attribute name to value. Numbers read back from the
// store are json.Number values.
type Item map[string]any

// Key addresses one item within a table.
type Key struct {
	Partition string
	Sort      string
}

// TableSchema names a table and the attributes that form its composite key.
type TableSchema struct {
	Name         string `json:"name"`
	PartitionKey string `json:"partition_key"`
	SortKey      string `json:"sort_key"`
}

// Store is a client for one record database.
type Store struct {
	db *sql.DB
}

// Open opens the record database at path, creating it when needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty record store path")
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create record store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS record_tables (
			name TEXT PRIMARY KEY,
			partition_key TEXT NOT NULL,
			sort_key TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS records (
			table_name TEXT NOT NULL,
			pk TEXT NOT NULL,
			sk TEXT NOT NULL,
			attrs TEXT NOT NULL,
			PRIMARY KEY (table_name, pk, sk)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_sort ON records(table_name, sk);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// CreateTable registers a table. Creating an existing table with the same key
// schema is a no-op; a conflicting key schema is an error.
func (s *Store) CreateTable(ctx context.Context, schema TableSchema) error {
	if schema.Name == "" || schema.PartitionKey == "" || schema.SortKey == "" {
		return fmt.Errorf("table schema requires name, partition key and sort key")
	}
	if schema.PartitionKey == schema.SortKey {
		return fmt.Errorf("partition key and sort key must differ")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO record_tables(name, partition_key, sort_key) VALUES(?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		schema.Name, schema.PartitionKey, schema.SortKey)
	if err != nil {
		return fmt.Errorf("create table %s: %w", schema.Name, err)
	}

	existing, err := s.describe(ctx, schema.Name)
	if err != nil {
		return err
	}
	if existing != schema {
		return fmt.Errorf("table %s already exists with key (%s, %s)", schema.Name, existing.PartitionKey, existing.SortKey)
	}
	return nil
}

// Table returns a handle to an existing table.
func (s *Store) Table(ctx context.Context, name string) (*Table, error) {
	schema, err := s.describe(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Table{db: s.db, schema: schema}, nil
}

func (s *Store) describe(ctx context.Context, name string) (TableSchema, error) {
	schema := TableSchema{Name: name}
	err := s.db.QueryRowContext(ctx, `SELECT partition_key, sort_key FROM record_tables WHERE name = ?`, name).
		Scan(&schema.PartitionKey, &schema.SortKey)
	if errors.Is(err, sql.ErrNoRows) {
		return TableSchema{}, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	if err != nil {
		return TableSchema{}, fmt.Errorf("describe table %s: %w", name, err)
	}
	return schema, nil
}

// Table reads and writes the items of one table.
type Table struct {
	db     *sql.DB
	schema TableSchema
}

// KeyOf extracts the composite key from an item's key attributes.
func (t *Table) KeyOf(item Item) (Key, error) {
	pk, err := keyAttr(item, t.schema.PartitionKey)
	if err != nil {
		return Key{}, err
	}
	sk, err := keyAttr(item, t.schema.SortKey)
	if err != nil {
		return Key{}, err
	}
	return Key{Partition: pk, Sort: sk}, nil
}

func keyAttr(item Item, name string) (string, error) {
	raw, ok := item[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, name)
	}
	v, err := cast.ToStringE(raw)
	if err != nil || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, name)
	}
	return v, nil
}

// Put writes item under the key formed by its key attributes, replacing any
// item already stored there.
func (t *Table) Put(ctx context.Context, item Item) error {
	key, err := t.KeyOf(item)
	if err != nil {
		return err
	}
	attrs, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	_, err = t.db.ExecContext(ctx, `
		INSERT INTO records(table_name, pk, sk, attrs) VALUES(?, ?, ?, ?)
		ON CONFLICT(table_name, pk, sk) DO UPDATE SET attrs = excluded.attrs`,
		t.schema.Name, key.Partition, key.Sort, string(attrs))
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Get returns the item stored under key, or nil when there is none.
func (t *Table) Get(ctx context.Context, key Key) (Item, error) {
	var attrs string
	err := t.db.QueryRowContext(ctx, `SELECT attrs FROM records WHERE table_name = ? AND pk = ? AND sk = ?`,
		t.schema.Name, key.Partition, key.Sort).Scan(&attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return decodeItem(attrs)
}

// Query returns every item in the partition, ordered by sort key.
func (t *Table) Query(ctx context.Context, partition string) ([]Item, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT attrs FROM records WHERE table_name = ? AND pk = ? ORDER BY sk`,
		t.schema.Name, partition)
	if err != nil {
		return nil, fmt.Errorf("query partition: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var attrs string
		if err := rows.Scan(&attrs); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item, err := decodeItem(attrs)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query partition: %w", err)
	}
	return items, nil
}

// LookupSortKey finds an item by sort key alone through the sort key index.
// When several partitions hold the same sort key the lexically lowest partition wins.
func (t *Table) LookupSortKey(ctx context.Context, sort string) (Item, error) {
	var attrs string
	err := t.db.QueryRowContext(ctx, `SELECT attrs FROM records WHERE table_name = ? AND sk = ? ORDER BY pk LIMIT 1`,
		t.schema.Name, sort).Scan(&attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup sort key: %w", err)
	}
	return decodeItem(attrs)
}

// Delete removes the item stored under key. Deleting a missing item succeeds.
func (t *Table) Delete(ctx context.Context, key Key) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM records WHERE table_name = ? AND pk = ? AND sk = ?`,
		t.schema.Name, key.Partition, key.Sort)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func decodeItem(attrs string) (Item, error) {
	dec := json.NewDecoder(strings.NewReader(attrs))
	dec.UseNumber()
	var item Item
	if err := dec.Decode(&item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return item, nil
}
