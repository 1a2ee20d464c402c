// Package sqldb implements the direct-store lookup backend: SQL queries
// against the wiki's own database, covering the id-mapping table written
// by the import pipeline and the term tables that back label search.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/graphport/wbclient/internal/storage"
	"github.com/graphport/wbclient/pkg/types"
)

// labelTermTypeID is the term type for labels in the wbt_term_in_lang
// table (descriptions are 2, aliases 3).
const labelTermTypeID = 1

// Store is the direct-database MappingLookup backend.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the wiki database and returns a Store.
// The driver is "postgres" in production; tests use "sqlite" against an
// in-memory database with the same schema.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqldb: failed to ping database: %w", err)
	}

	return New(db, driver), nil
}

// New wraps an existing database handle.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind converts ?-style placeholders to the $N form when the driver
// requires it. Queries in this package are written with ? so the same
// statements run under both postgres and sqlite.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LookupRemoteMapping reads the id-mapping table maintained by the
// importer. The table is keyed by the bare remote id (e.g. "Q5").
func (s *Store) LookupRemoteMapping(ctx context.Context, kind types.EntityKind, remoteID types.EntityID) (types.EntityID, error) {
	bare := remoteID.AsLocal().String()

	var localID string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT local_id FROM wb_id_mapping WHERE wikidata_id = ?`),
		bare,
	).Scan(&localID)
	if err == sql.ErrNoRows {
		return types.EntityID{}, storage.ErrNotFound
	}
	if err != nil {
		return types.EntityID{}, fmt.Errorf("sqldb: id mapping lookup for %s: %w", remoteID, err)
	}

	id, err := types.ParseLocalID(localID)
	if err != nil {
		return types.EntityID{}, fmt.Errorf("sqldb: id mapping for %s holds malformed local id: %w", remoteID, err)
	}
	return id, nil
}

// itemLabelQuery walks the term-store join chain from an English label to
// the item ids that carry it.
const itemLabelQuery = `
SELECT t.wbit_item_id
FROM wbt_item_terms t
JOIN wbt_term_in_lang til ON t.wbit_term_in_lang_id = til.wbtl_id
JOIN wbt_text_in_lang xil ON til.wbtl_text_in_lang_id = xil.wbxl_id
JOIN wbt_text x ON x.wbx_id = xil.wbxl_text_id
WHERE x.wbx_text = ? AND til.wbtl_type_id = ? AND xil.wbxl_language = ?
ORDER BY t.wbit_item_id`

const propertyLabelQuery = `
SELECT t.wbpt_property_id
FROM wbt_property_terms t
JOIN wbt_term_in_lang til ON t.wbpt_term_in_lang_id = til.wbtl_id
JOIN wbt_text_in_lang xil ON til.wbtl_text_in_lang_id = xil.wbxl_id
JOIN wbt_text x ON x.wbx_id = xil.wbxl_text_id
WHERE x.wbx_text = ? AND til.wbtl_type_id = ? AND xil.wbxl_language = ?
ORDER BY t.wbpt_property_id`

// SearchByLabel returns every entity of the given kind whose English
// label equals label.
func (s *Store) SearchByLabel(ctx context.Context, kind types.EntityKind, label string) ([]types.EntityID, error) {
	query := itemLabelQuery
	if kind == types.KindProperty {
		query = propertyLabelQuery
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query),
		label, labelTermTypeID, types.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("sqldb: label search for %q: %w", label, err)
	}
	defer rows.Close()

	var ids []types.EntityID
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("sqldb: label search for %q: %w", label, err)
		}
		ids = append(ids, types.EntityID{Scope: types.ScopeLocal, Kind: kind, Number: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: label search for %q: %w", label, err)
	}
	return ids, nil
}
