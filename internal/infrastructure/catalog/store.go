// Package catalog implements the offer catalog and supplier directory
// over SQLite. One file holds suppliers and their current offers; the
// search path reads it per product core, the catalogctl tool maintains it.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/zakupnik/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS suppliers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	min_order_sum REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS offers (
	id              TEXT PRIMARY KEY,
	supplier_id     TEXT NOT NULL,
	name            TEXT NOT NULL,
	price           REAL NOT NULL,
	active          INTEGER NOT NULL DEFAULT 1,
	pack_unit       TEXT NOT NULL DEFAULT 'UNKNOWN',
	pack_base_qty   REAL NOT NULL DEFAULT 0,
	pack_confidence REAL NOT NULL DEFAULT 0,
	brand_id        TEXT NOT NULL DEFAULT '',
	origin_country  TEXT NOT NULL DEFAULT '',
	origin_region   TEXT NOT NULL DEFAULT '',
	origin_city     TEXT NOT NULL DEFAULT '',
	min_order_qty   INTEGER NOT NULL DEFAULT 0,
	step_qty        INTEGER NOT NULL DEFAULT 0,
	product_core_id TEXT NOT NULL DEFAULT '',
	super_class     TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (supplier_id) REFERENCES suppliers(id)
);

CREATE INDEX IF NOT EXISTS idx_offers_core_active ON offers(product_core_id, active);
CREATE INDEX IF NOT EXISTS idx_offers_supplier ON offers(supplier_id);
`

const offerColumns = `id, supplier_id, name, price, active,
	pack_unit, pack_base_qty, pack_confidence,
	brand_id, origin_country, origin_region, origin_city,
	min_order_qty, step_qty, product_core_id, super_class`

// Store is the SQLite-backed catalog. It implements both
// domain.CatalogSource and domain.SupplierDirectory.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to the catalog database, creating the schema when absent.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}

	// SQLite serializes writers anyway; a small pool is enough.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("catalog database ready")
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ActiveOffers returns the live offers for one product core.
func (s *Store) ActiveOffers(ctx context.Context, productCoreID string) ([]domain.CandidateOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE product_core_id = ? AND active = 1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, productCoreID)
	if err != nil {
		return nil, fmt.Errorf("query active offers: %w", err)
	}
	defer rows.Close()
	return scanOffers(rows)
}

// AllItems returns every offer, active or not. Used by catalog tooling.
func (s *Store) AllItems(ctx context.Context) ([]domain.CandidateOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()
	return scanOffers(rows)
}

// SupplierName resolves a supplier's display name.
func (s *Store) SupplierName(ctx context.Context, supplierID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM suppliers WHERE id = ?`, supplierID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", domain.ErrSupplierUnknown, supplierID)
	}
	if err != nil {
		return "", fmt.Errorf("query supplier name: %w", err)
	}
	return name, nil
}

// SupplierMinimum resolves a supplier's minimum order sum.
func (s *Store) SupplierMinimum(ctx context.Context, supplierID string) (float64, error) {
	var minimum float64
	err := s.db.QueryRowContext(ctx, `SELECT min_order_sum FROM suppliers WHERE id = ?`, supplierID).Scan(&minimum)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrSupplierUnknown, supplierID)
	}
	if err != nil {
		return 0, fmt.Errorf("query supplier minimum: %w", err)
	}
	return minimum, nil
}

// UpsertSupplier inserts or replaces one supplier record.
func (s *Store) UpsertSupplier(ctx context.Context, id, name string, minOrderSum float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, min_order_sum) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, min_order_sum = excluded.min_order_sum`,
		id, name, minOrderSum)
	if err != nil {
		return fmt.Errorf("upsert supplier %s: %w", id, err)
	}
	return nil
}

// UpsertOffer inserts or replaces one offer record. Inactive offers are
// stored too; they are simply invisible to ActiveOffers.
func (s *Store) UpsertOffer(ctx context.Context, o domain.CandidateOffer) error {
	if o.ID == "" || o.Name == "" || o.Price <= 0 {
		return fmt.Errorf("%w: offer %q must carry id, name and positive price", domain.ErrInvalidOffer, o.ID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offers (`+offerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			supplier_id = excluded.supplier_id,
			name = excluded.name,
			price = excluded.price,
			active = excluded.active,
			pack_unit = excluded.pack_unit,
			pack_base_qty = excluded.pack_base_qty,
			pack_confidence = excluded.pack_confidence,
			brand_id = excluded.brand_id,
			origin_country = excluded.origin_country,
			origin_region = excluded.origin_region,
			origin_city = excluded.origin_city,
			min_order_qty = excluded.min_order_qty,
			step_qty = excluded.step_qty,
			product_core_id = excluded.product_core_id,
			super_class = excluded.super_class`,
		o.ID, o.SupplierID, o.Name, o.Price, o.Active,
		string(o.Pack.Unit), o.Pack.BaseQuantity, o.Pack.Confidence,
		o.BrandID, o.Origin.Country, o.Origin.Region, o.Origin.City,
		o.MinOrderQty, o.StepQty, o.ProductCoreID, o.SuperClass)
	if err != nil {
		return fmt.Errorf("upsert offer %s: %w", o.ID, err)
	}
	return nil
}

// ApplyClassification updates the stored classification of one offer.
func (s *Store) ApplyClassification(ctx context.Context, offerID, superClass, productCoreID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE offers SET super_class = ?, product_core_id = ? WHERE id = ?`,
		superClass, productCoreID, offerID)
	if err != nil {
		return fmt.Errorf("update classification for %s: %w", offerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: offer %s not found", domain.ErrInvalidOffer, offerID)
	}
	return nil
}

func scanOffers(rows *sql.Rows) ([]domain.CandidateOffer, error) {
	var out []domain.CandidateOffer
	for rows.Next() {
		var (
			o    domain.CandidateOffer
			unit string
		)
		if err := rows.Scan(
			&o.ID, &o.SupplierID, &o.Name, &o.Price, &o.Active,
			&unit, &o.Pack.BaseQuantity, &o.Pack.Confidence,
			&o.BrandID, &o.Origin.Country, &o.Origin.Region, &o.Origin.City,
			&o.MinOrderQty, &o.StepQty, &o.ProductCoreID, &o.SuperClass,
		); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		o.Pack.Unit = domain.UnitType(unit)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return out, nil
}
