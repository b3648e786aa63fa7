// Package cartstore persists cart lines in SQLite. Each line snapshots
// the offer it was built from as JSON; concurrent writers are serialized
// through an optimistic version column.
package cartstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/zakupnik/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS cart_lines (
	user_id       TEXT NOT NULL,
	reference_id  TEXT NOT NULL,
	id            TEXT NOT NULL,
	offer_json    TEXT NOT NULL,
	user_qty      INTEGER NOT NULL,
	effective_qty INTEGER NOT NULL,
	line_total    REAL NOT NULL,
	substitution  INTEGER NOT NULL DEFAULT 0,
	savings       REAL NOT NULL DEFAULT 0,
	version       INTEGER NOT NULL,
	updated_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, reference_id)
);

CREATE INDEX IF NOT EXISTS idx_cart_lines_user ON cart_lines(user_id);
`

// Store is the SQLite-backed cart repository.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to the cart database, creating the schema when absent.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cart database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cart database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cart schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("cart database ready")
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes a cart line under the compare-and-set contract: a line
// with Version 0 must not exist yet, a line with Version n replaces the
// stored row only while the row still carries version n. On success the
// line's Version is advanced to the stored value.
func (s *Store) Upsert(ctx context.Context, line *domain.CartLine) error {
	offerJSON, err := json.Marshal(line.Offer)
	if err != nil {
		return fmt.Errorf("marshal offer snapshot: %w", err)
	}

	if line.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO cart_lines
				(user_id, reference_id, id, offer_json, user_qty, effective_qty,
				 line_total, substitution, savings, version, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
			ON CONFLICT(user_id, reference_id) DO NOTHING`,
			line.UserID, line.ReferenceID, line.ID, string(offerJSON),
			line.UserQty, line.EffectiveQty, line.LineTotal,
			line.Substitution, line.Savings, line.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert cart line: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrCartConflict
		}
		line.Version = 1
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_lines SET
			id = ?, offer_json = ?, user_qty = ?, effective_qty = ?,
			line_total = ?, substitution = ?, savings = ?,
			version = version + 1, updated_at = ?
		WHERE user_id = ? AND reference_id = ? AND version = ?`,
		line.ID, string(offerJSON), line.UserQty, line.EffectiveQty,
		line.LineTotal, line.Substitution, line.Savings, line.UpdatedAt,
		line.UserID, line.ReferenceID, line.Version)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCartConflict
	}
	line.Version++
	return nil
}

// Get returns the line for one (user, reference) pair.
func (s *Store) Get(ctx context.Context, userID, referenceID string) (*domain.CartLine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, reference_id, id, offer_json, user_qty, effective_qty,
		       line_total, substitution, savings, version, updated_at
		FROM cart_lines WHERE user_id = ? AND reference_id = ?`,
		userID, referenceID)

	line, err := scanLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLineNotFound
	}
	if err != nil {
		return nil, err
	}
	return line, nil
}

// ListByUser returns all of a user's lines ordered by reference id.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, reference_id, id, offer_json, user_qty, effective_qty,
		       line_total, substitution, savings, version, updated_at
		FROM cart_lines WHERE user_id = ? ORDER BY reference_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var out []domain.CartLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return out, nil
}

// Clear removes every line of one user.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLine(row scanner) (*domain.CartLine, error) {
	var (
		line      domain.CartLine
		offerJSON string
	)
	if err := row.Scan(
		&line.UserID, &line.ReferenceID, &line.ID, &offerJSON,
		&line.UserQty, &line.EffectiveQty, &line.LineTotal,
		&line.Substitution, &line.Savings, &line.Version, &line.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan cart line: %w", err)
	}
	if err := json.Unmarshal([]byte(offerJSON), &line.Offer); err != nil {
		return nil, fmt.Errorf("decode offer snapshot: %w", err)
	}
	return &line, nil
}
