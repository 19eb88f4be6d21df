package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"tandas/backend/internal/domain"
	"tandas/backend/internal/logger"
	"tandas/backend/internal/merchandise"
	"tandas/backend/internal/store"
	"tandas/backend/internal/xid"
)

type Store struct {
	db *sqlx.DB
}

func New(ctx context.Context, databaseURL string, maxOpenConns int) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	if maxOpenConns < 1 {
		maxOpenConns = 30
	}
	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS line_items (
	id            text PRIMARY KEY,
	batch_name    text NOT NULL,
	batch_date    date NOT NULL,
	receipt_code  text NOT NULL DEFAULT '',
	batch_expense numeric(14,2),
	brand         text NOT NULL,
	title         text NOT NULL,
	dozens        integer NOT NULL CHECK (dozens > 0),
	unit_price    numeric(14,2) NOT NULL DEFAULT 0,
	code          text NOT NULL,
	notes         text NOT NULL DEFAULT '',
	position      integer NOT NULL DEFAULT 0,
	created_at    timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS line_items_batch_code_idx ON line_items (batch_name, lower(btrim(code)));
CREATE INDEX IF NOT EXISTS line_items_batch_idx ON line_items (batch_name, position);

CREATE TABLE IF NOT EXISTS pricing_settings (
	batch_name    text PRIMARY KEY,
	exchange_rate numeric(14,4),
	margin_policy text NOT NULL DEFAULT '',
	multiplier    numeric(8,4),
	updated_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS catalog_products (
	id          text PRIMARY KEY,
	code        text NOT NULL,
	name        text NOT NULL,
	description text NOT NULL DEFAULT '',
	price       numeric(14,2) NOT NULL DEFAULT 0,
	published   boolean NOT NULL DEFAULT false,
	updated_at  timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS catalog_products_code_idx ON catalog_products (lower(btrim(code)));
`

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const lineItemColumns = `id, batch_name, batch_date, receipt_code, batch_expense, brand, title, dozens, unit_price, code, notes, position`

func (s *Store) FetchLineItems(ctx context.Context, batchName string) ([]domain.ProductEntry, error) {
	rows := make([]domain.ProductEntry, 0, 64)
	var err error
	if batchName == "" {
		err = s.db.SelectContext(ctx, &rows, `
			SELECT `+lineItemColumns+`
			FROM line_items
			ORDER BY created_at, batch_name, position
		`)
	} else {
		err = s.db.SelectContext(ctx, &rows, `
			SELECT `+lineItemColumns+`
			FROM line_items
			WHERE batch_name = $1
			ORDER BY position
		`, batchName)
	}
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].BatchDate = rows[i].BatchDate.UTC()
	}
	return rows, nil
}

// ReplaceBatch runs the delete and the inserts in one transaction so a
// failure never leaves the batch half written.
func (s *Store) ReplaceBatch(ctx context.Context, batchName string, rows []domain.ProductEntry) error {
	if strings.TrimSpace(batchName) == "" {
		return store.ErrInvalidBatch
	}
	for _, row := range rows {
		if row.BatchName != batchName || row.Dozens < 1 {
			return store.ErrInvalidBatch
		}
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM line_items WHERE batch_name = $1`, batchName); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO line_items (`+lineItemColumns+`)
			VALUES (:id, :batch_name, :batch_date, :receipt_code, :batch_expense, :brand, :title, :dozens, :unit_price, :code, :notes, :position)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, row := range rows {
			if row.ID == "" {
				row.ID = xid.New("li")
			}
			row.Position = i
			if _, err := stmt.ExecContext(ctx, row); err != nil {
				if isCodeViolation(err) {
					return &merchandise.DuplicateCodeError{Code: row.Code, Existing: row.Code}
				}
				return err
			}
		}
		return nil
	})
}

func (s *Store) DeleteBatch(ctx context.Context, batchName string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM line_items WHERE batch_name = $1`, batchName)
		if err != nil {
			return err
		}
		rowsDeleted, err := res.RowsAffected()
		if err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM pricing_settings WHERE batch_name = $1`, batchName)
		if err != nil {
			return err
		}
		settingsDeleted, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if rowsDeleted == 0 && settingsDeleted == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) GetSettings(ctx context.Context, batchName string) (*domain.PricingSettings, error) {
	var settings domain.PricingSettings
	err := s.db.GetContext(ctx, &settings, `
		SELECT batch_name, exchange_rate, margin_policy, multiplier, updated_at
		FROM pricing_settings
		WHERE batch_name = $1
	`, batchName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	settings.UpdatedAt = settings.UpdatedAt.UTC()
	return &settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.PricingSettings) error {
	if strings.TrimSpace(settings.BatchName) == "" {
		return store.ErrInvalidBatch
	}
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO pricing_settings (batch_name, exchange_rate, margin_policy, multiplier, updated_at)
		VALUES (:batch_name, :exchange_rate, :margin_policy, :multiplier, :updated_at)
		ON CONFLICT (batch_name)
		DO UPDATE SET exchange_rate = EXCLUDED.exchange_rate,
			margin_policy = EXCLUDED.margin_policy,
			multiplier = EXCLUDED.multiplier,
			updated_at = EXCLUDED.updated_at
	`, settings)
	return err
}

func (s *Store) FindCatalogProductsByCode(ctx context.Context, codes []string) ([]domain.CatalogProduct, error) {
	products := make([]domain.CatalogProduct, 0, len(codes))
	if len(codes) == 0 {
		return products, nil
	}

	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		normalized = append(normalized, merchandise.NormalizeCode(code))
	}

	err := s.db.SelectContext(ctx, &products, `
		SELECT id, code, name, description, price, published, updated_at
		FROM catalog_products
		WHERE lower(btrim(code)) = ANY($1)
		ORDER BY code
	`, normalized)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) UpsertCatalogProduct(ctx context.Context, product domain.CatalogProduct) (*domain.CatalogProduct, error) {
	product.Code = strings.TrimSpace(product.Code)
	if product.Code == "" {
		return nil, store.ErrInvalidBatch
	}
	if product.ID == "" {
		product.ID = xid.New("cat")
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO catalog_products (id, code, name, description, price, published, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
		ON CONFLICT ((lower(btrim(code))))
		DO UPDATE SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			published = EXCLUDED.published,
			updated_at = now()
		RETURNING id, updated_at
	`, product.ID, product.Code, product.Name, product.Description, product.Price, product.Published).Scan(&product.ID, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	product.UpdatedAt = product.UpdatedAt.UTC()
	return &product, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const lineItemCodeIndex = "line_items_batch_code_idx"

// isCodeViolation reports a clash on the per-batch code index only; other
// unique violations stay plain errors.
func isCodeViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == lineItemCodeIndex
	}
	return false
}
