// Package store publishes a built unit catalog into PostgreSQL.
//
// A publish replaces the table contents in one transaction: every record is
// upserted on its (unit, property) key and stamped with the build ID, then
// rows left over from earlier builds are deleted. Readers see either the
// previous catalog or the new one, never a mix.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/unitcat/internal/catalog"
	"github.com/JonMunkholm/unitcat/internal/config"
)

// contextCheckInterval is how many rows are written between cancellation checks.
const contextCheckInterval = 100

// ErrInvalidTable is returned for a table name that is not schema.table or table.
var ErrInvalidTable = errors.New("invalid table name")

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
}

// Tx is the part of pgx.Tx a publish needs.
type Tx interface {
	DBTX
	Commit(context.Context) error
	Rollback(context.Context) error
}

// Beginner starts transactions.
type Beginner interface {
	BeginTx(context.Context) (Tx, error)
}

// PoolBeginner adapts a pgx pool to Beginner.
type PoolBeginner struct {
	Pool *pgxpool.Pool
}

// BeginTx starts a transaction on the pool.
func (p PoolBeginner) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// OpenPool parses the configured DSN, applies the pool settings and verifies
// the connection.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Result summarises one publish.
type Result struct {
	BuildID  uuid.UUID
	Upserted int64
	Deleted  int64
}

// Publisher writes catalogs into one table.
type Publisher struct {
	db     Beginner
	table  string // sanitized identifier
	logger *slog.Logger
}

// NewPublisher returns a Publisher for table, which may be schema qualified.
func NewPublisher(db Beginner, table string, logger *slog.Logger) (*Publisher, error) {
	ident, err := tableIdentifier(table)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{db: db, table: ident.Sanitize(), logger: logger}, nil
}

func tableIdentifier(table string) (pgx.Identifier, error) {
	parts := strings.Split(strings.TrimSpace(table), ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
		}
	}
	return pgx.Identifier(parts), nil
}

// Table returns the quoted table identifier.
func (p *Publisher) Table() string { return p.table }

func (p *Publisher) createSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	unit              text NOT NULL,
	property          text NOT NULL,
	prefix            text,
	symbol            text NOT NULL,
	plural            text NOT NULL,
	conversion_factor double precision NOT NULL,
	conversion_offset double precision,
	reference_unit    text NOT NULL,
	alternate_unit    text,
	system            text NOT NULL,
	build_id          uuid NOT NULL,
	updated_at        timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (unit, property)
)`, p.table)
}

func (p *Publisher) upsertSQL() string {
	return fmt.Sprintf(`INSERT INTO %s (
	unit, property, prefix, symbol, plural, conversion_factor,
	conversion_offset, reference_unit, alternate_unit, system, build_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (unit, property) DO UPDATE SET
	prefix = EXCLUDED.prefix,
	symbol = EXCLUDED.symbol,
	plural = EXCLUDED.plural,
	conversion_factor = EXCLUDED.conversion_factor,
	conversion_offset = EXCLUDED.conversion_offset,
	reference_unit = EXCLUDED.reference_unit,
	alternate_unit = EXCLUDED.alternate_unit,
	system = EXCLUDED.system,
	build_id = EXCLUDED.build_id,
	updated_at = now()`, p.table)
}

func (p *Publisher) pruneSQL() string {
	return fmt.Sprintf(`DELETE FROM %s WHERE build_id <> $1`, p.table)
}

// Publish replaces the table contents with records, tagged with buildID.
// The table is created when missing. Nothing is changed unless the whole
// catalog is written.
func (p *Publisher) Publish(ctx context.Context, records []catalog.Record, buildID uuid.UUID) (Result, error) {
	res := Result{BuildID: buildID}

	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, p.createSQL()); err != nil {
		return res, fmt.Errorf("create table %s: %w", p.table, err)
	}

	id := pgtype.UUID{Bytes: buildID, Valid: true}
	upsert := p.upsertSQL()
	for i, r := range records {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("publish cancelled at record %d: %w", i, err)
			}
		}
		tag, err := tx.Exec(ctx, upsert, rowArgs(r, id)...)
		if err != nil {
			return res, fmt.Errorf("upsert %s (%s): %w", r.Unit, r.Property, err)
		}
		res.Upserted += tag.RowsAffected()
	}

	tag, err := tx.Exec(ctx, p.pruneSQL(), id)
	if err != nil {
		return res, fmt.Errorf("delete stale rows: %w", err)
	}
	res.Deleted = tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.logger.Info("catalog published",
		"table", p.table,
		"build_id", buildID.String(),
		"upserted", res.Upserted,
		"deleted", res.Deleted,
	)
	return res, nil
}

// rowArgs maps a record onto the upsert parameters. Absent optional fields
// become NULL.
func rowArgs(r catalog.Record, buildID pgtype.UUID) []any {
	offset := pgtype.Float8{}
	if r.ConversionOffset != nil {
		offset = pgtype.Float8{Float64: *r.ConversionOffset, Valid: true}
	}
	return []any{
		r.Unit,
		r.Property,
		nullText(r.Prefix),
		r.Symbol,
		r.Plural,
		r.ConversionFactor,
		offset,
		r.ReferenceUnit,
		nullText(r.AlternateUnit),
		r.System,
		buildID,
	}
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
