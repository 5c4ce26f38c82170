package registry

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/tenantbot/pkg/pg"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores tenants in the "tenants" table.
type Postgres struct {
	db querier
}

func NewPostgres(db querier) *Postgres {
	return &Postgres{db: db}
}

const (
	findByUUIDQuery = `SELECT numeric_id, uuid, owner_id, name, is_active FROM tenants WHERE uuid = $1`
	listActiveQuery = `SELECT uuid FROM tenants WHERE owner_id = $1 AND is_active ORDER BY numeric_id`
	createQuery     = `INSERT INTO tenants (owner_id, uuid, name) VALUES ($1, $2, $3)
		RETURNING numeric_id, uuid, owner_id, name, is_active`
	deleteQuery = `DELETE FROM tenants WHERE uuid = $1`
)

func (p *Postgres) FindByUUID(ctx context.Context, uuid string) (Record, error) {
	rec, err := scanRecord(p.db.QueryRow(ctx, findByUUIDQuery, uuid))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, errors.Join(ErrUnavailable, err)
	}
	return rec, nil
}

func (p *Postgres) ListActiveUUIDs(ctx context.Context, ownerID int64) ([]string, error) {
	rows, err := p.db.Query(ctx, listActiveQuery, ownerID)
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return ids, nil
}

func (p *Postgres) Create(ctx context.Context, ownerID int64, uuid string, name *string) (Record, error) {
	rec, err := scanRecord(p.db.QueryRow(ctx, createQuery, ownerID, uuid, name))
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return Record{}, ErrDuplicate
		}
		return Record{}, errors.Join(ErrUnavailable, err)
	}
	return rec, nil
}

func (p *Postgres) Delete(ctx context.Context, uuid string) error {
	if _, err := p.db.Exec(ctx, deleteQuery, uuid); err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.NumericID, &rec.UUID, &rec.OwnerID, &rec.Name, &rec.Active)
	return rec, err
}
