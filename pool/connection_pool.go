package pool

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/raunlo/pgx-entity-metamodel/mapper"
	"github.com/raunlo/pgx-entity-metamodel/metamodel"
	"go.uber.org/zap"
)

type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	QueryOne(ctx context.Context, sql string, dest interface{}, args pgx.NamedArgs) error
	QueryList(ctx context.Context, sql string, dest interface{}, args pgx.NamedArgs) error
	// QueryStates extracts the state array of every row, resolving subtypes through the
	// entity's discriminator.
	QueryStates(ctx context.Context, sql string, entity *metamodel.EntityMappingType, args pgx.NamedArgs) ([]mapper.EntityState, error)
	Ping(ctx context.Context) error
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

func NewDatabasePool(cfg DatabaseConfiguration) (Conn, error) { // nolint:gocritic
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.connTimeout())
	defer cancel()
	pool, err := pgxpool.New(ctx, cfg.getDSN())
	if err != nil {
		return nil, errors.Wrap(err, "create db conn pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "Could not ping db")
	}
	zap.S().Debugw("pool: connected", "host", *cfg.Host, "database", *cfg.Name)
	return &databaseConnectionPool{pool: pool}, nil
}

type databaseConnectionPool struct {
	pool *pgxpool.Pool
}

func (p *databaseConnectionPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *databaseConnectionPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p *databaseConnectionPool) QueryOne(ctx context.Context, sql string, dest interface{}, args pgx.NamedArgs) error {
	rows, err := p.pool.Query(ctx, sql, args)
	if err != nil {
		return err
	}
	return mapper.ScanOne(rows, dest)
}

func (p *databaseConnectionPool) QueryList(ctx context.Context, sql string, dest interface{}, args pgx.NamedArgs) error {
	rows, err := p.pool.Query(ctx, sql, args)
	if err != nil {
		return err
	}
	return mapper.ScanMany(rows, dest)
}

func (p *databaseConnectionPool) QueryStates(ctx context.Context, sql string, entity *metamodel.EntityMappingType,
	args pgx.NamedArgs) ([]mapper.EntityState, error) {
	rows, err := p.pool.Query(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	return mapper.ScanStates(rows, entity)
}

func (p *databaseConnectionPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (p *databaseConnectionPool) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *databaseConnectionPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return p.pool.BeginTx(ctx, txOptions)
}

func (p *databaseConnectionPool) Close() { p.pool.Close() }
