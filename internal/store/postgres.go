package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/farmdesk/internal/db"
)

// PostgresAdapter acessa o serviço hospedado compatível com Postgres.
type PostgresAdapter struct {
	pool *pgxpool.Pool
}

var _ Adapter = (*PostgresAdapter)(nil)
var _ Joiner = (*PostgresAdapter)(nil)
var _ Inspector = (*PostgresAdapter)(nil)

// OpenPostgres cria o pool e valida a conexão.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresAdapter, error) {
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return &PostgresAdapter{pool: pool}, nil
}

func (a *PostgresAdapter) Kind() Kind { return KindSupabase }

// Pool expõe o pool subjacente.
func (a *PostgresAdapter) Pool() *pgxpool.Pool { return a.pool }

func (a *PostgresAdapter) Query(ctx context.Context, table string, q Query) ([]Row, error) {
	query, args, err := postgresDialect.selectSQL(table, q)
	if err != nil {
		return nil, err
	}
	return a.queryRows(ctx, query, args)
}

func (a *PostgresAdapter) QueryVia(ctx context.Context, v Via) ([]Row, error) {
	query, args, err := postgresDialect.viaSQL(v)
	if err != nil {
		return nil, err
	}
	return a.queryRows(ctx, query, args)
}

func (a *PostgresAdapter) Insert(ctx context.Context, table string, data Row) (Row, error) {
	query, args, err := postgresDialect.insertSQL(table, data)
	if err != nil {
		return nil, err
	}
	rows, err := a.queryRows(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert em %s não retornou linha", table)
	}
	return rows[0], nil
}

func (a *PostgresAdapter) Update(ctx context.Context, table string, filters Filters, data Row) (int64, error) {
	query, args, err := postgresDialect.updateSQL(table, filters, data)
	if err != nil {
		return 0, err
	}
	tag, err := a.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (a *PostgresAdapter) Delete(ctx context.Context, table string, filters Filters) (int64, error) {
	query, args, err := postgresDialect.deleteSQL(table, filters)
	if err != nil {
		return 0, err
	}
	tag, err := a.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (a *PostgresAdapter) Ping(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return classifyPgError(err)
	}
	return nil
}

func (a *PostgresAdapter) Close() error {
	a.pool.Close()
	return nil
}

// TableStats consulta o information_schema do schema public.
func (a *PostgresAdapter) TableStats(ctx context.Context) ([]TableStat, error) {
	const query = `
        SELECT t.table_name, COUNT(c.column_name)
        FROM information_schema.tables t
        LEFT JOIN information_schema.columns c
          ON c.table_schema = t.table_schema AND c.table_name = t.table_name
        WHERE t.table_schema = 'public'
          AND t.table_type = 'BASE TABLE'
          AND t.table_name <> 'schema_migrations'
        GROUP BY t.table_name
        ORDER BY t.table_name
    `

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, classifyPgError(err)
	}
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TableStat, error) {
		var st TableStat
		err := row.Scan(&st.TableName, &st.ColumnCount)
		return st, err
	})
	if err != nil {
		return nil, classifyPgError(err)
	}

	for i := range stats {
		tbl, err := postgresDialect.ident(stats[i].TableName)
		if err != nil {
			continue
		}
		if err := a.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+tbl).Scan(&stats[i].RowCount); err != nil {
			return nil, classifyPgError(err)
		}
	}
	return stats, nil
}

func (a *PostgresAdapter) queryRows(ctx context.Context, query string, args []any) ([]Row, error) {
	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPgError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := make([]Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, classifyPgError(err)
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError(err)
	}
	return result, nil
}

func classifyPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case pgErr.Code == pgerrcode.UndefinedTable:
			return fmt.Errorf("%w: %w", ErrUndefinedTable, err)
		case pgErr.Code == pgerrcode.UndefinedColumn, pgErr.Code == pgerrcode.InvalidTextRepresentation:
			return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgErr.Code == pgerrcode.AdminShutdown,
			pgErr.Code == pgerrcode.CannotConnectNow,
			pgErr.Code == pgerrcode.TooManyConnections:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	var connectErr *pgconn.ConnectError
	switch {
	case errors.As(err, &connectErr), errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		pgconn.Timeout(err), strings.Contains(err.Error(), "closed pool"):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
