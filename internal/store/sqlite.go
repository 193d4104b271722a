package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// SQLiteAdapter acessa um banco SQLite local. O engine não aceita escritores
// concorrentes, então todas as chamadas passam por uma única conexão serializada.
type SQLiteAdapter struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

var _ Adapter = (*SQLiteAdapter)(nil)
var _ Joiner = (*SQLiteAdapter)(nil)
var _ Inspector = (*SQLiteAdapter)(nil)

// OpenSQLite abre o arquivo informado. Sem create, arquivo ausente é erro de configuração.
func OpenSQLite(path string, create bool) (*SQLiteAdapter, error) {
	if !create {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: banco local não encontrado: %s", ErrConfiguration, path)
			}
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}

	db, err := sql.Open("sqlite3", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return &SQLiteAdapter{db: db, path: path}, nil
}

// SQLiteDSN monta a DSN usada pelo driver com busy timeout e chaves estrangeiras.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
}

func (a *SQLiteAdapter) Kind() Kind { return KindSQLite }

// DB expõe a conexão para migrações e ferramentas administrativas.
func (a *SQLiteAdapter) DB() *sql.DB { return a.db }

func (a *SQLiteAdapter) Query(ctx context.Context, table string, q Query) ([]Row, error) {
	query, args, err := sqliteDialect.selectSQL(table, q)
	if err != nil {
		return nil, err
	}
	return a.queryRows(ctx, query, args)
}

func (a *SQLiteAdapter) QueryVia(ctx context.Context, v Via) ([]Row, error) {
	query, args, err := sqliteDialect.viaSQL(v)
	if err != nil {
		return nil, err
	}
	return a.queryRows(ctx, query, args)
}

func (a *SQLiteAdapter) Insert(ctx context.Context, table string, data Row) (Row, error) {
	query, args, err := sqliteDialect.insertSQL(table, data)
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

func (a *SQLiteAdapter) Update(ctx context.Context, table string, filters Filters, data Row) (int64, error) {
	query, args, err := sqliteDialect.updateSQL(table, filters, data)
	if err != nil {
		return 0, err
	}
	return a.exec(ctx, query, args)
}

func (a *SQLiteAdapter) Delete(ctx context.Context, table string, filters Filters) (int64, error) {
	query, args, err := sqliteDialect.deleteSQL(table, filters)
	if err != nil {
		return 0, err
	}
	return a.exec(ctx, query, args)
}

func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.db.PingContext(ctx); err != nil {
		return classifySQLiteError(err)
	}
	return nil
}

func (a *SQLiteAdapter) Close() error {
	return a.db.Close()
}

// TableStats lista tabelas de usuário com contagem de colunas e linhas.
func (a *SQLiteAdapter) TableStats(ctx context.Context) ([]TableStat, error) {
	const query = `
        SELECT m.name, COUNT(p.name)
        FROM sqlite_master m
        LEFT JOIN pragma_table_info(m.name) p ON 1=1
        WHERE m.type = 'table'
          AND m.name NOT LIKE 'sqlite_%'
          AND m.name <> 'schema_migrations'
        GROUP BY m.name
        ORDER BY m.name
    `

	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classifySQLiteError(err)
	}
	var stats []TableStat
	for rows.Next() {
		var st TableStat
		if err := rows.Scan(&st.TableName, &st.ColumnCount); err != nil {
			rows.Close()
			return nil, classifySQLiteError(err)
		}
		stats = append(stats, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError(err)
	}

	for i := range stats {
		tbl, err := sqliteDialect.ident(stats[i].TableName)
		if err != nil {
			continue
		}
		if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tbl).Scan(&stats[i].RowCount); err != nil {
			return nil, classifySQLiteError(err)
		}
	}
	return stats, nil
}

func (a *SQLiteAdapter) queryRows(ctx context.Context, query string, args []any) ([]Row, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifySQLiteError(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, classifySQLiteError(err)
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classifySQLiteError(err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError(err)
	}
	return result, nil
}

func (a *SQLiteAdapter) exec(ctx context.Context, query string, args []any) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classifySQLiteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, classifySQLiteError(err)
	}
	return affected, nil
}

func classifySQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case sqliteErr.Code == sqlite3.ErrBusy, sqliteErr.Code == sqlite3.ErrLocked,
			sqliteErr.Code == sqlite3.ErrCantOpen, sqliteErr.Code == sqlite3.ErrIoErr,
			sqliteErr.Code == sqlite3.ErrNotADB, sqliteErr.Code == sqlite3.ErrCorrupt:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		case strings.Contains(sqliteErr.Error(), "no such table"):
			return fmt.Errorf("%w: %w", ErrUndefinedTable, err)
		case strings.Contains(sqliteErr.Error(), "no such column"), strings.Contains(sqliteErr.Error(), "has no column named"):
			return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
	}
	return err
}
