package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Querier は DBTX（*sql.DB or *sql.Tx）に方言の書き換えを挟んだもの。
// Store のSQLは常に "?" で書く。
type Querier struct {
	conn    DBTX
	dialect Dialect
}

func (q Querier) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.conn.ExecContext(ctx, q.dialect.Rebind(query), args...)
}

func (q Querier) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.conn.QueryContext(ctx, q.dialect.Rebind(query), args...)
}

func (q Querier) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.conn.QueryRowContext(ctx, q.dialect.Rebind(query), args...)
}

// Q はトランザクション外のクエリ用。
func (d *DB) Q() Querier { return Querier{conn: d.DB, dialect: d.Dialect} }

// InTx: fn が nil を返せば COMMIT、エラーなら ROLLBACK。
// 複数レコードにまたがる更新はこれで all-or-nothing にする。
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, Querier{conn: tx, dialect: d.Dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
