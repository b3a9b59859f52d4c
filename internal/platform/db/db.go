package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ROLLCALL-backend/internal/platform/config"
)

// Dialect は SQL の方言差（プレースホルダと DDL）を吸収する。
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB は *sql.DB に方言情報を添えたもの。Store はこれを受け取る。
type DB struct {
	*sql.DB
	Dialect Dialect
}

func Connect(c config.DatabaseConfig) (*DB, error) {
	dialect := Dialect(c.Driver)
	var driverName, dsn string
	switch dialect {
	case MySQL:
		driverName = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
			c.Username, c.Password, c.Host, c.Port, c.DBName)
	case Postgres:
		driverName = "postgres"
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.Host, c.Port, c.Username, c.Password, c.DBName)
	case SQLite:
		driverName = "sqlite"
		dsn = c.Path
		if dsn == "" {
			dsn = ":memory:"
		}
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", c.Driver)
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	if dialect == SQLite {
		// :memory: は接続ごとに別DBになるので1本に固定
		conn.SetMaxOpenConns(1)
	} else {
		// 接続プール（合算がサーバの max_connections を超えないよう配分する）
		conn.SetMaxOpenConns(40)
		conn.SetMaxIdleConns(10)
		conn.SetConnMaxLifetime(30 * time.Minute)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	return &DB{DB: conn, Dialect: dialect}, nil
}

// Wrap は既存の *sql.DB（テスト用 sqlmock など）を DB にする。
func Wrap(conn *sql.DB, dialect Dialect) *DB {
	return &DB{DB: conn, Dialect: dialect}
}

// Rebind は "?" プレースホルダを方言に合わせて書き換える（Postgres は $1, $2 ...）。
func (d Dialect) Rebind(q string) string {
	if d != Postgres {
		return q
	}
	out := make([]byte, 0, len(q)+8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			out = append(out, '$')
			out = append(out, []byte(fmt.Sprint(n))...)
			continue
		}
		out = append(out, q[i])
	}
	return string(out)
}
