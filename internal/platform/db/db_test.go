package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ROLLCALL-backend/internal/platform/config"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE x = ? AND y >= ? AND z < ?"
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y >= $2 AND z < $3", Postgres.Rebind(q))
}

func TestMigrateAndInTxRollback(t *testing.T) {
	conn, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	require.NoError(t, conn.Migrate(ctx))
	// 2回目も成功する
	require.NoError(t, conn.Migrate(ctx))

	boom := errors.New("boom")
	err = conn.InTx(ctx, func(ctx context.Context, q Querier) error {
		if _, err := q.Exec(ctx, `INSERT INTO class_rosters (class_name, position, student_name) VALUES (?, ?, ?)`, "7B", 0, "Ramesh"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.Q().QueryRow(ctx, `SELECT COUNT(*) FROM class_rosters`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
