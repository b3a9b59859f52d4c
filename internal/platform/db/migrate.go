package db

import (
	"context"
	"fmt"
)

// 時刻型だけ方言で差がある（Postgres に DATETIME は無い）
func (d Dialect) timestampType() string {
	switch d {
	case Postgres:
		return "TIMESTAMPTZ"
	case MySQL:
		// 秒未満を丸めると日付境界をまたぐことがある
		return "DATETIME(6)"
	}
	return "DATETIME"
}

func (d Dialect) schema() []string {
	ts := d.timestampType()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS attendance_records (
	record_id   CHAR(26)     NOT NULL PRIMARY KEY,
	class_name  VARCHAR(128) NOT NULL,
	recorded_at %s     NOT NULL,
	created_at  %s     NOT NULL
)`, ts, ts),
		`CREATE TABLE IF NOT EXISTS attendance_students (
	record_id CHAR(26)     NOT NULL,
	position  INT          NOT NULL,
	name      VARCHAR(128) NOT NULL,
	status    VARCHAR(16)  NOT NULL,
	PRIMARY KEY (record_id, position)
)`,
		`CREATE TABLE IF NOT EXISTS class_rosters (
	class_name   VARCHAR(128) NOT NULL,
	position     INT          NOT NULL,
	student_name VARCHAR(128) NOT NULL,
	PRIMARY KEY (class_name, position)
)`,
	}
}

// Migrate は必要なテーブルを作る（存在すれば何もしない）。
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range d.Dialect.schema() {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: migrate: %w", err)
		}
	}
	return nil
}
