package attendance

import (
	"context"
	"strings"
	"time"

	"ROLLCALL-backend/internal/intent"
	"ROLLCALL-backend/internal/platform/db"
)

// Store は出欠レコードの保存先。
// Find / DeleteFirst / UpdateMatching の「自然順」は登録順。
type Store interface {
	Insert(ctx context.Context, r Record) error
	Find(ctx context.Context, p Predicate) ([]Record, error)
	// DeleteFirst は自然順で最初の1件だけ物理削除する。該当なしは ok=false。
	DeleteFirst(ctx context.Context, p Predicate) (deleted Record, ok bool, err error)
	// UpdateMatching は該当全件に fn を適用し、変更されたものを書き戻す。
	// 全件が1つの論理操作で、途中で失敗したら（fn のエラーを含む）何も反映しない。
	UpdateMatching(ctx context.Context, p Predicate, fn func(r *Record) (changed bool, err error)) ([]Record, error)
	// ListRecent は日付の新しい順。
	ListRecent(ctx context.Context) ([]Record, error)
	// AbsentSummary は保存されているクラス名ごとの欠席のべ人数。
	AbsentSummary(ctx context.Context) (map[string]int, error)
}

// DB行に対応（スキャン用）
type recordRow struct {
	RecordID   string
	ClassName  string
	RecordedAt time.Time
	CreatedAt  time.Time
}

func (r recordRow) toModel() Record {
	return Record{
		ID:        r.RecordID,
		ClassName: r.ClassName,
		Date:      r.RecordedAt.UTC(),
		CreatedAt: r.CreatedAt.UTC(),
		Students:  []StudentStatus{},
	}
}

type SQLStore struct{ db *db.DB }

func NewSQLStore(conn *db.DB) *SQLStore { return &SQLStore{db: conn} }

const (
	orderNatural = " ORDER BY r.created_at ASC, r.record_id ASC"
	orderRecent  = " ORDER BY r.recorded_at DESC, r.record_id DESC"
)

func (s *SQLStore) Insert(ctx context.Context, r Record) error {
	return s.db.InTx(ctx, func(ctx context.Context, q db.Querier) error {
		if _, err := q.Exec(ctx, `
	INSERT INTO attendance_records (record_id, class_name, recorded_at, created_at)
	VALUES (?, ?, ?, ?)`, r.ID, r.ClassName, r.Date.UTC(), r.CreatedAt.UTC()); err != nil {
			return err
		}
		return insertStudents(ctx, q, r.ID, r.Students)
	})
}

func (s *SQLStore) Find(ctx context.Context, p Predicate) ([]Record, error) {
	return find(ctx, s.db.Q(), p, orderNatural)
}

func (s *SQLStore) ListRecent(ctx context.Context) ([]Record, error) {
	return find(ctx, s.db.Q(), Predicate{}, orderRecent)
}

func (s *SQLStore) DeleteFirst(ctx context.Context, p Predicate) (Record, bool, error) {
	var (
		deleted Record
		ok      bool
	)
	err := s.db.InTx(ctx, func(ctx context.Context, q db.Querier) error {
		recs, err := find(ctx, q, p, orderNatural)
		if err != nil || len(recs) == 0 {
			return err
		}
		deleted, ok = recs[0], true
		if _, err := q.Exec(ctx, `DELETE FROM attendance_students WHERE record_id = ?`, deleted.ID); err != nil {
			return err
		}
		_, err = q.Exec(ctx, `DELETE FROM attendance_records WHERE record_id = ?`, deleted.ID)
		return err
	})
	if err != nil {
		return Record{}, false, err
	}
	return deleted, ok, nil
}

func (s *SQLStore) UpdateMatching(ctx context.Context, p Predicate, fn func(*Record) (bool, error)) ([]Record, error) {
	var out []Record
	err := s.db.InTx(ctx, func(ctx context.Context, q db.Querier) error {
		recs, err := find(ctx, q, p, orderNatural)
		if err != nil {
			return err
		}
		for i := range recs {
			changed, err := fn(&recs[i])
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			r := recs[i]
			if _, err := q.Exec(ctx, `UPDATE attendance_records SET class_name = ? WHERE record_id = ?`, r.ClassName, r.ID); err != nil {
				return err
			}
			// 生徒行は位置ごと差し替える
			if _, err := q.Exec(ctx, `DELETE FROM attendance_students WHERE record_id = ?`, r.ID); err != nil {
				return err
			}
			if err := insertStudents(ctx, q, r.ID, r.Students); err != nil {
				return err
			}
		}
		out = recs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AbsentSummary: SQL ではレコード単位まで集計し、クラス名ごとの合算は Go 側で行う。
// MySQL の既定照合順序だと GROUP BY class_name が "7B" と "7b" をまとめてしまうため。
func (s *SQLStore) AbsentSummary(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Q().Query(ctx, `
	SELECT r.record_id, r.class_name, COALESCE(SUM(CASE WHEN s.status = 'absent' THEN 1 ELSE 0 END), 0) AS absent
	FROM attendance_records r
	LEFT JOIN attendance_students s ON s.record_id = r.record_id
	GROUP BY r.record_id, r.class_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			id    string
			class string
			n     int
		)
		if err := rows.Scan(&id, &class, &n); err != nil {
			return nil, err
		}
		out[class] += n
	}
	return out, rows.Err()
}

// ===== helpers =====

func find(ctx context.Context, q db.Querier, p Predicate, order string) ([]Record, error) {
	where, args := p.sqlWhere()
	rows, err := q.Query(ctx, `
	SELECT r.record_id, r.class_name, r.recorded_at, r.created_at
	FROM attendance_records r`+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var row recordRow
		if err := rows.Scan(&row.RecordID, &row.ClassName, &row.RecordedAt, &row.CreatedAt); err != nil {
			return nil, err
		}
		rec := row.toModel()
		if p.Match(rec) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadStudents(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

func loadStudents(ctx context.Context, q db.Querier, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	byID := make(map[string]int, len(recs))
	args := make([]any, 0, len(recs))
	for i, r := range recs {
		byID[r.ID] = i
		args = append(args, r.ID)
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	rows, err := q.Query(ctx, `
	SELECT record_id, name, status
	FROM attendance_students
	WHERE record_id IN (`+marks+`)
	ORDER BY record_id ASC, position ASC`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, name, status string
		)
		if err := rows.Scan(&id, &name, &status); err != nil {
			return err
		}
		i := byID[id]
		recs[i].Students = append(recs[i].Students, StudentStatus{Name: name, Status: intent.Status(status)})
	}
	return rows.Err()
}

func insertStudents(ctx context.Context, q db.Querier, recordID string, students []StudentStatus) error {
	for i, st := range students {
		if _, err := q.Exec(ctx, `
	INSERT INTO attendance_students (record_id, position, name, status)
	VALUES (?, ?, ?, ?)`, recordID, i, st.Name, string(st.Status)); err != nil {
			return err
		}
	}
	return nil
}
