package roster

import (
	"context"

	"ROLLCALL-backend/internal/platform/apperr"
	"ROLLCALL-backend/internal/platform/db"
)

// SQLStore keeps rosters as ordered rows of class_rosters.
type SQLStore struct{ db *db.DB }

func NewSQLStore(conn *db.DB) *SQLStore { return &SQLStore{db: conn} }

func (s *SQLStore) ListClasses(ctx context.Context) ([]string, error) {
	rows, err := s.db.Q().Query(ctx, `
		SELECT DISTINCT class_name
		FROM class_rosters
		ORDER BY class_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]string, 0, 16)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// List returns every roster, ordered by class name.
func (s *SQLStore) List(ctx context.Context) ([]Roster, error) {
	rows, err := s.db.Q().Query(ctx, `
		SELECT class_name, student_name
		FROM class_rosters
		ORDER BY class_name, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]Roster, 0, 16)
	for rows.Next() {
		var c, name string
		if err := rows.Scan(&c, &name); err != nil {
			return nil, err
		}
		if n := len(res); n == 0 || res[n-1].ClassName != c {
			res = append(res, Roster{ClassName: c, Students: []string{}})
		}
		last := &res[len(res)-1]
		last.Students = append(last.Students, name)
	}
	return res, rows.Err()
}

// Get returns the students of className in roster order; ok is false when the class has no rows.
func (s *SQLStore) Get(ctx context.Context, className string) (names []string, ok bool, err error) {
	return get(ctx, s.db.Q(), className)
}

func get(ctx context.Context, q db.Querier, className string) ([]string, bool, error) {
	rows, err := q.Query(ctx, `
		SELECT student_name
		FROM class_rosters
		WHERE class_name = ?
		ORDER BY position`, className)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, false, err
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return names, len(names) > 0, nil
}

// Create inserts a new roster. A class that already exists yields errExists.
func (s *SQLStore) Create(ctx context.Context, r Roster) error {
	return s.db.InTx(ctx, func(ctx context.Context, q db.Querier) error {
		if _, ok, err := get(ctx, q, r.ClassName); err != nil {
			return err
		} else if ok {
			return errExists
		}
		return insertNames(ctx, q, r.ClassName, r.Students)
	})
}

// Replace swaps the student list of an existing class. ok is false when the class is unknown.
func (s *SQLStore) Replace(ctx context.Context, r Roster) (ok bool, err error) {
	err = s.db.InTx(ctx, func(ctx context.Context, q db.Querier) error {
		res, err := q.Exec(ctx, `DELETE FROM class_rosters WHERE class_name = ?`, r.ClassName)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		ok = true
		return insertNames(ctx, q, r.ClassName, r.Students)
	})
	return ok, err
}

func (s *SQLStore) Delete(ctx context.Context, className string) (bool, error) {
	res, err := s.db.Q().Exec(ctx, `DELETE FROM class_rosters WHERE class_name = ?`, className)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Resolve makes the table usable as the roster source for attendance.
func (s *SQLStore) Resolve(ctx context.Context, className string) ([]string, error) {
	classes, err := s.ListClasses(ctx)
	if err != nil {
		return nil, apperr.ErrInternal("failed to load rosters").Wrap(err)
	}
	c, err := pick(classes, className)
	if err != nil {
		return nil, err
	}
	names, _, err := s.Get(ctx, c)
	if err != nil {
		return nil, apperr.ErrInternal("failed to load roster").Wrap(err)
	}
	return names, nil
}

func insertNames(ctx context.Context, q db.Querier, className string, names []string) error {
	for i, n := range names {
		if _, err := q.Exec(ctx, `
		INSERT INTO class_rosters (class_name, position, student_name)
		VALUES (?, ?, ?)`, className, i, n); err != nil {
			return err
		}
	}
	return nil
}
