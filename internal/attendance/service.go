package attendance

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"ROLLCALL-backend/internal/intent"
	"ROLLCALL-backend/internal/platform/apperr"
	"ROLLCALL-backend/internal/platform/textmatch"
	"ROLLCALL-backend/internal/roster"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service本体 =====

// Service は検証済み intent をストアに対して実行する。
type Service struct {
	store  Store
	roster roster.Resolver
	loc    *time.Location
	clock  Clock
	id     IDGen
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }
func WithIDGen(g IDGen) Option { return func(s *Service) { s.id = g } }

func NewService(store Store, rs roster.Resolver, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		store:  store,
		roster: rs,
		loc:    loc,
		clock:  realClock{},
		id:     ulidGen{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Location は日付フィルタと表示に使うタイムゾーン。
func (s *Service) Location() *time.Location { return s.loc }

// Create: 名簿の全員分の出欠を作る。students に無い名前は DefaultStatus。
func (s *Service) Create(ctx context.Context, in intent.Create) (RecordResponse, error) {
	class := strings.TrimSpace(in.ClassName)
	if class == "" {
		return RecordResponse{}, apperr.ErrInvalid("className is required")
	}
	names, err := s.roster.Resolve(ctx, class)
	if err != nil {
		return RecordResponse{}, err
	}

	def := in.DefaultStatus
	if def == "" {
		def = intent.StatusPresent
	}
	exceptions := make(map[string]intent.Status, len(in.Students))
	for _, st := range in.Students {
		exceptions[textmatch.Fold(st.Name)] = st.Status
	}

	students := make([]StudentStatus, 0, len(names))
	for _, name := range names {
		status, ok := exceptions[textmatch.Fold(name)]
		if !ok || status == "" {
			status = def
		}
		students = append(students, StudentStatus{Name: name, Status: status})
	}

	now := s.clock.Now()
	date := now
	if d := strings.TrimSpace(in.Date); d != "" {
		day, err := time.ParseInLocation(intent.DateLayout, d, s.loc)
		if err != nil {
			return RecordResponse{}, apperr.ErrInvalid("date must be YYYY-MM-DD")
		}
		date = day
	}

	id, err := s.id.New()
	if err != nil {
		return RecordResponse{}, apperr.ErrInternal("failed to allocate record id").Wrap(err)
	}
	rec := Record{
		ID:        id,
		ClassName: class,
		Date:      date.UTC(),
		Students:  students,
		CreatedAt: now.UTC(),
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return RecordResponse{}, apperr.ErrInternal("failed to save attendance").Wrap(err)
	}
	return rec.toDTO(), nil
}

// Delete は自然順で最初に一致した1件だけを消す。
func (s *Service) Delete(ctx context.Context, f intent.FilterSpec) (RecordResponse, error) {
	p, err := s.targeted(f)
	if err != nil {
		return RecordResponse{}, err
	}
	rec, ok, err := s.store.DeleteFirst(ctx, p)
	if err != nil {
		return RecordResponse{}, apperr.ErrInternal("failed to delete attendance").Wrap(err)
	}
	if !ok {
		return RecordResponse{}, noRecords(f)
	}
	return rec.toDTO(), nil
}

func (s *Service) Update(ctx context.Context, u intent.Update) (UpdateResult, error) {
	p, err := s.targeted(u.Filter)
	if err != nil {
		return UpdateResult{}, err
	}

	var (
		apply    func(r *Record) (bool, error)
		modified int
		// 対象レコードはあるが対象の生徒がいなかったときのエラー
		missing error
	)
	up := u.Updates
	switch {
	case up.RenameClass != nil && up.RenameStudent == nil && len(up.SetStatuses) == 0:
		to := strings.TrimSpace(up.RenameClass.NewClassName)
		if to == "" {
			return UpdateResult{}, apperr.ErrInvalid("renameClass needs newClassName")
		}
		apply = func(r *Record) (bool, error) {
			if r.ClassName == to {
				return false, nil
			}
			r.ClassName = to
			modified++
			return true, nil
		}

	case up.RenameStudent != nil && up.RenameClass == nil && len(up.SetStatuses) == 0:
		from, to := strings.TrimSpace(up.RenameStudent.From), strings.TrimSpace(up.RenameStudent.To)
		if from == "" || to == "" {
			return UpdateResult{}, apperr.ErrInvalid("renameStudent needs from and to")
		}
		apply = func(r *Record) (bool, error) {
			var hits []int
			taken := -1
			for i := range r.Students {
				switch {
				case textmatch.NameEquals(r.Students[i].Name, from):
					hits = append(hits, i)
				case textmatch.NameEquals(r.Students[i].Name, to):
					taken = i
				}
			}
			// 1レコード内で名前は重複させない
			if len(hits) > 0 && taken >= 0 {
				return false, apperr.ErrConflict(fmt.Sprintf("%s is already on the %s record of %s",
					r.Students[taken].Name, r.ClassName, r.Date.In(s.loc).Format(intent.DateLayout)))
			}
			for _, i := range hits {
				r.Students[i].Name = to
				modified++
			}
			return len(hits) > 0, nil
		}
		missing = apperr.ErrNotFound(fmt.Sprintf("no student named %s in %s", from, u.Filter))

	case len(up.SetStatuses) > 0 && up.RenameClass == nil && up.RenameStudent == nil:
		pairs := up.SetStatuses
		apply = func(r *Record) (bool, error) {
			changed := false
			for _, pair := range pairs {
				for i := range r.Students {
					if !textmatch.NameEquals(r.Students[i].Name, pair.Name) {
						continue
					}
					// 同じ値の再設定も件数には数える（再実行で NotFound にしない）
					modified++
					if r.Students[i].Status != pair.Status {
						r.Students[i].Status = pair.Status
						changed = true
					}
				}
			}
			return changed, nil
		}
		missing = apperr.ErrNotFound("none of the named students appear in " + u.Filter.String())

	default:
		return UpdateResult{}, apperr.ErrInvalid("unsupported update operation")
	}

	recs, err := s.store.UpdateMatching(ctx, p, apply)
	var api *apperr.APIError
	switch {
	case errors.As(err, &api):
		return UpdateResult{}, err
	case err != nil:
		return UpdateResult{}, apperr.ErrInternal("failed to update attendance").Wrap(err)
	}
	if len(recs) == 0 {
		return UpdateResult{}, noRecords(u.Filter)
	}
	if modified == 0 && missing != nil {
		return UpdateResult{}, missing
	}

	out := UpdateResult{
		MatchedRecords:  len(recs),
		ModifiedEntries: modified,
		Records:         make([]RecordResponse, 0, len(recs)),
	}
	for _, r := range recs {
		out.Records = append(out.Records, r.toDTO())
	}
	return out, nil
}

// Query: 該当なしはエラーではなく Matched=0 で返す。
func (s *Service) Query(ctx context.Context, q intent.Query) (QueryResult, error) {
	p, err := BuildPredicate(q.Filter, s.loc)
	if err != nil {
		return QueryResult{}, err
	}
	recs, err := s.store.Find(ctx, p)
	if err != nil {
		return QueryResult{}, apperr.ErrInternal("failed to read attendance").Wrap(err)
	}

	res := QueryResult{Kind: q.ResultKind, Matched: len(recs)}
	switch q.ResultKind {
	case intent.ResultPresent:
		res.PresentStudents = []string{}
		for _, r := range recs {
			res.PresentStudents = append(res.PresentStudents, r.PresentStudents()...)
		}
	case intent.ResultAbsent:
		res.AbsentStudents = []string{}
		for _, r := range recs {
			res.AbsentStudents = append(res.AbsentStudents, r.AbsentStudents()...)
		}
	default:
		res.Kind = intent.ResultAll
		res.Records = make([]RecordResponse, 0, len(recs))
		for _, r := range recs {
			res.Records = append(res.Records, r.toDTO())
		}
	}
	return res, nil
}

// GET /api/attendance
func (s *Service) List(ctx context.Context) ([]RecordResponse, error) {
	recs, err := s.store.ListRecent(ctx)
	if err != nil {
		return nil, apperr.ErrInternal("failed to list attendance").Wrap(err)
	}
	out := make([]RecordResponse, 0, len(recs))
	for i := 0; i < len(recs); i++ {
		out = append(out, recs[i].toDTO())
	}
	return out, nil
}

// GET /api/attendance/report
func (s *Service) Report(ctx context.Context) (ReportResponse, error) {
	sum, err := s.store.AbsentSummary(ctx)
	if err != nil {
		return ReportResponse{}, apperr.ErrInternal("failed to build report").Wrap(err)
	}
	return ReportResponse{Summary: sum}, nil
}

// targeted は UPDATE/DELETE 用。空フィルタは全件一致になるので弾く。
func (s *Service) targeted(f intent.FilterSpec) (Predicate, error) {
	p, err := BuildPredicate(f, s.loc)
	if err != nil {
		return Predicate{}, err
	}
	if p.Empty() {
		return Predicate{}, apperr.ErrInvalid("filter required")
	}
	return p, nil
}

func noRecords(f intent.FilterSpec) error {
	return apperr.ErrNotFound("no attendance records match " + f.String())
}
