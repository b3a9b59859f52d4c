package roster

import (
	"context"
	"errors"
	"strings"

	"ROLLCALL-backend/internal/platform/apperr"
	"ROLLCALL-backend/internal/platform/db"
)

var errExists = errors.New("roster: class already exists")

// Service is the admin side of rosters (CRUD over class_rosters).
type Service struct {
	store *SQLStore
}

func NewService(store *SQLStore) *Service { return &Service{store: store} }

func normalizeClassName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.ErrInvalid("className is required")
	}
	return name, nil
}

func normalizeStudents(names []string) ([]string, error) {
	out := distinct(names)
	if len(out) == 0 {
		return nil, apperr.ErrInvalid("students are required")
	}
	return out, nil
}

func (s *Service) List(ctx context.Context) ([]Roster, error) {
	res, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.ErrInternal("failed to list rosters").Wrap(err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, className string) (*Roster, error) {
	c, err := normalizeClassName(className)
	if err != nil {
		return nil, err
	}
	names, ok, err := s.store.Get(ctx, c)
	if err != nil {
		return nil, apperr.ErrInternal("failed to get roster").Wrap(err)
	}
	if !ok {
		return nil, apperr.ErrNotFound("roster not found")
	}
	return &Roster{ClassName: c, Students: names}, nil
}

func (s *Service) Create(ctx context.Context, req CreateRosterRequest) (*Roster, error) {
	c, err := normalizeClassName(req.ClassName)
	if err != nil {
		return nil, err
	}
	names, err := normalizeStudents(req.Students)
	if err != nil {
		return nil, err
	}
	r := Roster{ClassName: c, Students: names}
	if err := s.store.Create(ctx, r); err != nil {
		if errors.Is(err, errExists) || db.IsDuplicateKey(err) {
			return nil, apperr.ErrConflict("roster for " + c + " already exists")
		}
		return nil, apperr.ErrInternal("failed to create roster").Wrap(err)
	}
	return &r, nil
}

func (s *Service) Update(ctx context.Context, className string, req UpdateRosterRequest) (*Roster, error) {
	c, err := normalizeClassName(className)
	if err != nil {
		return nil, err
	}
	names, err := normalizeStudents(req.Students)
	if err != nil {
		return nil, err
	}
	r := Roster{ClassName: c, Students: names}
	ok, err := s.store.Replace(ctx, r)
	if err != nil {
		return nil, apperr.ErrInternal("failed to update roster").Wrap(err)
	}
	if !ok {
		return nil, apperr.ErrNotFound("roster not found")
	}
	return &r, nil
}

func (s *Service) Delete(ctx context.Context, className string) error {
	c, err := normalizeClassName(className)
	if err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, c)
	if err != nil {
		return apperr.ErrInternal("failed to delete roster").Wrap(err)
	}
	if !ok {
		return apperr.ErrNotFound("roster not found")
	}
	return nil
}
