package service

import (
	"context"
	"errors"
	"strings"

	dom "github.com/jaburtog/CRUD-20251202/internal/domain"
	"github.com/jaburtog/CRUD-20251202/internal/repo"
	"github.com/jaburtog/CRUD-20251202/internal/utils"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
	ErrEmailTaken  = errors.New("email in use by another user")
)

// UserService holds the user business rules on top of the repo.
type UserService struct {
	repo repo.UserRepo
}

// NewUserService returns a new UserService.
func NewUserService(repo repo.UserRepo) *UserService {
	return &UserService{repo: repo}
}

// Create stores a new user after checking email uniqueness. The check and
// the insert run in one transaction; a nil active defers to the storage
// default.
func (s *UserService) Create(ctx context.Context, name, email string, phone *string, active *bool) (dom.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	var created dom.User
	err := s.repo.InTx(ctx, func(r repo.UserRepo) error {
		_, err := r.GetByEmail(ctx, email)
		if err == nil {
			return ErrEmailExists
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		created, err = r.Create(ctx, name, email, phone, active)
		if utils.IsPGUniqueViolation(err) {
			// Concurrent insert slipped past the check; the unique index
			// on email is the backstop.
			return ErrEmailExists
		}
		return err
	})
	if err != nil {
		return dom.User{}, err
	}
	return created, nil
}

// Update replaces name, email, phone and active of an existing user.
// Changing the email to one owned by a different user fails.
func (s *UserService) Update(ctx context.Context, id int64, name, email string, phone *string, active bool) (dom.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	var updated dom.User
	err := s.repo.InTx(ctx, func(r repo.UserRepo) error {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if existing.Email != email {
			owner, err := r.GetByEmail(ctx, email)
			if err == nil && owner.ID != id {
				return ErrEmailTaken
			}
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
		}
		existing.Name = name
		existing.Email = email
		existing.Phone = phone
		existing.Active = active
		updated, err = r.Update(ctx, existing)
		if utils.IsPGUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	})
	if err != nil {
		return dom.User{}, err
	}
	return updated, nil
}

// Delete removes a user by id. Missing id is reported as ErrNotFound.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.repo.InTx(ctx, func(r repo.UserRepo) error {
		if _, err := r.GetByID(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return r.Delete(ctx, id)
	})
}

// GetByID returns the user by id.
func (s *UserService) GetByID(ctx context.Context, id int64) (dom.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrNotFound
		}
		return dom.User{}, err
	}
	return u, nil
}

// GetByEmail returns the user by email. Absence is not an error: the
// second return is false and err is nil.
func (s *UserService) GetByEmail(ctx context.Context, email string) (dom.User, bool, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, false, nil
		}
		return dom.User{}, false, err
	}
	return u, true, nil
}

// List returns all users ordered by id ascending.
func (s *UserService) List(ctx context.Context) ([]dom.User, error) {
	return s.repo.List(ctx)
}

// ListActive returns all active users ordered by id ascending.
func (s *UserService) ListActive(ctx context.Context) ([]dom.User, error) {
	return s.repo.ListActive(ctx)
}
