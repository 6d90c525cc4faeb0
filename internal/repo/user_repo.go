package repo

import (
	"context"
	"fmt"

	dom "github.com/jaburtog/CRUD-20251202/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepo provides user persistence.
type UserRepo interface {
	Create(ctx context.Context, name, email string, phone *string, active *bool) (dom.User, error)
	Update(ctx context.Context, u dom.User) (dom.User, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (dom.User, error)
	GetByEmail(ctx context.Context, email string) (dom.User, error)
	List(ctx context.Context) ([]dom.User, error)
	ListActive(ctx context.Context) ([]dom.User, error)
	// InTx runs fn against a repo bound to a single transaction.
	// Commits when fn returns nil, rolls back otherwise.
	InTx(ctx context.Context, fn func(UserRepo) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db   querier
	pool *pgxpool.Pool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(pool *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: pool, pool: pool}
}

// InTx begins a transaction and runs fn against a repo bound to it.
func (r *PGUserRepo) InTx(ctx context.Context, fn func(UserRepo) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&PGUserRepo{db: tx, pool: r.pool}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Create inserts a new user and returns it with the generated id.
// A nil active falls back to the column default.
func (r *PGUserRepo) Create(ctx context.Context, name, email string, phone *string, active *bool) (dom.User, error) {
	query := `
		INSERT INTO users (name, email, phone, active)
		VALUES ($1, $2, $3, COALESCE($4, TRUE))
		RETURNING id, name, email, phone, active`
	var u dom.User
	err := r.db.QueryRow(ctx, query, name, email, phone, active).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Active,
	)
	return u, err
}

// Update overwrites name, email, phone and active of an existing row.
func (r *PGUserRepo) Update(ctx context.Context, u dom.User) (dom.User, error) {
	query := `
		UPDATE users SET name = $2, email = $3, phone = $4, active = $5
		WHERE id = $1
		RETURNING id, name, email, phone, active`
	var out dom.User
	err := r.db.QueryRow(ctx, query, u.ID, u.Name, u.Email, u.Phone, u.Active).Scan(
		&out.ID, &out.Name, &out.Email, &out.Phone, &out.Active,
	)
	return out, err
}

// Delete removes the row with the given id. No-op if absent.
func (r *PGUserRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// GetByID returns the user by id.
func (r *PGUserRepo) GetByID(ctx context.Context, id int64) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, phone, active FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Active)
	return u, err
}

// GetByEmail returns the user by email. At most one row exists per the
// uniqueness invariant.
func (r *PGUserRepo) GetByEmail(ctx context.Context, email string) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, phone, active FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Active)
	return u, err
}

// List returns all users ordered by id ascending.
func (r *PGUserRepo) List(ctx context.Context) ([]dom.User, error) {
	query := `SELECT id, name, email, phone, active FROM users ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.User
	for rows.Next() {
		var u dom.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Active); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ListActive returns all users with active = true ordered by id ascending.
func (r *PGUserRepo) ListActive(ctx context.Context) ([]dom.User, error) {
	query := `SELECT id, name, email, phone, active FROM users WHERE active ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []dom.User
	for rows.Next() {
		var u dom.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Active); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
