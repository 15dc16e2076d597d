package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

const uniqueViolation = "23505"

const userColumns = `id, email, first_name, last_name, display_name, avatar, role, status,
	email_verified, created_at, updated_at, last_login_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id vo.UserID) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, pgUUID(id))
	return scanOne(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email vo.Email) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email.String())
	return scanOne(row)
}

// Save upserts on id. A different row holding the same email surfaces as a conflict.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	s := u.Snapshot()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			display_name = EXCLUDED.display_name,
			avatar = EXCLUDED.avatar,
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			email_verified = EXCLUDED.email_verified,
			updated_at = EXCLUDED.updated_at,
			last_login_at = EXCLUDED.last_login_at
	`,
		pgUUID(s.ID), s.Email.String(), s.FirstName, s.LastName, s.DisplayName, s.Avatar,
		s.Role.String(), s.Status.String(), s.EmailVerified, s.CreatedAt, s.UpdatedAt, pgTime(s.LastLoginAt),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domainerr.Conflict("email already registered")
	}
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id vo.UserID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, pgUUID(id))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email vo.Email) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) FindActiveUsers(ctx context.Context) ([]*entity.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE status = $1 ORDER BY created_at`, vo.StatusActive.String())
}

// FindByEmailDomain compares the part after '@' literally; no pattern matching.
func (r *UserRepository) FindByEmailDomain(ctx context.Context, domain string) ([]*entity.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE split_part(email, '@', 2) = $1 ORDER BY created_at`,
		strings.ToLower(domain))
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id vo.UserID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET last_login_at = $2, updated_at = GREATEST(updated_at, $2)
		WHERE id = $1
	`, pgUUID(id), at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SaveCredential(ctx context.Context, c repository.Credential) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO auth_methods (user_id, provider, secret, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, provider) DO UPDATE SET secret = EXCLUDED.secret, updated_at = NOW()
	`, pgUUID(c.UserID), c.Provider.String(), c.Secret)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (r *UserRepository) FindCredential(ctx context.Context, userID vo.UserID, provider vo.AuthProvider) (repository.Credential, error) {
	var secret string
	err := r.pool.QueryRow(ctx, `
		SELECT secret FROM auth_methods WHERE user_id = $1 AND provider = $2
	`, pgUUID(userID), provider.String()).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Credential{}, repository.ErrCredentialNotFound
	}
	if err != nil {
		return repository.Credential{}, fmt.Errorf("find credential: %w", err)
	}
	return repository.Credential{UserID: userID, Provider: provider, Secret: secret}, nil
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanOne(row pgx.Row) (*entity.User, error) {
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	return u, err
}

// scanUser rebuilds the aggregate through the trusting Rehydrate path.
func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		id                  pgtype.UUID
		email, role, status string
		s                   entity.Snapshot
		lastLogin           pgtype.Timestamptz
	)
	err := row.Scan(&id, &email, &s.FirstName, &s.LastName, &s.DisplayName, &s.Avatar,
		&role, &status, &s.EmailVerified, &s.CreatedAt, &s.UpdatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	s.ID = vo.RestoreUserID(uuid.UUID(id.Bytes))
	s.Email = vo.RestoreEmail(email)
	s.Role = vo.Role(role)
	s.Status = vo.Status(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		s.LastLoginAt = &t
	}
	return entity.Rehydrate(s), nil
}

func pgUUID(id vo.UserID) pgtype.UUID {
	return pgtype.UUID{Bytes: [16]byte(id.UUID()), Valid: !id.IsZero()}
}

func pgTime(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

var (
	_ repository.UserRepository       = (*UserRepository)(nil)
	_ repository.CredentialRepository = (*UserRepository)(nil)
)
