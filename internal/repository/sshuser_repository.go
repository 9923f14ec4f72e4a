package repository

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const createSSHUsersTable = `
CREATE TABLE IF NOT EXISTS ssh_users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL,
    fingerprint   TEXT NOT NULL UNIQUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_login_at TIMESTAMPTZ
);
`

// SSHUser is an account allowed to open the terminal dashboard, identified
// by the SHA256 fingerprint of its public key.
type SSHUser struct {
	ID          int64
	Username    string
	Fingerprint string
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

type SSHUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSSHUserRepository(pool PgxPool, tracer trace.Tracer) *SSHUserRepository {
	return &SSHUserRepository{pool: pool, tracer: tracer}
}

func (r *SSHUserRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "sshuser-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createSSHUsersTable)
	return err
}

// FindByFingerprint returns the user owning the given key fingerprint, or
// nil when no account matches.
func (r *SSHUserRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*SSHUser, error) {
	_, span := r.tracer.Start(ctx, "sshuser-repo.find-by-fingerprint")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, username, fingerprint, created_at, last_login_at
		 FROM ssh_users
		 WHERE fingerprint = $1`,
		fingerprint,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var user SSHUser
	if err := rows.Scan(&user.ID, &user.Username, &user.Fingerprint, &user.CreatedAt, &user.LastLoginAt); err != nil {
		return nil, err
	}
	return &user, rows.Err()
}

func (r *SSHUserRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, span := r.tracer.Start(ctx, "sshuser-repo.update-last-login")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE ssh_users SET last_login_at = now() WHERE id = $1`, id)
	return err
}
