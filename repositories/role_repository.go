package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
)

var ErrRoleNotFound = errors.New("tournament role not found")

// RoleRepository covers tournament_roles and the organizer_whitelist,
// the two sources of authorization for organizer-gated operations.
type RoleRepository interface {
	Grant(ctx context.Context, exec SQLExecutor, tournamentID, userID int, role models.TournamentRole) error
	GetRole(ctx context.Context, tournamentID, userID int) (models.TournamentRole, error)
	IsWhitelisted(ctx context.Context, email string) (bool, error)
}

type postgresRoleRepository struct {
	db *sql.DB
}

func NewPostgresRoleRepository(db *sql.DB) RoleRepository {
	return &postgresRoleRepository{db: db}
}

func (r *postgresRoleRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoleRepository) Grant(ctx context.Context, exec SQLExecutor, tournamentID, userID int, role models.TournamentRole) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_roles (tournament_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (tournament_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := executor.ExecContext(ctx, query, tournamentID, userID, role)
	return err
}

func (r *postgresRoleRepository) GetRole(ctx context.Context, tournamentID, userID int) (models.TournamentRole, error) {
	var role models.TournamentRole
	query := `SELECT role FROM tournament_roles WHERE tournament_id = $1 AND user_id = $2`
	err := r.db.QueryRowContext(ctx, query, tournamentID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrRoleNotFound
		}
		return "", err
	}
	return role, nil
}

func (r *postgresRoleRepository) IsWhitelisted(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM organizer_whitelist WHERE lower(email) = lower($1))`
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
