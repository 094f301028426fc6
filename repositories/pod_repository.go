package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/lib/pq"
)

var (
	ErrPodNotFound          = errors.New("pod not found")
	ErrPodTournamentInvalid = errors.New("pod tournament conflict or invalid")
	ErrPodAlreadyRegistered = errors.New("pod already registered for this tournament")
)

type PodRepository interface {
	Create(ctx context.Context, exec SQLExecutor, pod *models.Pod) error
	GetByID(ctx context.Context, id int) (*models.Pod, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Pod, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	ExistsByUser(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (bool, error)
	ExistsByEmail(ctx context.Context, exec SQLExecutor, tournamentID int, email string) (bool, error)
	UpdateName(ctx context.Context, id int, name string) error
}

type postgresPodRepository struct {
	db *sql.DB
}

func NewPostgresPodRepository(db *sql.DB) PodRepository {
	return &postgresPodRepository{db: db}
}

func (r *postgresPodRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const podColumns = `id, tournament_id, name, players, contact_email, user_id, seed, manage_token_hash, created_at`

func (r *postgresPodRepository) scan(row interface{ Scan(...interface{}) error }) (*models.Pod, error) {
	var p models.Pod
	var players pq.StringArray
	err := row.Scan(
		&p.ID, &p.TournamentID, &p.Name, &players, &p.ContactEmail,
		&p.UserID, &p.Seed, &p.ManageTokenHash, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPodNotFound
		}
		return nil, err
	}
	p.Players = players
	return &p, nil
}

// Create assigns the next dense seed within the tournament as part of
// the insert so concurrent registrations cannot collide on a seed.
func (r *postgresPodRepository) Create(ctx context.Context, exec SQLExecutor, pod *models.Pod) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO pods (tournament_id, name, players, contact_email, user_id, seed, manage_token_hash)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(seed), 0) + 1 FROM pods WHERE tournament_id = $1),
			$6)
		RETURNING id, seed, created_at`
	err := executor.QueryRowContext(ctx, query,
		pod.TournamentID, pod.Name, pq.StringArray(pod.Players), pod.ContactEmail,
		pod.UserID, pod.ManageTokenHash,
	).Scan(&pod.ID, &pod.Seed, &pod.CreatedAt)
	return r.handleError(err)
}

func (r *postgresPodRepository) GetByID(ctx context.Context, id int) (*models.Pod, error) {
	query := `SELECT ` + podColumns + ` FROM pods WHERE id = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPodRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Pod, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + podColumns + ` FROM pods WHERE tournament_id = $1 ORDER BY seed ASC`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pods for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	pods := make([]*models.Pod, 0)
	for rows.Next() {
		p, scanErr := r.scan(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		pods = append(pods, p)
	}
	return pods, rows.Err()
}

func (r *postgresPodRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM pods WHERE tournament_id = $1`, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresPodRepository) ExistsByUser(ctx context.Context, exec SQLExecutor, tournamentID, userID int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM pods WHERE tournament_id = $1 AND user_id = $2)`
	err := executor.QueryRowContext(ctx, query, tournamentID, userID).Scan(&exists)
	return exists, err
}

func (r *postgresPodRepository) ExistsByEmail(ctx context.Context, exec SQLExecutor, tournamentID int, email string) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM pods WHERE tournament_id = $1 AND lower(contact_email) = lower($2))`
	err := executor.QueryRowContext(ctx, query, tournamentID, email).Scan(&exists)
	return exists, err
}

func (r *postgresPodRepository) UpdateName(ctx context.Context, id int, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE pods SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPodNotFound)
}

func (r *postgresPodRepository) handleError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "pods_tournament_id_fkey":
			return ErrPodTournamentInvalid
		case "pods_tournament_id_user_id_key", "pods_tournament_id_contact_email_key":
			return ErrPodAlreadyRegistered
		}
	}
	return err
}
