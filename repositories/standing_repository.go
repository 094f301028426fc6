package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
)

var ErrStandingNotFound = errors.New("pool standing not found")

type StandingRepository interface {
	// ApplyResult additively folds one game result into a pod's row,
	// creating the row with the game's stats when it does not exist yet.
	ApplyResult(ctx context.Context, exec SQLExecutor, tournamentID, podID int, won bool, pointsFor, pointsAgainst int) error
	GetByPod(ctx context.Context, exec SQLExecutor, tournamentID, podID int) (*models.PoolStanding, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.PoolStanding, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) ApplyResult(ctx context.Context, exec SQLExecutor, tournamentID, podID int, won bool, pointsFor, pointsAgainst int) error {
	executor := r.getExecutor(exec)
	wins, losses := 0, 1
	if won {
		wins, losses = 1, 0
	}
	query := `
		INSERT INTO pool_standings (tournament_id, pod_id, wins, losses, points_for, points_against, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (tournament_id, pod_id) DO UPDATE SET
			wins = pool_standings.wins + EXCLUDED.wins,
			losses = pool_standings.losses + EXCLUDED.losses,
			points_for = pool_standings.points_for + EXCLUDED.points_for,
			points_against = pool_standings.points_against + EXCLUDED.points_against,
			updated_at = NOW()`
	_, err := executor.ExecContext(ctx, query, tournamentID, podID, wins, losses, pointsFor, pointsAgainst)
	if err != nil {
		return fmt.Errorf("failed to apply result for pod %d in tournament %d: %w", podID, tournamentID, err)
	}
	return nil
}

func (r *postgresStandingRepository) scan(row interface{ Scan(...interface{}) error }) (*models.PoolStanding, error) {
	var s models.PoolStanding
	err := row.Scan(
		&s.ID, &s.TournamentID, &s.PodID, &s.Wins, &s.Losses,
		&s.PointsFor, &s.PointsAgainst, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

const standingColumns = `id, tournament_id, pod_id, wins, losses, points_for, points_against, updated_at`

func (r *postgresStandingRepository) GetByPod(ctx context.Context, exec SQLExecutor, tournamentID, podID int) (*models.PoolStanding, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + standingColumns + ` FROM pool_standings WHERE tournament_id = $1 AND pod_id = $2`
	return r.scan(executor.QueryRowContext(ctx, query, tournamentID, podID))
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.PoolStanding, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + standingColumns + ` FROM pool_standings WHERE tournament_id = $1 ORDER BY pod_id ASC`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.PoolStanding, 0)
	for rows.Next() {
		s, scanErr := r.scan(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (r *postgresStandingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM pool_standings WHERE tournament_id = $1`, tournamentID)
	return err
}
