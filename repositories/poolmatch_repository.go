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
	ErrPoolMatchNotFound          = errors.New("pool match not found")
	ErrPoolMatchTournamentInvalid = errors.New("pool match tournament conflict or invalid")
	ErrPoolMatchNumberConflict    = errors.New("pool match game number already exists")
)

type PoolMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.PoolMatch) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.PoolMatch, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error)
	NextPending(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.PoolMatch, error)
	AnyInProgress(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error)
	CountByStatus(ctx context.Context, exec SQLExecutor, tournamentID int, status models.MatchStatus) (int, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id, teamAScore, teamBScore int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
}

type postgresPoolMatchRepository struct {
	db *sql.DB
}

func NewPostgresPoolMatchRepository(db *sql.DB) PoolMatchRepository {
	return &postgresPoolMatchRepository{db: db}
}

func (r *postgresPoolMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const poolMatchColumns = `id, tournament_id, game_number, team_a_pods, team_b_pods, sitting_pods,
	team_a_score, team_b_score, status, created_at`

func (r *postgresPoolMatchRepository) scan(row interface{ Scan(...interface{}) error }) (*models.PoolMatch, error) {
	var m models.PoolMatch
	var teamA, teamB, sitting pq.Int64Array
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.GameNumber, &teamA, &teamB, &sitting,
		&m.TeamAScore, &m.TeamBScore, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolMatchNotFound
		}
		return nil, err
	}
	m.TeamAPods = toInts(teamA)
	m.TeamBPods = toInts(teamB)
	m.SittingPods = toInts(sitting)
	return &m, nil
}

func (r *postgresPoolMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.PoolMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO pool_matches (tournament_id, game_number, team_a_pods, team_b_pods, sitting_pods, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		match.TournamentID, match.GameNumber,
		pq.Int64Array(toInt64s(match.TeamAPods)),
		pq.Int64Array(toInt64s(match.TeamBPods)),
		pq.Int64Array(toInt64s(match.SittingPods)),
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	return r.handleError(err)
}

func (r *postgresPoolMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.PoolMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + poolMatchColumns + ` FROM pool_matches WHERE id = $1`
	return r.scan(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresPoolMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error) {
	query := `SELECT ` + poolMatchColumns + ` FROM pool_matches WHERE tournament_id = $1 ORDER BY game_number ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pool matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.PoolMatch, 0)
	for rows.Next() {
		m, scanErr := r.scan(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresPoolMatchRepository) NextPending(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.PoolMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + poolMatchColumns + `
		FROM pool_matches
		WHERE tournament_id = $1 AND status = $2
		ORDER BY game_number ASC
		LIMIT 1`
	return r.scan(executor.QueryRowContext(ctx, query, tournamentID, models.MatchStatusPending))
}

func (r *postgresPoolMatchRepository) AnyInProgress(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM pool_matches WHERE tournament_id = $1 AND status = $2)`
	err := executor.QueryRowContext(ctx, query, tournamentID, models.MatchStatusInProgress).Scan(&exists)
	return exists, err
}

func (r *postgresPoolMatchRepository) CountByStatus(ctx context.Context, exec SQLExecutor, tournamentID int, status models.MatchStatus) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	query := `SELECT COUNT(*) FROM pool_matches WHERE tournament_id = $1 AND status = $2`
	err := executor.QueryRowContext(ctx, query, tournamentID, status).Scan(&count)
	return count, err
}

func (r *postgresPoolMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id, teamAScore, teamBScore int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE pool_matches SET team_a_score = $1, team_b_score = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, teamAScore, teamBScore, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPoolMatchNotFound)
}

func (r *postgresPoolMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE pool_matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPoolMatchNotFound)
}

func (r *postgresPoolMatchRepository) handleError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "pool_matches_tournament_id_fkey":
			return ErrPoolMatchTournamentInvalid
		case "pool_matches_tournament_id_game_number_key":
			return ErrPoolMatchNumberConflict
		}
	}
	return err
}
