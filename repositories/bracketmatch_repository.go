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
	ErrBracketMatchNotFound       = errors.New("bracket match not found")
	ErrBracketMatchNumberConflict = errors.New("bracket match game number already exists")
)

type BracketMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.BracketMatch) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.BracketMatch, error)
	GetByGameNumber(ctx context.Context, exec SQLExecutor, tournamentID, gameNumber int) (*models.BracketMatch, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.BracketMatch, error)
	NextPending(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.BracketMatch, error)
	AnyInProgress(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error)
	SetTeamSlot(ctx context.Context, exec SQLExecutor, tournamentID, gameNumber, slot, teamID int) error
	UpdateScore(ctx context.Context, exec SQLExecutor, id, teamAScore, teamBScore int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresBracketMatchRepository struct {
	db *sql.DB
}

func NewPostgresBracketMatchRepository(db *sql.DB) BracketMatchRepository {
	return &postgresBracketMatchRepository{db: db}
}

func (r *postgresBracketMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const bracketMatchColumns = `id, tournament_id, game_number, bracket_type, team_a_id, team_b_id,
	team_a_score, team_b_score, status, created_at`

func (r *postgresBracketMatchRepository) scan(row interface{ Scan(...interface{}) error }) (*models.BracketMatch, error) {
	var m models.BracketMatch
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.GameNumber, &m.BracketType, &m.TeamAID, &m.TeamBID,
		&m.TeamAScore, &m.TeamBScore, &m.Status, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresBracketMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.BracketMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO bracket_matches (tournament_id, game_number, bracket_type, team_a_id, team_b_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		match.TournamentID, match.GameNumber, match.BracketType,
		match.TeamAID, match.TeamBID, match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	return r.handleError(err)
}

func (r *postgresBracketMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.BracketMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + bracketMatchColumns + ` FROM bracket_matches WHERE id = $1`
	return r.scan(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresBracketMatchRepository) GetByGameNumber(ctx context.Context, exec SQLExecutor, tournamentID, gameNumber int) (*models.BracketMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + bracketMatchColumns + ` FROM bracket_matches WHERE tournament_id = $1 AND game_number = $2`
	return r.scan(executor.QueryRowContext(ctx, query, tournamentID, gameNumber))
}

func (r *postgresBracketMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.BracketMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + bracketMatchColumns + ` FROM bracket_matches WHERE tournament_id = $1 ORDER BY game_number ASC`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bracket matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.BracketMatch, 0)
	for rows.Next() {
		m, scanErr := r.scan(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// NextPending returns the lowest-numbered pending game whose both team
// slots are filled; games still waiting on a feeder result are skipped.
func (r *postgresBracketMatchRepository) NextPending(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.BracketMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + bracketMatchColumns + `
		FROM bracket_matches
		WHERE tournament_id = $1 AND status = $2 AND team_a_id IS NOT NULL AND team_b_id IS NOT NULL
		ORDER BY game_number ASC
		LIMIT 1`
	return r.scan(executor.QueryRowContext(ctx, query, tournamentID, models.MatchStatusPending))
}

func (r *postgresBracketMatchRepository) AnyInProgress(ctx context.Context, exec SQLExecutor, tournamentID int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM bracket_matches WHERE tournament_id = $1 AND status = $2)`
	err := executor.QueryRowContext(ctx, query, tournamentID, models.MatchStatusInProgress).Scan(&exists)
	return exists, err
}

func (r *postgresBracketMatchRepository) SetTeamSlot(ctx context.Context, exec SQLExecutor, tournamentID, gameNumber, slot, teamID int) error {
	executor := r.getExecutor(exec)
	column := "team_a_id"
	if slot == 2 {
		column = "team_b_id"
	}
	query := fmt.Sprintf(`UPDATE bracket_matches SET %s = $1 WHERE tournament_id = $2 AND game_number = $3`, column)
	result, err := executor.ExecContext(ctx, query, teamID, tournamentID, gameNumber)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBracketMatchNotFound)
}

func (r *postgresBracketMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id, teamAScore, teamBScore int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE bracket_matches SET team_a_score = $1, team_b_score = $2 WHERE id = $3`
	result, err := executor.ExecContext(ctx, query, teamAScore, teamBScore, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBracketMatchNotFound)
}

func (r *postgresBracketMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE bracket_matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBracketMatchNotFound)
}

func (r *postgresBracketMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM bracket_matches WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresBracketMatchRepository) handleError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "bracket_matches_tournament_id_game_number_key" {
		return ErrBracketMatchNumberConflict
	}
	return err
}
