package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/lib/pq"
)

var ErrBracketTeamNotFound = errors.New("bracket team not found")

type BracketTeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.BracketTeam) error
	GetByID(ctx context.Context, id int) (*models.BracketTeam, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.BracketTeam, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresBracketTeamRepository struct {
	db *sql.DB
}

func NewPostgresBracketTeamRepository(db *sql.DB) BracketTeamRepository {
	return &postgresBracketTeamRepository{db: db}
}

func (r *postgresBracketTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const bracketTeamColumns = `id, tournament_id, name, seed_rank, pod_ids, created_at`

func (r *postgresBracketTeamRepository) scan(row interface{ Scan(...interface{}) error }) (*models.BracketTeam, error) {
	var t models.BracketTeam
	var podIDs pq.Int64Array
	err := row.Scan(&t.ID, &t.TournamentID, &t.Name, &t.SeedRank, &podIDs, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketTeamNotFound
		}
		return nil, err
	}
	t.PodIDs = toInts(podIDs)
	return &t, nil
}

func (r *postgresBracketTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.BracketTeam) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO bracket_teams (tournament_id, name, seed_rank, pod_ids)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return executor.QueryRowContext(ctx, query,
		team.TournamentID, team.Name, team.SeedRank, pq.Int64Array(toInt64s(team.PodIDs)),
	).Scan(&team.ID, &team.CreatedAt)
}

func (r *postgresBracketTeamRepository) GetByID(ctx context.Context, id int) (*models.BracketTeam, error) {
	query := `SELECT ` + bracketTeamColumns + ` FROM bracket_teams WHERE id = $1`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresBracketTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.BracketTeam, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + bracketTeamColumns + ` FROM bracket_teams WHERE tournament_id = $1 ORDER BY seed_rank ASC`
	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bracket teams for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]*models.BracketTeam, 0)
	for rows.Next() {
		t, scanErr := r.scan(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *postgresBracketTeamRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM bracket_teams WHERE tournament_id = $1`, tournamentID)
	return err
}
