package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/live"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/repositories"
)

// PoolGamesRequired is the number of completed pool games that gates
// bracket initialization.
const PoolGamesRequired = 6

const podsPerTournament = 9

// poolRotation is the fixed 9-pod, 6-game pool schedule. Entries are
// seed positions (1-based); every pod plays four games and sits two.
var poolRotation = []struct{ teamA, teamB, sitting [3]int }{
	{teamA: [3]int{1, 2, 3}, teamB: [3]int{4, 5, 6}, sitting: [3]int{7, 8, 9}},
	{teamA: [3]int{4, 5, 6}, teamB: [3]int{7, 8, 9}, sitting: [3]int{1, 2, 3}},
	{teamA: [3]int{7, 8, 9}, teamB: [3]int{1, 2, 3}, sitting: [3]int{4, 5, 6}},
	{teamA: [3]int{1, 4, 7}, teamB: [3]int{2, 5, 8}, sitting: [3]int{3, 6, 9}},
	{teamA: [3]int{2, 5, 8}, teamB: [3]int{3, 6, 9}, sitting: [3]int{1, 4, 7}},
	{teamA: [3]int{3, 6, 9}, teamB: [3]int{1, 4, 7}, sitting: [3]int{2, 5, 8}},
}

type GameService interface {
	SchedulePoolGames(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error)
	StartNextGame(ctx context.Context, tournamentID int) (*models.PoolMatch, error)
	UpdateScore(ctx context.Context, matchID, teamAScore, teamBScore int) (*models.PoolMatch, error)
	CompleteGame(ctx context.Context, matchID int) (*models.PoolMatch, error)
	ListGames(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error)
}

type gameService struct {
	tx             TxRunner
	matchRepo      repositories.PoolMatchRepository
	podRepo        repositories.PodRepository
	tournamentRepo repositories.TournamentRepository
	standings      StandingsService
	hub            Broadcaster
	rules          ScoreRules
	logger         *slog.Logger
}

func NewGameService(
	tx TxRunner,
	matchRepo repositories.PoolMatchRepository,
	podRepo repositories.PodRepository,
	tournamentRepo repositories.TournamentRepository,
	standings StandingsService,
	hub Broadcaster,
	logger *slog.Logger,
) GameService {
	return &gameService{
		tx:             tx,
		matchRepo:      matchRepo,
		podRepo:        podRepo,
		tournamentRepo: tournamentRepo,
		standings:      standings,
		hub:            hub,
		rules:          DefaultScoreRules(),
		logger:         logger,
	}
}

// SchedulePoolGames creates the fixed 6-game pool schedule for a
// tournament with exactly 9 registered pods. Idempotent: if a schedule
// exists, it is returned unchanged.
func (s *gameService) SchedulePoolGames(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error) {
	existing, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing schedule: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	pods, err := s.podRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	if len(pods) != podsPerTournament {
		return nil, fmt.Errorf("%w: need %d pods, have %d", ErrPodCountInvalid, podsPerTournament, len(pods))
	}

	podAt := func(seedPositions [3]int) []int {
		ids := make([]int, 0, len(seedPositions))
		for _, pos := range seedPositions {
			ids = append(ids, pods[pos-1].ID)
		}
		return ids
	}

	matches := make([]*models.PoolMatch, 0, len(poolRotation))
	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		for i, round := range poolRotation {
			match := &models.PoolMatch{
				TournamentID: tournamentID,
				GameNumber:   i + 1,
				TeamAPods:    podAt(round.teamA),
				TeamBPods:    podAt(round.teamB),
				SittingPods:  podAt(round.sitting),
				Status:       models.MatchStatusPending,
			}
			if createErr := s.matchRepo.Create(ctx, exec, match); createErr != nil {
				return fmt.Errorf("failed to create game %d: %w", match.GameNumber, createErr)
			}
			matches = append(matches, match)
		}
		return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusPoolPlay)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pool schedule created",
		slog.Int("tournament_id", tournamentID), slog.Int("games", len(matches)))
	s.hub.BroadcastToRoom(live.TournamentRoom(tournamentID), live.Message{
		Type:    live.TypeTournamentUpdated,
		Payload: matches,
		RoomID:  live.TournamentRoom(tournamentID),
	})
	return matches, nil
}

// StartNextGame moves the lowest-numbered pending game to in_progress.
// Only one pool game may run at a time.
func (s *gameService) StartNextGame(ctx context.Context, tournamentID int) (*models.PoolMatch, error) {
	inProgress, err := s.matchRepo.AnyInProgress(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check in-progress games: %w", err)
	}
	if inProgress {
		return nil, ErrGameAlreadyInProgress
	}

	match, err := s.matchRepo.NextPending(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolMatchNotFound) {
			return nil, ErrNoPendingGames
		}
		return nil, fmt.Errorf("failed to find next pending game: %w", err)
	}

	if err := s.matchRepo.UpdateStatus(ctx, nil, match.ID, models.MatchStatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to start game %d: %w", match.GameNumber, err)
	}
	match.Status = models.MatchStatusInProgress

	s.broadcastMatch(tournamentID, match)
	return match, nil
}

// UpdateScore sets the live score of an in-progress game. Scores move
// freely in both directions until the game is completed.
func (s *gameService) UpdateScore(ctx context.Context, matchID, teamAScore, teamBScore int) (*models.PoolMatch, error) {
	if teamAScore < 0 || teamBScore < 0 {
		return nil, ErrInvalidScore
	}

	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.Status != models.MatchStatusInProgress {
		return nil, ErrMatchNotInProgress
	}

	if err := s.matchRepo.UpdateScore(ctx, nil, matchID, teamAScore, teamBScore); err != nil {
		return nil, fmt.Errorf("failed to update score: %w", err)
	}
	match.TeamAScore = teamAScore
	match.TeamBScore = teamBScore

	s.broadcastMatch(match.TournamentID, match)
	return match, nil
}

// CompleteGame validates the stored score as terminal, marks the game
// completed and folds the result into the standings. All writes share
// one transaction; a failed standings update rolls back the completion.
func (s *gameService) CompleteGame(ctx context.Context, matchID int) (*models.PoolMatch, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	switch match.Status {
	case models.MatchStatusCompleted:
		return nil, ErrMatchAlreadyCompleted
	case models.MatchStatusInProgress:
	default:
		return nil, ErrMatchNotInProgress
	}

	if err := ValidateFinalScore(match.TeamAScore, match.TeamBScore, s.rules); err != nil {
		return nil, err
	}

	winningPods, losingPods := match.TeamAPods, match.TeamBPods
	winningScore, losingScore := match.TeamAScore, match.TeamBScore
	if match.TeamBScore > match.TeamAScore {
		winningPods, losingPods = match.TeamBPods, match.TeamAPods
		winningScore, losingScore = match.TeamBScore, match.TeamAScore
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.UpdateStatus(ctx, exec, matchID, models.MatchStatusCompleted); err != nil {
			return err
		}
		return s.standings.RecordGameResult(ctx, exec, match.TournamentID,
			winningPods, losingPods, winningScore, losingScore)
	})
	if err != nil {
		return nil, err
	}
	match.Status = models.MatchStatusCompleted

	s.logger.Info("pool game completed",
		slog.Int("tournament_id", match.TournamentID),
		slog.Int("game_number", match.GameNumber),
		slog.Int("team_a_score", match.TeamAScore),
		slog.Int("team_b_score", match.TeamBScore))

	room := live.TournamentRoom(match.TournamentID)
	s.broadcastMatch(match.TournamentID, match)
	s.hub.BroadcastToRoom(room, live.Message{Type: live.TypeStandingsUpdated, RoomID: room})
	return match, nil
}

func (s *gameService) ListGames(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error) {
	return s.matchRepo.ListByTournament(ctx, tournamentID)
}

func (s *gameService) broadcastMatch(tournamentID int, match *models.PoolMatch) {
	room := live.TournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, live.Message{
		Type:    live.TypeMatchUpdated,
		Payload: match,
		RoomID:  room,
	})
}
