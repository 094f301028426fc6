package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/brackets"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/live"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/repositories"
	"golang.org/x/sync/errgroup"
)

// BracketView is the full bracket-stage payload consumed by the UI.
type BracketView struct {
	Teams     []*models.BracketTeam  `json:"teams"`
	Games     []*models.BracketMatch `json:"games"`
	Standings []*models.PoolStanding `json:"standings"`
}

type BracketService interface {
	// InitializeBracket seeds bracket teams from the final pool
	// standings and creates the initial game graph. Requires pool play
	// to be complete. Idempotent: repeated calls return the existing
	// bracket unchanged.
	InitializeBracket(ctx context.Context, tournamentID int) (*BracketView, error)

	// ResetBracket deletes bracket teams and games and seeds them again
	// from the current standings.
	ResetBracket(ctx context.Context, tournamentID int) (*BracketView, error)

	StartNextBracketGame(ctx context.Context, tournamentID int) (*models.BracketMatch, error)
	UpdateBracketScore(ctx context.Context, matchID, teamAScore, teamBScore int) (*models.BracketMatch, error)

	// CompleteBracketGame validates the stored score, marks the game
	// completed and advances winner and loser along the topology edges.
	// Completing the final game decides whether a championship decider
	// is required.
	CompleteBracketGame(ctx context.Context, matchID int) (*models.BracketMatch, error)

	GetBracketView(ctx context.Context, tournamentID int) (*BracketView, error)
}

// BracketMailer sends the bracket-seeded notification. Failures are
// logged, never propagated.
type BracketMailer interface {
	SendBracketSeeded(to []string, tournamentName string) error
}

type bracketService struct {
	tx             TxRunner
	teamRepo       repositories.BracketTeamRepository
	bracketRepo    repositories.BracketMatchRepository
	poolMatchRepo  repositories.PoolMatchRepository
	podRepo        repositories.PodRepository
	tournamentRepo repositories.TournamentRepository
	standings      StandingsService
	hub            Broadcaster
	mailer         BracketMailer
	topo           brackets.Topology
	rules          ScoreRules
	logger         *slog.Logger
}

func NewBracketService(
	tx TxRunner,
	teamRepo repositories.BracketTeamRepository,
	bracketRepo repositories.BracketMatchRepository,
	poolMatchRepo repositories.PoolMatchRepository,
	podRepo repositories.PodRepository,
	tournamentRepo repositories.TournamentRepository,
	standings StandingsService,
	hub Broadcaster,
	mailer BracketMailer,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		tx:             tx,
		teamRepo:       teamRepo,
		bracketRepo:    bracketRepo,
		poolMatchRepo:  poolMatchRepo,
		podRepo:        podRepo,
		tournamentRepo: tournamentRepo,
		standings:      standings,
		hub:            hub,
		mailer:         mailer,
		topo:           brackets.ThreeTeamTopology(),
		rules:          DefaultScoreRules(),
		logger:         logger,
	}
}

func (s *bracketService) InitializeBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	if err := s.requirePoolPlayComplete(ctx, tournamentID); err != nil {
		return nil, err
	}

	var seededTeams bool
	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		teams, err := s.teamRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list bracket teams: %w", err)
		}
		if len(teams) == 0 {
			if teams, err = s.seedTeams(ctx, exec, tournamentID); err != nil {
				return err
			}
			seededTeams = true
		}

		games, err := s.bracketRepo.ListByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list bracket games: %w", err)
		}
		if len(games) == 0 {
			if err = s.seedGames(ctx, exec, tournamentID, teams); err != nil {
				return err
			}
		}
		return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusBracket)
	})
	if err != nil {
		return nil, err
	}

	view, err := s.GetBracketView(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	room := live.TournamentRoom(tournamentID)
	if seededTeams {
		s.hub.BroadcastToRoom(room, live.Message{Type: live.TypeBracketSeeded, Payload: view.Teams, RoomID: room})
		s.notifyBracketSeeded(ctx, tournamentID)
	}
	s.hub.BroadcastToRoom(room, live.Message{Type: live.TypeBracketUpdated, Payload: view, RoomID: room})
	return view, nil
}

func (s *bracketService) ResetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	if err := s.requirePoolPlayComplete(ctx, tournamentID); err != nil {
		return nil, err
	}

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.bracketRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return fmt.Errorf("failed to delete bracket games: %w", err)
		}
		if err := s.teamRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return fmt.Errorf("failed to delete bracket teams: %w", err)
		}
		teams, err := s.seedTeams(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if err := s.seedGames(ctx, exec, tournamentID, teams); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusBracket)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bracket reset", slog.Int("tournament_id", tournamentID))
	view, err := s.GetBracketView(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	room := live.TournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, live.Message{Type: live.TypeBracketUpdated, Payload: view, RoomID: room})
	return view, nil
}

func (s *bracketService) requirePoolPlayComplete(ctx context.Context, tournamentID int) error {
	completed, err := s.poolMatchRepo.CountByStatus(ctx, nil, tournamentID, models.MatchStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to count completed pool games: %w", err)
	}
	if completed < PoolGamesRequired {
		return fmt.Errorf("%w: %d of %d games completed", ErrPoolPlayIncomplete, completed, PoolGamesRequired)
	}
	return nil
}

func (s *bracketService) seedTeams(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.BracketTeam, error) {
	standings, err := s.standings.RankStandings(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to rank standings: %w", err)
	}
	rankedPodIDs := make([]int, 0, len(standings))
	for _, row := range standings {
		rankedPodIDs = append(rankedPodIDs, row.PodID)
	}

	rosters, err := brackets.SeedPods(rankedPodIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPodCountInvalid, err)
	}

	teams := make([]*models.BracketTeam, 0, len(rosters))
	for i, roster := range rosters {
		team := &models.BracketTeam{
			TournamentID: tournamentID,
			Name:         brackets.TeamName(i + 1),
			SeedRank:     i + 1,
			PodIDs:       roster,
		}
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", team.Name, err)
		}
		teams = append(teams, team)
	}
	s.logger.Info("bracket teams seeded", slog.Int("tournament_id", tournamentID), slog.Int("teams", len(teams)))
	return teams, nil
}

func (s *bracketService) seedGames(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, teams []*models.BracketTeam) error {
	bySeed := make(map[int]int, len(teams))
	for _, team := range teams {
		bySeed[team.SeedRank] = team.ID
	}
	teamForSeed := func(seed int) (*int, error) {
		if seed == 0 {
			return nil, nil
		}
		id, ok := bySeed[seed]
		if !ok {
			return nil, fmt.Errorf("%w: no team with seed rank %d", ErrBracketStateInvalid, seed)
		}
		return &id, nil
	}

	for _, node := range s.topo.Games {
		teamA, err := teamForSeed(node.SeedA)
		if err != nil {
			return err
		}
		teamB, err := teamForSeed(node.SeedB)
		if err != nil {
			return err
		}
		match := &models.BracketMatch{
			TournamentID: tournamentID,
			GameNumber:   node.Number,
			BracketType:  node.Type,
			TeamAID:      teamA,
			TeamBID:      teamB,
			Status:       models.MatchStatusPending,
		}
		if err := s.bracketRepo.Create(ctx, exec, match); err != nil {
			return fmt.Errorf("failed to create bracket game %d: %w", node.Number, err)
		}
	}
	return nil
}

func (s *bracketService) StartNextBracketGame(ctx context.Context, tournamentID int) (*models.BracketMatch, error) {
	inProgress, err := s.bracketRepo.AnyInProgress(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check in-progress bracket games: %w", err)
	}
	if inProgress {
		return nil, ErrGameAlreadyInProgress
	}

	match, err := s.bracketRepo.NextPending(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketMatchNotFound) {
			return nil, ErrNoPendingGames
		}
		return nil, fmt.Errorf("failed to find next pending bracket game: %w", err)
	}

	if err := s.bracketRepo.UpdateStatus(ctx, nil, match.ID, models.MatchStatusInProgress); err != nil {
		return nil, fmt.Errorf("failed to start bracket game %d: %w", match.GameNumber, err)
	}
	match.Status = models.MatchStatusInProgress

	s.broadcastBracketMatch(match)
	return match, nil
}

func (s *bracketService) UpdateBracketScore(ctx context.Context, matchID, teamAScore, teamBScore int) (*models.BracketMatch, error) {
	if teamAScore < 0 || teamBScore < 0 {
		return nil, ErrInvalidScore
	}

	match, err := s.bracketRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketMatchNotFound) {
			return nil, ErrBracketGameNotFound
		}
		return nil, err
	}
	if match.Status != models.MatchStatusInProgress {
		return nil, ErrMatchNotInProgress
	}

	if err := s.bracketRepo.UpdateScore(ctx, nil, matchID, teamAScore, teamBScore); err != nil {
		return nil, fmt.Errorf("failed to update bracket score: %w", err)
	}
	match.TeamAScore = teamAScore
	match.TeamBScore = teamBScore

	s.broadcastBracketMatch(match)
	return match, nil
}

func (s *bracketService) CompleteBracketGame(ctx context.Context, matchID int) (*models.BracketMatch, error) {
	match, err := s.bracketRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrBracketMatchNotFound) {
			return nil, ErrBracketGameNotFound
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
	if match.TeamAID == nil || match.TeamBID == nil {
		return nil, ErrMatchTeamsNotSet
	}

	if err := ValidateFinalScore(match.TeamAScore, match.TeamBScore, s.rules); err != nil {
		return nil, err
	}

	winnerID, loserID := *match.TeamAID, *match.TeamBID
	if match.TeamBScore > match.TeamAScore {
		winnerID, loserID = *match.TeamBID, *match.TeamAID
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.bracketRepo.UpdateStatus(ctx, exec, matchID, models.MatchStatusCompleted); err != nil {
			return err
		}
		for _, a := range s.topo.Advance(match.GameNumber, winnerID, loserID) {
			if err := s.bracketRepo.SetTeamSlot(ctx, exec, match.TournamentID, a.Game, int(a.Slot), a.TeamID); err != nil {
				return fmt.Errorf("failed to advance team %d to game %d: %w", a.TeamID, a.Game, err)
			}
		}
		if s.topo.IsFinal(match.GameNumber) {
			return s.resolveFinal(ctx, exec, match.TournamentID, winnerID)
		}
		if match.GameNumber == s.topo.DeciderGame {
			// The decider is terminal: its winner is the champion.
			return s.tournamentRepo.UpdateStatus(ctx, exec, match.TournamentID, models.StatusCompleted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	match.Status = models.MatchStatusCompleted

	s.logger.Info("bracket game completed",
		slog.Int("tournament_id", match.TournamentID),
		slog.Int("game_number", match.GameNumber),
		slog.Int("winner_team_id", winnerID))
	s.broadcastBracketMatch(match)
	return match, nil
}

// resolveFinal decides, on completion of the final winners-side game,
// whether the bracket ends or a championship decider must be created.
// The decider is required exactly when the team arriving from the
// losers' side beat the previously unbeaten team, which then has only
// one loss.
func (s *bracketService) resolveFinal(ctx context.Context, exec repositories.SQLExecutor, tournamentID, finalWinnerID int) error {
	upper, err := s.bracketRepo.GetByGameNumber(ctx, exec, tournamentID, s.topo.UpperGame)
	if err != nil {
		return fmt.Errorf("%w: game %d missing while resolving the final: %v",
			ErrBracketStateInvalid, s.topo.UpperGame, err)
	}
	upperWinnerID, ok := upper.Winner()
	if !ok {
		return fmt.Errorf("%w: game %d has no decided winner", ErrBracketStateInvalid, s.topo.UpperGame)
	}

	if !s.topo.NeedsDecider(finalWinnerID, upperWinnerID) {
		return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusCompleted)
	}

	// Idempotent: a decider created by an earlier invocation stays.
	_, err = s.bracketRepo.GetByGameNumber(ctx, exec, tournamentID, s.topo.DeciderGame)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrBracketMatchNotFound) {
		return fmt.Errorf("failed to check for existing decider: %w", err)
	}

	decider := &models.BracketMatch{
		TournamentID: tournamentID,
		GameNumber:   s.topo.DeciderGame,
		BracketType:  models.BracketChampionship,
		TeamAID:      &upperWinnerID,
		TeamBID:      &finalWinnerID,
		Status:       models.MatchStatusPending,
	}
	if err := s.bracketRepo.Create(ctx, exec, decider); err != nil {
		if errors.Is(err, repositories.ErrBracketMatchNumberConflict) {
			return nil
		}
		return fmt.Errorf("failed to create decider game: %w", err)
	}
	s.logger.Info("championship decider created",
		slog.Int("tournament_id", tournamentID), slog.Int("game_number", decider.GameNumber))
	return nil
}

// GetBracketView loads teams, games and standings in parallel.
func (s *bracketService) GetBracketView(ctx context.Context, tournamentID int) (*BracketView, error) {
	view := &BracketView{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load bracket teams: %w", err)
		}
		view.Teams = teams
		return nil
	})
	g.Go(func() error {
		games, err := s.bracketRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load bracket games: %w", err)
		}
		view.Games = games
		return nil
	})
	g.Go(func() error {
		standings, err := s.standings.RankStandings(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load standings: %w", err)
		}
		view.Standings = standings
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *bracketService) notifyBracketSeeded(ctx context.Context, tournamentID int) {
	if s.mailer == nil {
		return
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		s.logger.Warn("bracket notification skipped, tournament lookup failed",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	pods, err := s.podRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		s.logger.Warn("bracket notification skipped, pod listing failed",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	emails := make([]string, 0, len(pods))
	for _, pod := range pods {
		if pod.ContactEmail != "" {
			emails = append(emails, pod.ContactEmail)
		}
	}
	if len(emails) == 0 {
		return
	}
	if err := s.mailer.SendBracketSeeded(emails, tournament.Name); err != nil {
		s.logger.Warn("failed to send bracket seeded notification",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}
}

func (s *bracketService) broadcastBracketMatch(match *models.BracketMatch) {
	room := live.TournamentRoom(match.TournamentID)
	s.hub.BroadcastToRoom(room, live.Message{
		Type:    live.TypeBracketUpdated,
		Payload: match,
		RoomID:  room,
	})
}
