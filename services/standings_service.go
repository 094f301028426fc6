package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/repositories"
)

type StandingsService interface {
	// RecordGameResult folds one completed pool game into the standings
	// of every involved pod. It runs against the caller's executor so a
	// game completion and its standings updates share one transaction.
	RecordGameResult(ctx context.Context, exec repositories.SQLExecutor, tournamentID int,
		winningPods, losingPods []int, winningScore, losingScore int) error

	// RankStandings returns every registered pod of the tournament,
	// including pods with no completed games, ordered by point
	// differential, then points-for, then wins, all descending. Pods
	// with identical stats keep their seed order.
	RankStandings(ctx context.Context, tournamentID int) ([]*models.PoolStanding, error)
}

type standingsService struct {
	podRepo      repositories.PodRepository
	standingRepo repositories.StandingRepository
}

func NewStandingsService(
	podRepo repositories.PodRepository,
	standingRepo repositories.StandingRepository,
) StandingsService {
	return &standingsService{
		podRepo:      podRepo,
		standingRepo: standingRepo,
	}
}

func (s *standingsService) RecordGameResult(ctx context.Context, exec repositories.SQLExecutor, tournamentID int,
	winningPods, losingPods []int, winningScore, losingScore int) error {

	for _, podID := range winningPods {
		if err := s.standingRepo.ApplyResult(ctx, exec, tournamentID, podID, true, winningScore, losingScore); err != nil {
			return fmt.Errorf("failed to record win for pod %d: %w", podID, err)
		}
	}
	for _, podID := range losingPods {
		if err := s.standingRepo.ApplyResult(ctx, exec, tournamentID, podID, false, losingScore, winningScore); err != nil {
			return fmt.Errorf("failed to record loss for pod %d: %w", podID, err)
		}
	}
	return nil
}

func (s *standingsService) RankStandings(ctx context.Context, tournamentID int) ([]*models.PoolStanding, error) {
	pods, err := s.podRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	rows, err := s.standingRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}

	byPod := make(map[int]*models.PoolStanding, len(rows))
	for _, row := range rows {
		byPod[row.PodID] = row
	}

	// Pods arrive in seed order, which fixes the relative order of pods
	// with identical stats. Pods without a standings row yet get a zero
	// row so the table is complete from the start of the tournament.
	standings := make([]*models.PoolStanding, 0, len(pods))
	for _, pod := range pods {
		row, ok := byPod[pod.ID]
		if !ok {
			row = &models.PoolStanding{TournamentID: tournamentID, PodID: pod.ID}
		}
		row.Pod = pod
		standings = append(standings, row)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.PointDiff() != b.PointDiff() {
			return a.PointDiff() > b.PointDiff()
		}
		if a.PointsFor != b.PointsFor {
			return a.PointsFor > b.PointsFor
		}
		return a.Wins > b.Wins
	})
	return standings, nil
}
