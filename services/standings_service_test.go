package services

import (
	"context"
	"testing"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPods(t *testing.T, podRepo *memPodRepo, tournamentID, count int) []*models.Pod {
	t.Helper()
	for i := 0; i < count; i++ {
		err := podRepo.Create(context.Background(), nil, &models.Pod{
			TournamentID: tournamentID,
			Name:         "Pod",
			Players:      []string{"Player"},
		})
		require.NoError(t, err)
	}
	pods, err := podRepo.ListByTournament(context.Background(), nil, tournamentID)
	require.NoError(t, err)
	return pods
}

func TestRecordGameResultAccumulates(t *testing.T) {
	podRepo := &memPodRepo{}
	standingRepo := newMemStandingRepo()
	svc := NewStandingsService(podRepo, standingRepo)
	ctx := context.Background()

	pods := seedPods(t, podRepo, 1, 9)
	winners := []int{pods[0].ID, pods[1].ID, pods[2].ID}
	losers := []int{pods[3].ID, pods[4].ID, pods[5].ID}

	require.NoError(t, svc.RecordGameResult(ctx, nil, 1, winners, losers, 21, 15))
	require.NoError(t, svc.RecordGameResult(ctx, nil, 1, losers, winners, 25, 23))

	row, err := standingRepo.GetByPod(ctx, nil, 1, pods[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, row.Wins)
	assert.Equal(t, 1, row.Losses)
	assert.Equal(t, 21+23, row.PointsFor)
	assert.Equal(t, 15+25, row.PointsAgainst)
}

// Every completed game must contribute exactly three wins and three
// losses to the table, one per pod on each side.
func TestStandingsBalanceEachGame(t *testing.T) {
	podRepo := &memPodRepo{}
	standingRepo := newMemStandingRepo()
	svc := NewStandingsService(podRepo, standingRepo)
	ctx := context.Background()

	pods := seedPods(t, podRepo, 1, 9)
	games := [][2][]int{
		{{pods[0].ID, pods[1].ID, pods[2].ID}, {pods[3].ID, pods[4].ID, pods[5].ID}},
		{{pods[3].ID, pods[4].ID, pods[5].ID}, {pods[6].ID, pods[7].ID, pods[8].ID}},
		{{pods[6].ID, pods[7].ID, pods[8].ID}, {pods[0].ID, pods[1].ID, pods[2].ID}},
	}
	for _, game := range games {
		require.NoError(t, svc.RecordGameResult(ctx, nil, 1, game[0], game[1], 21, 18))
	}

	standings, err := svc.RankStandings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, standings, 9)

	totalWins, totalLosses := 0, 0
	for _, row := range standings {
		totalWins += row.Wins
		totalLosses += row.Losses
	}
	assert.Equal(t, 3*len(games), totalWins)
	assert.Equal(t, 3*len(games), totalLosses)
}

func TestRankStandingsIncludesPodsWithoutGames(t *testing.T) {
	podRepo := &memPodRepo{}
	standingRepo := newMemStandingRepo()
	svc := NewStandingsService(podRepo, standingRepo)
	ctx := context.Background()

	pods := seedPods(t, podRepo, 1, 9)
	winners := []int{pods[0].ID, pods[1].ID, pods[2].ID}
	losers := []int{pods[3].ID, pods[4].ID, pods[5].ID}
	require.NoError(t, svc.RecordGameResult(ctx, nil, 1, winners, losers, 21, 10))

	standings, err := svc.RankStandings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, standings, 9)

	for _, row := range standings {
		require.NotNil(t, row.Pod)
	}
	// Pods 7-9 never played and must still appear, with zero rows.
	last := standings[len(standings)-1]
	assert.Zero(t, last.Wins)
	assert.Zero(t, last.Losses)
	assert.Zero(t, last.PointDiff())
}

func TestRankStandingsOrdering(t *testing.T) {
	podRepo := &memPodRepo{}
	standingRepo := newMemStandingRepo()
	svc := NewStandingsService(podRepo, standingRepo)
	ctx := context.Background()

	pods := seedPods(t, podRepo, 1, 4)
	apply := func(podID int, won bool, pf, pa int) {
		require.NoError(t, standingRepo.ApplyResult(ctx, nil, 1, podID, won, pf, pa))
	}

	apply(pods[0].ID, true, 21, 15)  // diff +6
	apply(pods[1].ID, true, 25, 15)  // diff +10
	apply(pods[2].ID, false, 15, 25) // diff -10
	// pods[3] gets the same diff as pods[0] but fewer points for.
	apply(pods[3].ID, true, 20, 14) // diff +6

	standings, err := svc.RankStandings(ctx, 1)
	require.NoError(t, err)

	order := make([]int, 0, len(standings))
	for _, row := range standings {
		order = append(order, row.PodID)
	}
	assert.Equal(t, []int{pods[1].ID, pods[0].ID, pods[3].ID, pods[2].ID}, order)
}

// Identical records keep seed order, so re-ranking is deterministic.
func TestRankStandingsStableForTies(t *testing.T) {
	podRepo := &memPodRepo{}
	standingRepo := newMemStandingRepo()
	svc := NewStandingsService(podRepo, standingRepo)
	ctx := context.Background()

	pods := seedPods(t, podRepo, 1, 9)

	for i := 0; i < 3; i++ {
		standings, err := svc.RankStandings(ctx, 1)
		require.NoError(t, err)
		for j, row := range standings {
			assert.Equal(t, pods[j].ID, row.PodID)
		}
	}
}
