package brackets

import (
	"errors"
	"fmt"
)

// PodsPerTeam is the fixed size of a bracket team.
const PodsPerTeam = 3

// teamSeedPatterns maps a bracket team's seed rank to the pool-standing
// ranks (1-based) of the pods it is built from. The pattern balances
// the composite teams: the top pod is paired with a middle and a bottom
// finisher rather than snaking strictly.
var teamSeedPatterns = [][]int{
	{1, 5, 9},
	{2, 6, 7},
	{3, 4, 8},
}

// SeededTeams is the number of bracket teams produced from pool play.
const SeededTeams = 3

// ErrInsufficientPods is returned when the ranked pod list does not
// match the fixed seeding pattern.
var ErrInsufficientPods = errors.New("seeding requires exactly 9 ranked pods")

// SeedPods partitions pods ranked by final pool standing (best first)
// into bracket team rosters. The outer index is the team seed rank
// minus one.
func SeedPods(rankedPodIDs []int) ([][]int, error) {
	if len(rankedPodIDs) != SeededTeams*PodsPerTeam {
		return nil, fmt.Errorf("%w (got %d)", ErrInsufficientPods, len(rankedPodIDs))
	}
	teams := make([][]int, 0, SeededTeams)
	for _, pattern := range teamSeedPatterns {
		roster := make([]int, 0, PodsPerTeam)
		for _, rank := range pattern {
			roster = append(roster, rankedPodIDs[rank-1])
		}
		teams = append(teams, roster)
	}
	return teams, nil
}

// TeamName returns the display name for a bracket team seed rank:
// "Team A" for rank 1, "Team B" for rank 2, and so on.
func TeamName(seedRank int) string {
	if seedRank < 1 || seedRank > 26 {
		return fmt.Sprintf("Team %d", seedRank)
	}
	return fmt.Sprintf("Team %c", 'A'+seedRank-1)
}
