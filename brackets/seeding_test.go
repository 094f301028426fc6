package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPods(t *testing.T) {
	// Pods ranked 1..9 by pool standing; ids chosen so a rank never
	// equals an id by accident.
	ranked := []int{101, 102, 103, 104, 105, 106, 107, 108, 109}

	teams, err := SeedPods(ranked)
	require.NoError(t, err)
	require.Len(t, teams, 3)

	assert.Equal(t, []int{101, 105, 109}, teams[0], "Team A takes ranks 1, 5, 9")
	assert.Equal(t, []int{102, 106, 107}, teams[1], "Team B takes ranks 2, 6, 7")
	assert.Equal(t, []int{103, 104, 108}, teams[2], "Team C takes ranks 3, 4, 8")
}

func TestSeedPodsCoversEveryPodOnce(t *testing.T) {
	ranked := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	teams, err := SeedPods(ranked)
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, roster := range teams {
		require.Len(t, roster, PodsPerTeam)
		for _, id := range roster {
			assert.False(t, seen[id], "pod %d seeded twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 9)
}

func TestSeedPodsRequiresNine(t *testing.T) {
	for _, n := range []int{0, 8, 10} {
		ids := make([]int, n)
		for i := range ids {
			ids[i] = i + 1
		}
		_, err := SeedPods(ids)
		assert.ErrorIs(t, err, ErrInsufficientPods, "n=%d", n)
	}
}

func TestTeamName(t *testing.T) {
	assert.Equal(t, "Team A", TeamName(1))
	assert.Equal(t, "Team B", TeamName(2))
	assert.Equal(t, "Team C", TeamName(3))
	assert.Equal(t, "Team 27", TeamName(27))
}
