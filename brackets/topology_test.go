package brackets

import (
	"testing"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologiesAreConsistent(t *testing.T) {
	require.NoError(t, ThreeTeamTopology().Validate())
	require.NoError(t, FourTeamTopology().Validate())
}

func TestThreeTeamShape(t *testing.T) {
	topo := ThreeTeamTopology()
	require.Len(t, topo.Games, 4)

	g1, ok := topo.Node(1)
	require.True(t, ok)
	assert.Equal(t, 2, g1.SeedA, "game 1 pairs seed 2 against seed 3")
	assert.Equal(t, 3, g1.SeedB)
	assert.Equal(t, models.BracketWinners, g1.Type)

	g2, ok := topo.Node(2)
	require.True(t, ok)
	assert.Equal(t, 1, g2.SeedA, "seed 1 gets the bye into game 2")
	assert.Zero(t, g2.SeedB, "game 2 second slot waits for game 1")

	g3, ok := topo.Node(3)
	require.True(t, ok)
	assert.Equal(t, models.BracketLosers, g3.Type)
	assert.Nil(t, g3.LoserTo, "game 3 loser is eliminated")

	assert.True(t, topo.IsFinal(4))
	assert.False(t, topo.IsFinal(3))
	assert.Equal(t, 5, topo.DeciderGame)
}

func TestAdvanceRoutesWinnerAndLoser(t *testing.T) {
	topo := ThreeTeamTopology()

	tests := []struct {
		name     string
		game     int
		winner   int
		loser    int
		expected []Assignment
	}{
		{
			name:   "game 1 feeds game 2 slot B and game 3 slot A",
			game:   1,
			winner: 20, loser: 30,
			expected: []Assignment{
				{Game: 2, Slot: SlotTeamB, TeamID: 20},
				{Game: 3, Slot: SlotTeamA, TeamID: 30},
			},
		},
		{
			name:   "game 2 feeds game 4 slot A and game 3 slot B",
			game:   2,
			winner: 10, loser: 20,
			expected: []Assignment{
				{Game: 4, Slot: SlotTeamA, TeamID: 10},
				{Game: 3, Slot: SlotTeamB, TeamID: 20},
			},
		},
		{
			name:   "game 3 winner reaches game 4 slot B, loser is out",
			game:   3,
			winner: 30, loser: 20,
			expected: []Assignment{
				{Game: 4, Slot: SlotTeamB, TeamID: 30},
			},
		},
		{
			name: "game 4 routes nowhere, decider handled separately",
			game: 4, winner: 30, loser: 10,
		},
		{
			name: "decider game is terminal",
			game: 5, winner: 10, loser: 30,
		},
		{
			name: "unknown game number is a no-op",
			game: 42, winner: 1, loser: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, topo.Advance(tc.game, tc.winner, tc.loser))
		})
	}
}

func TestNeedsDecider(t *testing.T) {
	topo := ThreeTeamTopology()
	assert.False(t, topo.NeedsDecider(10, 10), "unbeaten team won the final, bracket over")
	assert.True(t, topo.NeedsDecider(30, 10), "losers-side team won, forces the rematch")
}

func TestFourTeamShape(t *testing.T) {
	topo := FourTeamTopology()
	require.Len(t, topo.Games, 6)

	g1, _ := topo.Node(1)
	g2, _ := topo.Node(2)
	assert.Equal(t, [2]int{1, 4}, [2]int{g1.SeedA, g1.SeedB})
	assert.Equal(t, [2]int{2, 3}, [2]int{g2.SeedA, g2.SeedB})

	// Winners of games 1 and 2 meet in game 3; their losers drop to game 4.
	assert.Equal(t, Assignment{Game: 3, Slot: SlotTeamA, TeamID: 11}, topo.Advance(1, 11, 44)[0])
	assert.Equal(t, Assignment{Game: 4, Slot: SlotTeamA, TeamID: 44}, topo.Advance(1, 11, 44)[1])
	assert.Equal(t, Assignment{Game: 3, Slot: SlotTeamB, TeamID: 22}, topo.Advance(2, 22, 33)[0])

	// Losers final winner reaches the grand final's second slot.
	assert.Equal(t, []Assignment{{Game: 6, Slot: SlotTeamB, TeamID: 44}}, topo.Advance(5, 44, 33))

	assert.True(t, topo.IsFinal(6))
	assert.Equal(t, 7, topo.DeciderGame)
	assert.Equal(t, 3, topo.UpperGame)
}
