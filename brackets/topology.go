package brackets

import (
	"fmt"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
)

// Slot identifies one of the two team positions in a game.
type Slot int

const (
	SlotTeamA Slot = 1
	SlotTeamB Slot = 2
)

// SlotRef points at a team slot of a downstream game.
type SlotRef struct {
	Game int
	Slot Slot
}

// GameNode is one game of a bracket graph. SeedA/SeedB name the bracket
// team seed ranks (1-based) occupying a slot at seeding time; a zero
// seed means the slot is filled later by a feeder edge.
type GameNode struct {
	Number int
	Type   models.BracketType

	SeedA int
	SeedB int

	// WinnerTo and LoserTo are the typed edges of the graph. A nil edge
	// means the team's run ends there (champion or eliminated).
	WinnerTo *SlotRef
	LoserTo  *SlotRef
}

// Topology is a complete double-elimination game graph, declared as
// data so different tournament sizes differ only in their node tables.
type Topology struct {
	Name  string
	Teams int
	Games []GameNode

	// Final is the game whose completion can force a decider rematch.
	// UpperGame is the game whose winner arrives at the final without a
	// loss; if that team loses the final, the bracket is not over and
	// DeciderGame must be played.
	Final       int
	UpperGame   int
	DeciderGame int
}

// Assignment is one slot fill produced by advancing a completed game.
type Assignment struct {
	Game   int
	Slot   Slot
	TeamID int
}

func ref(game int, slot Slot) *SlotRef {
	return &SlotRef{Game: game, Slot: slot}
}

// ThreeTeamTopology is the 3-team / 4-game graph wired to the main API.
// Team 1 receives a bye into game 2; team 2 plays team 3 in game 1.
func ThreeTeamTopology() Topology {
	return Topology{
		Name:  "double_elimination_3",
		Teams: 3,
		Games: []GameNode{
			{Number: 1, Type: models.BracketWinners, SeedA: 2, SeedB: 3,
				WinnerTo: ref(2, SlotTeamB), LoserTo: ref(3, SlotTeamA)},
			{Number: 2, Type: models.BracketWinners, SeedA: 1,
				WinnerTo: ref(4, SlotTeamA), LoserTo: ref(3, SlotTeamB)},
			{Number: 3, Type: models.BracketLosers,
				WinnerTo: ref(4, SlotTeamB)},
			{Number: 4, Type: models.BracketWinners},
		},
		Final:       4,
		UpperGame:   2,
		DeciderGame: 5,
	}
}

// FourTeamTopology is the alternate 4-team / 6-game graph (7 games when
// the grand final is reset). It shares the same progression rules and
// exists as a separate seeding path.
func FourTeamTopology() Topology {
	return Topology{
		Name:  "double_elimination_4",
		Teams: 4,
		Games: []GameNode{
			{Number: 1, Type: models.BracketWinners, SeedA: 1, SeedB: 4,
				WinnerTo: ref(3, SlotTeamA), LoserTo: ref(4, SlotTeamA)},
			{Number: 2, Type: models.BracketWinners, SeedA: 2, SeedB: 3,
				WinnerTo: ref(3, SlotTeamB), LoserTo: ref(4, SlotTeamB)},
			{Number: 3, Type: models.BracketWinners,
				WinnerTo: ref(6, SlotTeamA), LoserTo: ref(5, SlotTeamB)},
			{Number: 4, Type: models.BracketLosers,
				WinnerTo: ref(5, SlotTeamA)},
			{Number: 5, Type: models.BracketLosers,
				WinnerTo: ref(6, SlotTeamB)},
			{Number: 6, Type: models.BracketWinners},
		},
		Final:       6,
		UpperGame:   3,
		DeciderGame: 7,
	}
}

// Node returns the game node for a game number.
func (t Topology) Node(gameNumber int) (GameNode, bool) {
	for _, g := range t.Games {
		if g.Number == gameNumber {
			return g, true
		}
	}
	return GameNode{}, false
}

// Advance computes the slot assignments triggered by the completion of
// gameNumber. Unknown game numbers, including the decider, yield no
// assignments: the decider is terminal and anything else is a no-op.
func (t Topology) Advance(gameNumber, winnerID, loserID int) []Assignment {
	node, ok := t.Node(gameNumber)
	if !ok {
		return nil
	}
	var out []Assignment
	if node.WinnerTo != nil {
		out = append(out, Assignment{Game: node.WinnerTo.Game, Slot: node.WinnerTo.Slot, TeamID: winnerID})
	}
	if node.LoserTo != nil {
		out = append(out, Assignment{Game: node.LoserTo.Game, Slot: node.LoserTo.Slot, TeamID: loserID})
	}
	return out
}

// IsFinal reports whether gameNumber is the game whose completion
// decides if a decider rematch is required.
func (t Topology) IsFinal(gameNumber int) bool {
	return gameNumber == t.Final
}

// NeedsDecider reports whether a decider game must be played: the team
// that came through the losers' side won the final, so the previously
// unbeaten team has only lost once and the bracket cannot end yet.
func (t Topology) NeedsDecider(finalWinnerID, upperWinnerID int) bool {
	return finalWinnerID != upperWinnerID
}

// Validate checks the internal consistency of a topology: every edge
// must point at an existing game's empty seed slot. Used by tests and
// as a guard when a custom topology is ever added.
func (t Topology) Validate() error {
	check := func(from int, r *SlotRef) error {
		if r == nil {
			return nil
		}
		target, ok := t.Node(r.Game)
		if !ok {
			return fmt.Errorf("game %d routes to unknown game %d", from, r.Game)
		}
		if r.Slot == SlotTeamA && target.SeedA != 0 || r.Slot == SlotTeamB && target.SeedB != 0 {
			return fmt.Errorf("game %d routes into seeded slot %d of game %d", from, r.Slot, r.Game)
		}
		return nil
	}
	for _, g := range t.Games {
		if err := check(g.Number, g.WinnerTo); err != nil {
			return err
		}
		if err := check(g.Number, g.LoserTo); err != nil {
			return err
		}
	}
	if _, ok := t.Node(t.Final); !ok {
		return fmt.Errorf("final game %d not in topology", t.Final)
	}
	if _, ok := t.Node(t.UpperGame); !ok {
		return fmt.Errorf("upper game %d not in topology", t.UpperGame)
	}
	if _, ok := t.Node(t.DeciderGame); ok {
		return fmt.Errorf("decider game %d must not be seeded upfront", t.DeciderGame)
	}
	return nil
}
