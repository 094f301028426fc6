package models

import "time"

// BracketType tags which side of the double-elimination graph a game
// belongs to.
type BracketType string

const (
	BracketWinners      BracketType = "winners"
	BracketLosers       BracketType = "losers"
	BracketChampionship BracketType = "championship"
)

// BracketTeam is a composite unit of exactly three pods, formed once
// from the final pool standings. Immutable after creation. The name
// ("Team A", "Team B", ...) encodes the seed rank.
type BracketTeam struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	SeedRank     int       `json:"seed_rank" db:"seed_rank"`
	PodIDs       []int     `json:"pod_ids" db:"pod_ids"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// BracketMatch is one node of the bracket game graph. Team slots stay
// null until a feeder game's outcome fills them.
type BracketMatch struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	GameNumber   int         `json:"game_number" db:"game_number"`
	BracketType  BracketType `json:"bracket_type" db:"bracket_type"`
	TeamAID      *int        `json:"team_a_id" db:"team_a_id"`
	TeamBID      *int        `json:"team_b_id" db:"team_b_id"`
	TeamAScore   int         `json:"team_a_score" db:"team_a_score"`
	TeamBScore   int         `json:"team_b_score" db:"team_b_score"`
	Status       MatchStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// Winner returns the id of the higher-scoring team of a completed
// match, or false when the match has no decided winner.
func (m *BracketMatch) Winner() (int, bool) {
	if m.Status != MatchStatusCompleted || m.TeamAID == nil || m.TeamBID == nil {
		return 0, false
	}
	switch {
	case m.TeamAScore > m.TeamBScore:
		return *m.TeamAID, true
	case m.TeamBScore > m.TeamAScore:
		return *m.TeamBID, true
	default:
		return 0, false
	}
}

// Loser is the counterpart of Winner.
func (m *BracketMatch) Loser() (int, bool) {
	winner, ok := m.Winner()
	if !ok {
		return 0, false
	}
	if winner == *m.TeamAID {
		return *m.TeamBID, true
	}
	return *m.TeamAID, true
}
