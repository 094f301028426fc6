package models

import "time"

// MatchStatus mirrors the match_status ENUM shared by pool and bracket
// matches.
type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// PoolMatch is a scheduled pool-play game between two rosters of pods.
// Pods not on either roster for the round are listed as sitting.
type PoolMatch struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	GameNumber   int         `json:"game_number" db:"game_number"`
	TeamAPods    []int       `json:"team_a_pods" db:"team_a_pods"`
	TeamBPods    []int       `json:"team_b_pods" db:"team_b_pods"`
	SittingPods  []int       `json:"sitting_pods" db:"sitting_pods"`
	TeamAScore   int         `json:"team_a_score" db:"team_a_score"`
	TeamBScore   int         `json:"team_b_score" db:"team_b_score"`
	Status       MatchStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// PoolStanding accumulates one pod's pool-play record. Rows are created
// lazily on the first completed game involving the pod and mutated
// additively, never recomputed from scratch.
type PoolStanding struct {
	ID            int       `json:"id" db:"id"`
	TournamentID  int       `json:"tournament_id" db:"tournament_id"`
	PodID         int       `json:"pod_id" db:"pod_id"`
	Wins          int       `json:"wins" db:"wins"`
	Losses        int       `json:"losses" db:"losses"`
	PointsFor     int       `json:"points_for" db:"points_for"`
	PointsAgainst int       `json:"points_against" db:"points_against"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	// Pod is populated by the standings service for ranked listings.
	Pod *Pod `json:"pod,omitempty" db:"-"`
}

// PointDiff is the primary ranking key.
func (s *PoolStanding) PointDiff() int {
	return s.PointsFor - s.PointsAgainst
}
