package models

import "time"

// Pod is a registered participant unit of 1-3 players that competes as
// a single entity during pool play. Pods are immutable after
// registration except for organizer name edits.
type Pod struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Players      []string  `json:"players" db:"players"`
	ContactEmail string    `json:"-" db:"contact_email"`
	UserID       *int      `json:"user_id,omitempty" db:"user_id"`
	Seed         int       `json:"seed" db:"seed"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// ManageTokenHash holds the bcrypt hash of the manage token issued to
	// email-mode registrations. Never serialized.
	ManageTokenHash *string `json:"-" db:"manage_token_hash"`
}
