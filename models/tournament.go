package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusDraft        TournamentStatus = "draft"
	StatusRegistration TournamentStatus = "registration"
	StatusPoolPlay     TournamentStatus = "pool_play"
	StatusBracket      TournamentStatus = "bracket"
	StatusCompleted    TournamentStatus = "completed"
)

// AuthMode controls how duplicate registrations are detected: by the
// authenticated account, or by contact email for open tournaments.
type AuthMode string

const (
	AuthModeAccount AuthMode = "account"
	AuthModeEmail   AuthMode = "email"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Location    *string          `json:"location,omitempty" db:"location"`
	StartDate   time.Time        `json:"start_date" db:"start_date"`
	AuthMode    AuthMode         `json:"auth_mode" db:"auth_mode"`
	MaxPods     int              `json:"max_pods" db:"max_pods"`
	Status      TournamentStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	BannerKey *string `json:"-" db:"banner_key"`
	BannerURL *string `json:"banner_url,omitempty" db:"-"`
}
