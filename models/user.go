package models

// TournamentRole mirrors the role ENUM on tournament_roles.
type TournamentRole string

const (
	RoleOrganizer   TournamentRole = "organizer"
	RoleScorekeeper TournamentRole = "scorekeeper"
)

// Identity is the authenticated caller as asserted by the external auth
// provider's token. The provider itself is out of scope; only the
// claims we consume are modeled.
type Identity struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
}
