package services

import "errors"

// Errors shared across services and the HTTP error mapper.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed      = errors.New("validation failed")
	ErrInvalidScore          = errors.New("scores must be non-negative integers")
	ErrScoreNotTerminal      = errors.New("score does not satisfy the completion rules")
	ErrTiedScore             = errors.New("a game cannot be completed with a tied score")
	ErrMatchNotInProgress    = errors.New("match is not in progress")
	ErrMatchAlreadyCompleted = errors.New("match is already completed")
	ErrGameAlreadyInProgress = errors.New("another game is already in progress")
	ErrNoPendingGames        = errors.New("no pending games remain")
	ErrMatchTeamsNotSet      = errors.New("bracket match does not have both teams assigned yet")
	ErrPodCountInvalid       = errors.New("tournament does not have the required number of pods")
	ErrPoolPlayIncomplete    = errors.New("pool play is not complete")
	ErrBracketNotInitialized = errors.New("bracket has not been initialized")
	ErrBracketStateInvalid   = errors.New("bracket state is inconsistent")
	ErrScheduleAlreadyExists = errors.New("pool schedule already exists")

	// Registration
	ErrRegistrationClosed    = errors.New("tournament registration is not open")
	ErrTournamentFull        = errors.New("tournament registration is full")
	ErrDuplicateRegistration = errors.New("a pod is already registered for this tournament under this identity")
	ErrCaptchaFailed         = errors.New("captcha verification failed")
	ErrAuthRequired          = errors.New("authentication required for this tournament")

	// Authorization
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Entity-specific not-found errors
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrPodNotFound         = errors.New("pod not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrBracketGameNotFound = errors.New("bracket game not found")
	ErrBracketTeamNotFound = errors.New("bracket team not found")
)
