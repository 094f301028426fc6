package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/repositories"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const maxPlayersPerPod = 3

// RegisterPodInput carries everything a registration request provides.
type RegisterPodInput struct {
	TournamentID int
	PodName      string
	Players      []string
	ContactEmail string
	CaptchaToken string
	RemoteIP     string

	// Identity is set when the requester is authenticated. Required for
	// account-mode tournaments.
	Identity *models.Identity
}

// RegisterPodResult is returned to the client on success. ManageToken
// is only populated for email-mode registrations and is shown exactly
// once; the server keeps only its bcrypt hash.
type RegisterPodResult struct {
	Pod         *models.Pod `json:"pod"`
	ManageToken string      `json:"manage_token,omitempty"`
	EmailSent   bool        `json:"email_sent"`
}

// RegistrationMailer sends the registration confirmation. A send
// failure never fails the registration.
type RegistrationMailer interface {
	SendRegistrationConfirmation(to, tournamentName, podName, manageToken string) error
}

// RenamePodInput authorizes a pod rename either by the manage token
// issued at registration (email mode) or by the owning account.
type RenamePodInput struct {
	PodID       int
	PodName     string
	ManageToken string
	Identity    *models.Identity
}

type RegistrationService interface {
	RegisterPod(ctx context.Context, input RegisterPodInput) (*RegisterPodResult, error)
	RenamePod(ctx context.Context, input RenamePodInput) (*models.Pod, error)
	ListPods(ctx context.Context, tournamentID int) ([]*models.Pod, error)
}

type registrationService struct {
	tx             TxRunner
	podRepo        repositories.PodRepository
	tournamentRepo repositories.TournamentRepository
	captcha        CaptchaVerifier
	mailer         RegistrationMailer
	logger         *slog.Logger
}

func NewRegistrationService(
	tx TxRunner,
	podRepo repositories.PodRepository,
	tournamentRepo repositories.TournamentRepository,
	captcha CaptchaVerifier,
	mailer RegistrationMailer,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		tx:             tx,
		podRepo:        podRepo,
		tournamentRepo: tournamentRepo,
		captcha:        captcha,
		mailer:         mailer,
		logger:         logger,
	}
}

func (s *registrationService) RegisterPod(ctx context.Context, input RegisterPodInput) (*RegisterPodResult, error) {
	if err := validateRegistration(&input); err != nil {
		return nil, err
	}

	if err := s.captcha.Verify(ctx, input.CaptchaToken, input.RemoteIP); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, input.TournamentID)
	if err != nil {
		return nil, ErrTournamentNotFound
	}
	if tournament.Status != models.StatusRegistration {
		return nil, ErrRegistrationClosed
	}
	if tournament.AuthMode == models.AuthModeAccount && input.Identity == nil {
		return nil, ErrAuthRequired
	}

	pod := &models.Pod{
		TournamentID: input.TournamentID,
		Name:         input.PodName,
		Players:      input.Players,
		ContactEmail: strings.ToLower(input.ContactEmail),
	}
	if tournament.AuthMode == models.AuthModeAccount {
		pod.UserID = &input.Identity.UserID
		if pod.ContactEmail == "" {
			pod.ContactEmail = strings.ToLower(input.Identity.Email)
		}
	}

	var manageToken string
	if tournament.AuthMode == models.AuthModeEmail {
		manageToken = uuid.NewString()
		hash, err := bcrypt.GenerateFromPassword([]byte(manageToken), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash manage token: %w", err)
		}
		hashStr := string(hash)
		pod.ManageTokenHash = &hashStr
	}

	err = s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		count, err := s.podRepo.CountByTournament(ctx, exec, input.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to count pods: %w", err)
		}
		if count >= tournament.MaxPods {
			return ErrTournamentFull
		}

		switch tournament.AuthMode {
		case models.AuthModeAccount:
			exists, err := s.podRepo.ExistsByUser(ctx, exec, input.TournamentID, input.Identity.UserID)
			if err != nil {
				return fmt.Errorf("failed to check duplicate registration: %w", err)
			}
			if exists {
				return ErrDuplicateRegistration
			}
		case models.AuthModeEmail:
			exists, err := s.podRepo.ExistsByEmail(ctx, exec, input.TournamentID, pod.ContactEmail)
			if err != nil {
				return fmt.Errorf("failed to check duplicate registration: %w", err)
			}
			if exists {
				return ErrDuplicateRegistration
			}
		}

		if err := s.podRepo.Create(ctx, exec, pod); err != nil {
			if errors.Is(err, repositories.ErrPodAlreadyRegistered) {
				return ErrDuplicateRegistration
			}
			return fmt.Errorf("failed to create pod: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pod registered",
		slog.Int("tournament_id", input.TournamentID),
		slog.Int("pod_id", pod.ID),
		slog.String("pod_name", pod.Name))

	result := &RegisterPodResult{Pod: pod, ManageToken: manageToken}
	if s.mailer != nil && pod.ContactEmail != "" {
		if err := s.mailer.SendRegistrationConfirmation(pod.ContactEmail, tournament.Name, pod.Name, manageToken); err != nil {
			s.logger.Warn("failed to send registration confirmation",
				slog.Int("pod_id", pod.ID), slog.Any("error", err))
		} else {
			result.EmailSent = true
		}
	}
	return result, nil
}

// RenamePod updates a pod's display name on behalf of its owner.
func (s *registrationService) RenamePod(ctx context.Context, input RenamePodInput) (*models.Pod, error) {
	input.PodName = strings.TrimSpace(input.PodName)
	if input.PodName == "" {
		return nil, fmt.Errorf("%w: pod name is required", ErrValidationFailed)
	}

	pod, err := s.podRepo.GetByID(ctx, input.PodID)
	if err != nil {
		if errors.Is(err, repositories.ErrPodNotFound) {
			return nil, ErrPodNotFound
		}
		return nil, err
	}

	if err := authorizePodChange(pod, input); err != nil {
		return nil, err
	}

	if err := s.podRepo.UpdateName(ctx, pod.ID, input.PodName); err != nil {
		return nil, err
	}
	pod.Name = input.PodName
	return pod, nil
}

func authorizePodChange(pod *models.Pod, input RenamePodInput) error {
	if pod.ManageTokenHash != nil && input.ManageToken != "" {
		if bcrypt.CompareHashAndPassword([]byte(*pod.ManageTokenHash), []byte(input.ManageToken)) == nil {
			return nil
		}
		return ErrForbiddenOperation
	}
	if pod.UserID != nil {
		if input.Identity == nil {
			return ErrAuthRequired
		}
		if input.Identity.UserID == *pod.UserID {
			return nil
		}
	}
	return ErrForbiddenOperation
}

// ListPods returns every registered pod for a tournament in seed order.
func (s *registrationService) ListPods(ctx context.Context, tournamentID int) ([]*models.Pod, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, ErrTournamentNotFound
	}
	return s.podRepo.ListByTournament(ctx, nil, tournamentID)
}

func validateRegistration(input *RegisterPodInput) error {
	input.PodName = strings.TrimSpace(input.PodName)
	if input.PodName == "" {
		return fmt.Errorf("%w: pod name is required", ErrValidationFailed)
	}

	players := make([]string, 0, len(input.Players))
	for _, p := range input.Players {
		if p = strings.TrimSpace(p); p != "" {
			players = append(players, p)
		}
	}
	if len(players) == 0 || len(players) > maxPlayersPerPod {
		return fmt.Errorf("%w: a pod needs between 1 and %d players", ErrValidationFailed, maxPlayersPerPod)
	}
	input.Players = players

	input.ContactEmail = strings.TrimSpace(input.ContactEmail)
	if input.ContactEmail != "" && !strings.Contains(input.ContactEmail, "@") {
		return fmt.Errorf("%w: contact email is not valid", ErrValidationFailed)
	}
	return nil
}
