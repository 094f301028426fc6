package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/repositories"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/storage"
	"github.com/google/uuid"
)

type CreateTournamentInput struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Location    *string         `json:"location"`
	StartDate   time.Time       `json:"start_date"`
	AuthMode    models.AuthMode `json:"auth_mode"`
	MaxPods     int             `json:"max_pods"`
}

type UpdateTournamentInput struct {
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	Location    *string                  `json:"location"`
	StartDate   *time.Time               `json:"start_date"`
	MaxPods     *int                     `json:"max_pods"`
	Status      *models.TournamentStatus `json:"status"`
}

type TournamentService interface {
	Create(ctx context.Context, identity *models.Identity, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Update(ctx context.Context, identity *models.Identity, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, identity *models.Identity, id int) error
	UploadBanner(ctx context.Context, identity *models.Identity, id int, contentType, filename string, file io.Reader) (*models.Tournament, error)

	// AuthorizeScorekeeper allows organizers and scorekeepers; every
	// mutating game route goes through it.
	AuthorizeScorekeeper(ctx context.Context, identity *models.Identity, tournamentID int) error
}

type tournamentService struct {
	tx             TxRunner
	tournamentRepo repositories.TournamentRepository
	roleRepo       repositories.RoleRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	tx TxRunner,
	tournamentRepo repositories.TournamentRepository,
	roleRepo repositories.RoleRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		roleRepo:       roleRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

// authorizeOrganizer passes when the identity holds the organizer role
// for the tournament or its email is on the organizer whitelist.
// tournamentID 0 means "not yet created": only the whitelist applies.
func (s *tournamentService) authorizeOrganizer(ctx context.Context, identity *models.Identity, tournamentID int) error {
	if identity == nil {
		return ErrAuthRequired
	}
	if tournamentID != 0 {
		role, err := s.roleRepo.GetRole(ctx, tournamentID, identity.UserID)
		if err == nil && role == models.RoleOrganizer {
			return nil
		}
		if err != nil && !errors.Is(err, repositories.ErrRoleNotFound) {
			return fmt.Errorf("failed to look up tournament role: %w", err)
		}
	}
	whitelisted, err := s.roleRepo.IsWhitelisted(ctx, identity.Email)
	if err != nil {
		return fmt.Errorf("failed to check organizer whitelist: %w", err)
	}
	if !whitelisted {
		return ErrForbiddenOperation
	}
	return nil
}

func (s *tournamentService) AuthorizeScorekeeper(ctx context.Context, identity *models.Identity, tournamentID int) error {
	if identity == nil {
		return ErrAuthRequired
	}
	role, err := s.roleRepo.GetRole(ctx, tournamentID, identity.UserID)
	if err == nil && (role == models.RoleOrganizer || role == models.RoleScorekeeper) {
		return nil
	}
	if err != nil && !errors.Is(err, repositories.ErrRoleNotFound) {
		return fmt.Errorf("failed to look up tournament role: %w", err)
	}
	return s.authorizeOrganizer(ctx, identity, tournamentID)
}

func (s *tournamentService) Create(ctx context.Context, identity *models.Identity, input CreateTournamentInput) (*models.Tournament, error) {
	if err := s.authorizeOrganizer(ctx, identity, 0); err != nil {
		return nil, err
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.AuthMode == "" {
		input.AuthMode = models.AuthModeEmail
	}
	if input.AuthMode != models.AuthModeAccount && input.AuthMode != models.AuthModeEmail {
		return nil, fmt.Errorf("%w: unknown auth mode %q", ErrValidationFailed, input.AuthMode)
	}
	if input.MaxPods <= 0 {
		input.MaxPods = podsPerTournament
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Description: input.Description,
		Location:    input.Location,
		StartDate:   input.StartDate,
		AuthMode:    input.AuthMode,
		MaxPods:     input.MaxPods,
		Status:      models.StatusDraft,
	}

	err := s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, tournament); err != nil {
			return err
		}
		return s.roleRepo.Grant(ctx, exec, tournament.ID, identity.UserID, models.RoleOrganizer)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID), slog.String("name", tournament.Name))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.attachBannerURL(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tournaments {
		s.attachBannerURL(t)
	}
	return tournaments, nil
}

var validStatusTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusDraft:        {models.StatusRegistration},
	models.StatusRegistration: {models.StatusDraft, models.StatusPoolPlay},
	models.StatusPoolPlay:     {models.StatusBracket},
	models.StatusBracket:      {models.StatusCompleted},
}

func canTransition(from, to models.TournamentStatus) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *tournamentService) Update(ctx context.Context, identity *models.Identity, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	if err := s.authorizeOrganizer(ctx, identity, id); err != nil {
		return nil, err
	}

	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tournament name cannot be empty", ErrValidationFailed)
		}
		tournament.Name = name
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.Location != nil {
		tournament.Location = input.Location
	}
	if input.StartDate != nil {
		tournament.StartDate = *input.StartDate
	}
	if input.MaxPods != nil {
		if *input.MaxPods <= 0 {
			return nil, fmt.Errorf("%w: max pods must be positive", ErrValidationFailed)
		}
		tournament.MaxPods = *input.MaxPods
	}
	if input.Status != nil && *input.Status != tournament.Status {
		if !canTransition(tournament.Status, *input.Status) {
			return nil, fmt.Errorf("%w: cannot move tournament from %s to %s",
				ErrValidationFailed, tournament.Status, *input.Status)
		}
		tournament.Status = *input.Status
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, err
	}
	s.attachBannerURL(tournament)
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, identity *models.Identity, id int) error {
	if err := s.authorizeOrganizer(ctx, identity, id); err != nil {
		return err
	}

	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.uploader != nil && tournament.BannerKey != nil {
		if err := s.uploader.Delete(ctx, *tournament.BannerKey); err != nil {
			s.logger.Warn("failed to delete tournament banner",
				slog.Int("tournament_id", id), slog.Any("error", err))
		}
	}
	s.logger.Info("tournament deleted", slog.Int("tournament_id", id))
	return nil
}

var allowedBannerTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func (s *tournamentService) UploadBanner(ctx context.Context, identity *models.Identity, id int, contentType, filename string, file io.Reader) (*models.Tournament, error) {
	if err := s.authorizeOrganizer(ctx, identity, id); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: banner storage is not configured", ErrValidationFailed)
	}

	ext, ok := allowedBannerTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported banner content type %q", ErrValidationFailed, contentType)
	}
	if e := strings.ToLower(path.Ext(filename)); e != "" && e != ext && !(e == ".jpeg" && ext == ".jpg") {
		return nil, fmt.Errorf("%w: file extension does not match content type", ErrValidationFailed)
	}

	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("banners/%d/%s%s", id, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	oldKey := tournament.BannerKey
	if err := s.tournamentRepo.UpdateBannerKey(ctx, id, &result.Key); err != nil {
		// The row was not updated; remove the object we just wrote.
		if delErr := s.uploader.Delete(ctx, result.Key); delErr != nil {
			s.logger.Warn("failed to clean up orphaned banner",
				slog.String("key", result.Key), slog.Any("error", delErr))
		}
		return nil, err
	}

	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous banner",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	tournament.BannerKey = &result.Key
	s.attachBannerURL(tournament)
	s.logger.Info("tournament banner updated",
		slog.Int("tournament_id", id), slog.String("key", result.Key))
	return tournament, nil
}

func (s *tournamentService) attachBannerURL(t *models.Tournament) {
	if s.uploader == nil || t.BannerKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.BannerKey)
	if url != "" {
		t.BannerURL = &url
	}
}
