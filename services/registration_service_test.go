package services

import (
	"context"
	"errors"
	"testing"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubCaptcha struct {
	err error
}

func (s stubCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	return s.err
}

type stubMailer struct {
	sent int
	err  error
}

func (s *stubMailer) SendRegistrationConfirmation(to, tournamentName, podName, manageToken string) error {
	if s.err != nil {
		return s.err
	}
	s.sent++
	return nil
}

func newRegistrationFixture(t *testing.T, authMode models.AuthMode, captchaErr error, mailer RegistrationMailer) (RegistrationService, *memPodRepo, int) {
	t.Helper()
	podRepo := &memPodRepo{}
	tournRepo := newMemTournamentRepo()

	tournament := &models.Tournament{
		Name:     "Midnight Sun Open",
		Status:   models.StatusRegistration,
		AuthMode: authMode,
		MaxPods:  9,
	}
	require.NoError(t, tournRepo.Create(context.Background(), nil, tournament))

	svc := NewRegistrationService(
		fakeTxRunner{}, podRepo, tournRepo, stubCaptcha{err: captchaErr}, mailer, testLogger(),
	)
	return svc, podRepo, tournament.ID
}

func validInput(tournamentID int) RegisterPodInput {
	return RegisterPodInput{
		TournamentID: tournamentID,
		PodName:      "Sandstorm",
		Players:      []string{"Sam Rivera", "Kai Chen", "Noor Haddad"},
		ContactEmail: "sandstorm@example.com",
		CaptchaToken: "token",
	}
}

func TestRegisterPodEmailMode(t *testing.T) {
	mailer := &stubMailer{}
	svc, podRepo, tournamentID := newRegistrationFixture(t, models.AuthModeEmail, nil, mailer)

	result, err := svc.RegisterPod(context.Background(), validInput(tournamentID))
	require.NoError(t, err)
	require.NotNil(t, result.Pod)
	assert.True(t, result.EmailSent)
	assert.Equal(t, 1, mailer.sent)
	assert.Equal(t, 1, result.Pod.Seed)

	// The manage token is returned once and only its hash is stored.
	require.NotEmpty(t, result.ManageToken)
	require.NotNil(t, result.Pod.ManageTokenHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(*result.Pod.ManageTokenHash), []byte(result.ManageToken)))

	pods, err := podRepo.ListByTournament(context.Background(), nil, tournamentID)
	require.NoError(t, err)
	assert.Len(t, pods, 1)
}

func TestRegisterPodFailedEmailDoesNotFailRegistration(t *testing.T) {
	mailer := &stubMailer{err: errors.New("smtp down")}
	svc, _, tournamentID := newRegistrationFixture(t, models.AuthModeEmail, nil, mailer)

	result, err := svc.RegisterPod(context.Background(), validInput(tournamentID))
	require.NoError(t, err)
	assert.False(t, result.EmailSent)
}

func TestRegisterPodCaptchaFailure(t *testing.T) {
	svc, _, tournamentID := newRegistrationFixture(t, models.AuthModeEmail, ErrCaptchaFailed, nil)

	_, err := svc.RegisterPod(context.Background(), validInput(tournamentID))
	assert.ErrorIs(t, err, ErrCaptchaFailed)
}

func TestRegisterPodDuplicateEmail(t *testing.T) {
	svc, _, tournamentID := newRegistrationFixture(t, models.AuthModeEmail, nil, nil)
	ctx := context.Background()

	_, err := svc.RegisterPod(ctx, validInput(tournamentID))
	require.NoError(t, err)

	dup := validInput(tournamentID)
	dup.PodName = "Different Name"
	_, err = svc.RegisterPod(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegisterPodAccountMode(t *testing.T) {
	svc, _, tournamentID := newRegistrationFixture(t, models.AuthModeAccount, nil, nil)
	ctx := context.Background()

	input := validInput(tournamentID)
	_, err := svc.RegisterPod(ctx, input)
	assert.ErrorIs(t, err, ErrAuthRequired)

	input.Identity = &models.Identity{UserID: 42, Email: "captain@example.com"}
	result, err := svc.RegisterPod(ctx, input)
	require.NoError(t, err)
	assert.Empty(t, result.ManageToken, "account mode issues no manage token")
	require.NotNil(t, result.Pod.UserID)
	assert.Equal(t, 42, *result.Pod.UserID)

	// Same account cannot register a second pod.
	second := validInput(tournamentID)
	second.ContactEmail = "other@example.com"
	second.Identity = input.Identity
	_, err = svc.RegisterPod(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegisterPodCapacity(t *testing.T) {
	svc, podRepo, tournamentID := newRegistrationFixture(t, models.AuthModeEmail, nil, nil)
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		require.NoError(t, podRepo.Create(ctx, nil, &models.Pod{
			TournamentID: tournamentID,
			Name:         "Pod",
			Players:      []string{"P"},
		}))
	}

	_, err := svc.RegisterPod(ctx, validInput(tournamentID))
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestRegisterPodClosedTournament(t *testing.T) {
	podRepo := &memPodRepo{}
	tournRepo := newMemTournamentRepo()
	tournament := &models.Tournament{
		Name:     "Closed Open",
		Status:   models.StatusPoolPlay,
		AuthMode: models.AuthModeEmail,
		MaxPods:  9,
	}
	require.NoError(t, tournRepo.Create(context.Background(), nil, tournament))
	svc := NewRegistrationService(fakeTxRunner{}, podRepo, tournRepo, stubCaptcha{}, nil, testLogger())

	_, err := svc.RegisterPod(context.Background(), validInput(tournament.ID))
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterPodValidation(t *testing.T) {
	svc, _, tournamentID := newRegistrationFixture(t, models.AuthModeEmail, nil, nil)
	ctx := context.Background()

	input := validInput(tournamentID)
	input.PodName = "   "
	_, err := svc.RegisterPod(ctx, input)
	assert.ErrorIs(t, err, ErrValidationFailed)

	input = validInput(tournamentID)
	input.Players = []string{"A", "B", "C", "D"}
	_, err = svc.RegisterPod(ctx, input)
	assert.ErrorIs(t, err, ErrValidationFailed)

	input = validInput(tournamentID)
	input.ContactEmail = "not-an-email"
	_, err = svc.RegisterPod(ctx, input)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRenamePodWithManageToken(t *testing.T) {
	svc, _, tournamentID := newRegistrationFixture(t, models.AuthModeEmail, nil, nil)
	ctx := context.Background()

	result, err := svc.RegisterPod(ctx, validInput(tournamentID))
	require.NoError(t, err)

	pod, err := svc.RenamePod(ctx, RenamePodInput{
		PodID:       result.Pod.ID,
		PodName:     "Dust Devils",
		ManageToken: result.ManageToken,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dust Devils", pod.Name)

	_, err = svc.RenamePod(ctx, RenamePodInput{
		PodID:       result.Pod.ID,
		PodName:     "Hijacked",
		ManageToken: "wrong-token",
	})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestRenamePodAccountMode(t *testing.T) {
	svc, _, tournamentID := newRegistrationFixture(t, models.AuthModeAccount, nil, nil)
	ctx := context.Background()

	input := validInput(tournamentID)
	input.Identity = &models.Identity{UserID: 42, Email: "owner@example.com"}
	result, err := svc.RegisterPod(ctx, input)
	require.NoError(t, err)

	_, err = svc.RenamePod(ctx, RenamePodInput{PodID: result.Pod.ID, PodName: "Renamed"})
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = svc.RenamePod(ctx, RenamePodInput{
		PodID:    result.Pod.ID,
		PodName:  "Renamed",
		Identity: &models.Identity{UserID: 7},
	})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	pod, err := svc.RenamePod(ctx, RenamePodInput{
		PodID:    result.Pod.ID,
		PodName:  "Renamed",
		Identity: &models.Identity{UserID: 42},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", pod.Name)
}

func TestRenamePodValidation(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t, models.AuthModeEmail, nil, nil)
	ctx := context.Background()

	_, err := svc.RenamePod(ctx, RenamePodInput{PodID: 1, PodName: "  "})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.RenamePod(ctx, RenamePodInput{PodID: 99, PodName: "Ghost"})
	assert.ErrorIs(t, err, ErrPodNotFound)
}
