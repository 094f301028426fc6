package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGameService struct {
	completeFn func(ctx context.Context, matchID int) (*models.PoolMatch, error)
	scoreFn    func(ctx context.Context, matchID, a, b int) (*models.PoolMatch, error)
}

func (s *stubGameService) SchedulePoolGames(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error) {
	return nil, nil
}

func (s *stubGameService) StartNextGame(ctx context.Context, tournamentID int) (*models.PoolMatch, error) {
	return nil, nil
}

func (s *stubGameService) UpdateScore(ctx context.Context, matchID, teamAScore, teamBScore int) (*models.PoolMatch, error) {
	return s.scoreFn(ctx, matchID, teamAScore, teamBScore)
}

func (s *stubGameService) CompleteGame(ctx context.Context, matchID int) (*models.PoolMatch, error) {
	return s.completeFn(ctx, matchID)
}

func (s *stubGameService) ListGames(ctx context.Context, tournamentID int) ([]*models.PoolMatch, error) {
	return nil, nil
}

func newGameRouter(svc services.GameService) *chi.Mux {
	handler := NewGameHandler(svc, nil, nil)
	router := chi.NewRouter()
	router.Patch("/api/games/{id}/score", handler.UpdateScore)
	router.Post("/api/games/{id}/complete", handler.CompleteGame)
	return router
}

func TestCompleteGameStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		serviceErr error
		wantStatus int
	}{
		{name: "success", target: "/api/games/7/complete", serviceErr: nil, wantStatus: http.StatusOK},
		{name: "malformed id", target: "/api/games/abc/complete", serviceErr: nil, wantStatus: http.StatusBadRequest},
		{name: "not found", target: "/api/games/7/complete", serviceErr: services.ErrMatchNotFound, wantStatus: http.StatusNotFound},
		{name: "non-terminal score", target: "/api/games/7/complete", serviceErr: services.ErrScoreNotTerminal, wantStatus: http.StatusBadRequest},
		{name: "tied score", target: "/api/games/7/complete", serviceErr: services.ErrTiedScore, wantStatus: http.StatusBadRequest},
		{name: "wrong status", target: "/api/games/7/complete", serviceErr: services.ErrMatchNotInProgress, wantStatus: http.StatusBadRequest},
		{name: "already completed", target: "/api/games/7/complete", serviceErr: services.ErrMatchAlreadyCompleted, wantStatus: http.StatusConflict},
		{name: "unexpected failure", target: "/api/games/7/complete", serviceErr: assert.AnError, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubGameService{
				completeFn: func(ctx context.Context, matchID int) (*models.PoolMatch, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &models.PoolMatch{ID: matchID, Status: models.MatchStatusCompleted}, nil
				},
			}
			router := newGameRouter(svc)

			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestUpdateScoreStatusCodes(t *testing.T) {
	svc := &stubGameService{
		scoreFn: func(ctx context.Context, matchID, a, b int) (*models.PoolMatch, error) {
			if a < 0 || b < 0 {
				return nil, services.ErrInvalidScore
			}
			return &models.PoolMatch{ID: matchID, TeamAScore: a, TeamBScore: b, Status: models.MatchStatusInProgress}, nil
		},
	}
	router := newGameRouter(svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/games/3/score",
		strings.NewReader(`{"team_a_score": 11, "team_b_score": 9}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"team_a_score":11`)

	req = httptest.NewRequest(http.MethodPatch, "/api/games/3/score",
		strings.NewReader(`{"team_a_score": -1, "team_b_score": 9}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPatch, "/api/games/3/score",
		strings.NewReader(`{not json`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
