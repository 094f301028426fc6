package handlers

import (
	"errors"
	"net/http"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/middleware"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/services"
)

var errInvalidTournamentID = errors.New("tournament_id must be a positive integer")

type GameHandler struct {
	gameService       services.GameService
	standingsService  services.StandingsService
	tournamentService services.TournamentService
}

func NewGameHandler(
	gameService services.GameService,
	standingsService services.StandingsService,
	tournamentService services.TournamentService,
) *GameHandler {
	return &GameHandler{
		gameService:       gameService,
		standingsService:  standingsService,
		tournamentService: tournamentService,
	}
}

// SchedulePoolGames handles POST /api/tournaments/{tournamentID}/schedule.
func (h *GameHandler) SchedulePoolGames(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !h.authorizeScorer(w, r, tournamentID) {
		return
	}

	games, err := h.gameService.SchedulePoolGames(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"games": games}, nil)
}

// StartNextGame handles POST /api/games/start.
func (h *GameHandler) StartNextGame(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TournamentID int `json:"tournament_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TournamentID <= 0 {
		badRequestResponse(w, r, errInvalidTournamentID)
		return
	}
	if !h.authorizeScorer(w, r, input.TournamentID) {
		return
	}

	match, err := h.gameService.StartNextGame(r.Context(), input.TournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game": match}, nil)
}

// UpdateScore handles PATCH /api/games/{id}/score.
func (h *GameHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		TeamAScore int `json:"team_a_score"`
		TeamBScore int `json:"team_b_score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.gameService.UpdateScore(r.Context(), matchID, input.TeamAScore, input.TeamBScore)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game": match}, nil)
}

// CompleteGame handles POST /api/games/{id}/complete.
func (h *GameHandler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.gameService.CompleteGame(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game": match}, nil)
}

// ListGames handles GET /api/tournaments/{tournamentID}/games.
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.gameService.ListGames(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil)
}

// ListStandings handles GET /api/tournaments/{tournamentID}/standings.
func (h *GameHandler) ListStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.RankStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil)
}

func (h *GameHandler) authorizeScorer(w http.ResponseWriter, r *http.Request, tournamentID int) bool {
	identity := middleware.IdentityFromContext(r.Context())
	if err := h.tournamentService.AuthorizeScorekeeper(r.Context(), identity, tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return false
	}
	return true
}
