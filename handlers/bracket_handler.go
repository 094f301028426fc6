package handlers

import (
	"net/http"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/middleware"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/services"
)

type BracketHandler struct {
	bracketService    services.BracketService
	tournamentService services.TournamentService
}

func NewBracketHandler(bracketService services.BracketService, tournamentService services.TournamentService) *BracketHandler {
	return &BracketHandler{
		bracketService:    bracketService,
		tournamentService: tournamentService,
	}
}

// Initialize handles POST /api/bracket/initialize.
func (h *BracketHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := h.tournamentIDFromBody(w, r)
	if !ok {
		return
	}

	view, err := h.bracketService.InitializeBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view, nil)
}

// Reset handles POST /api/bracket/reset.
func (h *BracketHandler) Reset(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := h.tournamentIDFromBody(w, r)
	if !ok {
		return
	}

	view, err := h.bracketService.ResetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

// StartNextGame handles POST /api/bracket/games/start.
func (h *BracketHandler) StartNextGame(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := h.tournamentIDFromBody(w, r)
	if !ok {
		return
	}

	match, err := h.bracketService.StartNextBracketGame(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game": match}, nil)
}

// UpdateScore handles PATCH /api/bracket/games/{id}/score.
func (h *BracketHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
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

	match, err := h.bracketService.UpdateBracketScore(r.Context(), matchID, input.TeamAScore, input.TeamBScore)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game": match}, nil)
}

// CompleteGame handles POST /api/bracket/games/{id}/complete.
func (h *BracketHandler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.bracketService.CompleteBracketGame(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"game": match}, nil)
}

// GetBracket handles GET /api/tournaments/{tournamentID}/bracket.
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.bracketService.GetBracketView(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

func (h *BracketHandler) tournamentIDFromBody(w http.ResponseWriter, r *http.Request) (int, bool) {
	var input struct {
		TournamentID int `json:"tournament_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return 0, false
	}
	if input.TournamentID <= 0 {
		badRequestResponse(w, r, errInvalidTournamentID)
		return 0, false
	}

	identity := middleware.IdentityFromContext(r.Context())
	if err := h.tournamentService.AuthorizeScorekeeper(r.Context(), identity, input.TournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return 0, false
	}
	return input.TournamentID, true
}
