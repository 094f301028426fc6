package handlers

import (
	"errors"
	"net/http"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/middleware"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/services"
)

const maxBannerBytes = 5 << 20 // 5MB

type TournamentHandler struct {
	tournamentService services.TournamentService
	podService        services.RegistrationService
}

func NewTournamentHandler(tournamentService services.TournamentService, podService services.RegistrationService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: tournamentService,
		podService:        podService,
	}
}

// List handles GET /api/tournaments.
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil)
}

// Get handles GET /api/tournaments/{tournamentID}.
func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil)
}

// ListPods handles GET /api/tournaments/{tournamentID}/pods.
func (h *TournamentHandler) ListPods(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pods, err := h.podService.ListPods(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"pods": pods}, nil)
}

// Create handles POST /api/tournaments.
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	tournament, err := h.tournamentService.Create(r.Context(), identity, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil)
}

// Update handles PATCH /api/tournaments/{tournamentID}.
func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	tournament, err := h.tournamentService.Update(r.Context(), identity, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil)
}

// Delete handles DELETE /api/tournaments/{tournamentID}.
func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	if err := h.tournamentService.Delete(r.Context(), identity, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadBanner handles POST /api/tournaments/{tournamentID}/banner.
func (h *TournamentHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBannerBytes)
	if err := r.ParseMultipartForm(maxBannerBytes); err != nil {
		badRequestResponse(w, r, errors.New("banner must be a multipart upload of at most 5MB"))
		return
	}
	file, header, err := r.FormFile("banner")
	if err != nil {
		badRequestResponse(w, r, errors.New("missing banner file field"))
		return
	}
	defer file.Close()

	identity := middleware.IdentityFromContext(r.Context())
	tournament, err := h.tournamentService.UploadBanner(
		r.Context(), identity, id,
		header.Header.Get("Content-Type"), header.Filename, file,
	)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil)
}
