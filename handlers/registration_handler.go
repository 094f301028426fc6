package handlers

import (
	"net"
	"net/http"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/middleware"
	"github.com/WhisperedLullaby/tournament-tracker-sub000/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(registrationService services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// RegisterPod handles POST /api/register-pod.
func (h *RegistrationHandler) RegisterPod(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TournamentID int      `json:"tournament_id"`
		PodName      string   `json:"pod_name"`
		Players      []string `json:"players"`
		ContactEmail string   `json:"contact_email"`
		CaptchaToken string   `json:"captcha_token"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TournamentID <= 0 {
		badRequestResponse(w, r, errInvalidTournamentID)
		return
	}

	result, err := h.registrationService.RegisterPod(r.Context(), services.RegisterPodInput{
		TournamentID: input.TournamentID,
		PodName:      input.PodName,
		Players:      input.Players,
		ContactEmail: input.ContactEmail,
		CaptchaToken: input.CaptchaToken,
		RemoteIP:     clientIP(r),
		Identity:     middleware.IdentityFromContext(r.Context()),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result, nil)
}

// ManagePod handles PATCH /api/manage-pod. The caller proves ownership
// with the manage token from the confirmation email, or with the
// account that registered the pod.
func (h *RegistrationHandler) ManagePod(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PodID       int    `json:"pod_id"`
		PodName     string `json:"pod_name"`
		ManageToken string `json:"manage_token"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pod, err := h.registrationService.RenamePod(r.Context(), services.RenamePodInput{
		PodID:       input.PodID,
		PodName:     input.PodName,
		ManageToken: input.ManageToken,
		Identity:    middleware.IdentityFromContext(r.Context()),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"pod": pod}, nil)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
