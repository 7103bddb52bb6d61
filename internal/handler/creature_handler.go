package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/char-projects/PokeAPI/internal/middleware"
	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/service"
	"github.com/char-projects/PokeAPI/pkg/apierror"
)

type CreatureHandler struct {
	service *service.CreatureService
}

func NewCreatureHandler(service *service.CreatureService) *CreatureHandler {
	return &CreatureHandler{service: service}
}

func (h *CreatureHandler) List(w http.ResponseWriter, r *http.Request) {
	creatures, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, creatures)
}

func (h *CreatureHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrMissingToken)
		return
	}

	var payload model.CreateCreatureRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	creature, err := h.service.Create(r.Context(), claims.Sub, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, creature)
}

// AttachImage stores a generated image for one of the caller's creatures.
// The body carries the image the generation endpoint returned, still base64.
func (h *CreatureHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrMissingToken)
		return
	}

	var payload struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload.Image))
	if err != nil || len(data) == 0 {
		writeError(w, apierror.New("BAD_REQUEST", "image must be base64-encoded", "", http.StatusBadRequest))
		return
	}

	creature, err := h.service.AttachImage(r.Context(), claims.Sub, chi.URLParam(r, "id"), data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, creature)
}

func (h *CreatureHandler) Image(w http.ResponseWriter, r *http.Request) {
	thumb := r.URL.Query().Get("thumb") != ""

	data, err := h.service.Image(r.Context(), chi.URLParam(r, "id"), thumb)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(data)
}
