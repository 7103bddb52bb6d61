package handler

import (
	"encoding/json"
	"net/http"

	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/service"
	"github.com/char-projects/PokeAPI/pkg/apierror"
)

type GenerateHandler struct {
	service *service.GenerateService
}

func NewGenerateHandler(service *service.GenerateService) *GenerateHandler {
	return &GenerateHandler{service: service}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	if payload.Prompt == "" {
		writeError(w, apierror.New("BAD_REQUEST", "prompt required", "", http.StatusBadRequest))
		return
	}

	result, err := h.service.Generate(r.Context(), payload.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}
