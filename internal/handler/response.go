package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/char-projects/PokeAPI/internal/model"
	"github.com/char-projects/PokeAPI/internal/oauth"
	"github.com/char-projects/PokeAPI/internal/service"
	"github.com/char-projects/PokeAPI/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeRawJSON forwards a body verbatim, used where the contract is to relay
// the provider's response unchanged.
func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, err error) {
	// Provider and upstream rejections mirror the remote status and body
	// verbatim; everything else is translated to the local taxonomy.
	var provErr *oauth.ProviderError
	if errors.As(err, &provErr) {
		slog.Warn("provider rejected request", "status", provErr.StatusCode, "body", string(provErr.Body))
		writeRawJSON(w, provErr.StatusCode, provErr.Body)
		return
	}
	var upErr *service.UpstreamError
	if errors.As(err, &upErr) {
		slog.Warn("image backend rejected request", "status", upErr.StatusCode, "body", string(upErr.Body))
		writeRawJSON(w, upErr.StatusCode, upErr.Body)
		return
	}

	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "invalid credentials"
	} else if errors.Is(err, model.ErrUsernameTaken) {
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "username already taken"
	} else if errors.Is(err, model.ErrWeakPassword) {
		status = http.StatusBadRequest
		body.Code = "WEAK_PASSWORD"
		body.Message = "password must be at least 4 characters"
	} else if errors.Is(err, model.ErrMissingToken) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "missing token"
	} else if errors.Is(err, model.ErrInvalidToken) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "invalid token"
	} else if errors.Is(err, model.ErrTokenRevoked) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "token revoked"
	} else if errors.Is(err, model.ErrProviderMisconfigured) {
		status = http.StatusInternalServerError
		body.Code = "PROVIDER_MISCONFIGURED"
		body.Message = "OAuth server not configured on backend"
	} else if errors.Is(err, model.ErrStateMismatch) {
		status = http.StatusBadRequest
		body.Code = "STATE_MISMATCH"
		body.Message = "state mismatch"
	} else if errors.Is(err, model.ErrMissingCode) {
		status = http.StatusBadRequest
		body.Code = "MISSING_CODE"
		body.Message = "authorization code missing"
	} else if errors.Is(err, model.ErrVerifierNotFound) {
		status = http.StatusBadRequest
		body.Code = "VERIFIER_NOT_FOUND"
		body.Message = "code verifier not found"
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "user not found"
	} else if errors.Is(err, model.ErrCreatureNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "creature not found"
	} else if errors.Is(err, model.ErrImageNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "image not found"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "invalid input"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
