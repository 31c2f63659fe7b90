package backend

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/api"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, api.StatusResponse{Success: false, Message: message})
}

func respondOK(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, api.StatusResponse{Success: true, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
