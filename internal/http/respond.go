package httpx

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeMessage sends a single-message error body, {"msg": ...}.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// writeFieldErrors sends a validation failure list, {"errors":[{"msg":...}]}.
func writeFieldErrors(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, map[string][]fieldError{"errors": errs})
}

// writeServerError hides internals behind a generic message; the cause is
// logged by the caller, never returned to the client.
func writeServerError(w http.ResponseWriter) {
	writeMessage(w, http.StatusInternalServerError, "Server error")
}
