// Package handlers implements the JSON HTTP API for the KYC Trust site:
// authentication, user administration, review moderation, content
// publishing, analytics, and the security dashboard.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// apiError is the bilingual error payload returned on every non-2xx
// response.
type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	MessageAr string `json:"message_ar"`
}

// respondData writes a 2xx envelope: {"success":true,"data":...}.
func respondData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	}); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// respondError writes the error envelope with both language variants.
func respondError(w http.ResponseWriter, status int, code, message, messageAr string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": apiError{Code: code, Message: message, MessageAr: messageAr},
	})
}

// respondInternal is the catch-all for infrastructure failures. The
// underlying error is logged, never surfaced.
func respondInternal(w http.ResponseWriter, err error) {
	slog.Error("internal error", "error", err)
	respondError(w, http.StatusInternalServerError, "internal",
		"An unexpected error occurred", "حدث خطأ غير متوقع")
}

// decodeJSON parses the request body into dst, limiting body size so a
// hostile client cannot hold a connection open with an endless document.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "bad_json",
			"Request body is not valid JSON", "نص الطلب ليس JSON صالحاً")
		return false
	}
	return true
}
