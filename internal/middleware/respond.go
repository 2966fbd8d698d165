package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError emits the same {"error": ...} envelope the handler layer uses,
// so auth rejections and panics are not the only plain-text responses.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
