package web

import (
	"encoding/json"
	"net/http"
)

// writeJSONResponse encodes v as JSON and writes it with a 200 status.
func writeJSONResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
